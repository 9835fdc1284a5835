package lakala

import (
	"context"
	"strconv"
)

const (
	scanAPIVersion = "3.0"

	pathTransPreorder     = "/api/v3/labs/trans/preorder"
	pathTransMicropay     = "/api/v3/labs/trans/micropay"
	pathTradeQuery        = "/api/v3/labs/query/tradequery"
	pathRelationClose     = "/api/v3/labs/relation/close"
	pathRelationRevoked   = "/api/v3/labs/relation/revoked"
	pathRelationRefund    = "/api/v3/labs/relation/refund"
	pathRelationIdmRefund = "/api/v3/labs/relation/idmrefund"
	pathIdmRefundQuery    = "/api/v3/labs/query/idmrefundquery"
	DefaultAccountType    = "ALIPAY"
	DefaultTransType      = "41"
)

// Scan is the aggregation scan-to-pay service.
type Scan struct {
	*Client
}

func NewScan(cfg Config, opts ...Option) (*Scan, error) {
	if cfg.MerchantNo == "" {
		return nil, ErrMissingMerchantNo
	}
	if cfg.TermNo == "" {
		return nil, ErrMissingTermNo
	}
	c, err := newClient(cfg, scanAPIVersion, opts...)
	if err != nil {
		return nil, err
	}
	return &Scan{Client: c}, nil
}

func (s *Scan) Name() ServiceName { return AggregationScan }

// Payment describes a scan payment. Empty AccountType and TransType fall
// back to ALIPAY and 41.
type Payment struct {
	OutTradeNo  string
	TotalAmount int64
	RequestIP   string
	AccountType string
	TransType   string
	Extra       Extra
}

// TransPreorder is the merchant-presented (active scan) flow.
func (s *Scan) TransPreorder(ctx context.Context, p Payment) (*Result, error) {
	return s.Post(ctx, pathTransPreorder, s.Envelope(s.payment(p)))
}

// TransMicropay is the customer-presented (passive scan) flow; the auth code
// goes in Extra["auth_code"].
func (s *Scan) TransMicropay(ctx context.Context, p Payment) (*Result, error) {
	return s.Post(ctx, pathTransMicropay, s.Envelope(s.payment(p)))
}

// QueryTradeQuery looks a trade up by either identifier; empty ones are omitted.
func (s *Scan) QueryTradeQuery(ctx context.Context, outTradeNo, tradeNo string) (*Result, error) {
	reqData := s.terminal()
	setIf(reqData, "out_trade_no", outTradeNo)
	setIf(reqData, "trade_no", tradeNo)
	return s.Post(ctx, pathTradeQuery, s.Envelope(reqData))
}

func (s *Scan) RelationClose(ctx context.Context, originOutTradeNo, originTradeNo, requestIP string) (*Result, error) {
	reqData := s.terminal()
	reqData["location_info"] = location(requestIP)
	setIf(reqData, "origin_out_trade_no", originOutTradeNo)
	setIf(reqData, "origin_trade_no", originTradeNo)
	return s.Post(ctx, pathRelationClose, s.Envelope(reqData))
}

func (s *Scan) RelationRevoked(ctx context.Context, outTradeNo, originOutTradeNo, originTradeNo, requestIP string) (*Result, error) {
	reqData := s.terminal()
	reqData["out_trade_no"] = outTradeNo
	reqData["location_info"] = location(requestIP)
	setIf(reqData, "origin_out_trade_no", originOutTradeNo)
	setIf(reqData, "origin_trade_no", originTradeNo)
	return s.Post(ctx, pathRelationRevoked, s.Envelope(reqData))
}

func (s *Scan) RelationRefund(ctx context.Context, outTradeNo string, refundAmount int64, requestIP string, extra Extra) (*Result, error) {
	reqData := s.terminal()
	reqData["out_trade_no"] = outTradeNo
	reqData["refund_amount"] = strconv.FormatInt(refundAmount, 10)
	reqData["location_info"] = location(requestIP)
	return s.Post(ctx, pathRelationRefund, s.Envelope(merge(reqData, extra)))
}

// RelationIdmRefund refunds by merchant refund order number.
func (s *Scan) RelationIdmRefund(ctx context.Context, outRefundOrderNo string, refundAmount int64, requestIP string, extra Extra) (*Result, error) {
	reqData := s.terminal()
	reqData["out_refund_order_no"] = outRefundOrderNo
	reqData["refund_amount"] = strconv.FormatInt(refundAmount, 10)
	reqData["location_info"] = location(requestIP)
	return s.Post(ctx, pathRelationIdmRefund, s.Envelope(merge(reqData, extra)))
}

func (s *Scan) QueryIdmRefundQuery(ctx context.Context, outRefundOrderNo string) (*Result, error) {
	reqData := s.terminal()
	reqData["out_refund_order_no"] = outRefundOrderNo
	return s.Post(ctx, pathIdmRefundQuery, s.Envelope(reqData))
}

func (s *Scan) payment(p Payment) map[string]any {
	accountType := p.AccountType
	if accountType == "" {
		accountType = DefaultAccountType
	}
	transType := p.TransType
	if transType == "" {
		transType = DefaultTransType
	}

	reqData := s.terminal()
	reqData["out_trade_no"] = p.OutTradeNo
	reqData["total_amount"] = strconv.FormatInt(p.TotalAmount, 10)
	reqData["account_type"] = accountType
	reqData["trans_type"] = transType
	reqData["location_info"] = location(p.RequestIP)
	return merge(reqData, p.Extra)
}

func (s *Scan) terminal() map[string]any {
	return map[string]any{
		"merchant_no": s.cfg.MerchantNo,
		"term_no":     s.cfg.TermNo,
	}
}

func location(ip string) map[string]any {
	return map[string]any{"request_ip": ip}
}

func setIf(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
