package lakala

import (
	"context"
	"strconv"
	"time"
)

const (
	cashdeskAPIVersion = "1.0"

	pathCounterOrderCreate = "/api/v3/ccss/counter/order/special_create"
	pathCounterOrderQuery  = "/api/v3/ccss/counter/order/query"
	pathCounterOrderClose  = "/api/v3/ccss/counter/order/close"
	pathRefund             = "/api/v3/rfd/refund_front/refund"
	pathRefundQuery        = "/api/v3/rfd/refund_front/refund_query"

	orderEfficientPeriod = 7 * 24 * time.Hour
)

// Extra holds additional req_data fields; they override the defaults built
// by each endpoint.
type Extra map[string]any

// Cashdesk is the aggregation cashdesk (counter) service.
type Cashdesk struct {
	*Client
}

func NewCashdesk(cfg Config, opts ...Option) (*Cashdesk, error) {
	if cfg.MerchantNo == "" {
		return nil, ErrMissingMerchantNo
	}
	c, err := newClient(cfg, cashdeskAPIVersion, opts...)
	if err != nil {
		return nil, err
	}
	return &Cashdesk{Client: c}, nil
}

func (c *Cashdesk) Name() ServiceName { return AggregationCashdesk }

// CounterOrderSpecialCreate creates a cashdesk order. totalAmount is in fen.
// The order stays payable for seven days unless extra overrides
// order_efficient_time.
func (c *Cashdesk) CounterOrderSpecialCreate(ctx context.Context, outOrderNo string, totalAmount int64, orderInfo string, extra Extra) (*Result, error) {
	reqData := merge(map[string]any{
		"merchant_no":          c.cfg.MerchantNo,
		"out_order_no":         outOrderNo,
		"total_amount":         totalAmount,
		"order_info":           orderInfo,
		"order_efficient_time": c.now().Add(orderEfficientPeriod).In(c.loc).Format(timeLayout),
	}, extra)

	return c.Post(ctx, pathCounterOrderCreate, c.Envelope(reqData))
}

func (c *Cashdesk) CounterOrderQuery(ctx context.Context, outOrderNo, payOrderNo, channelID string) (*Result, error) {
	return c.Post(ctx, pathCounterOrderQuery, c.Envelope(c.orderRef(outOrderNo, payOrderNo, channelID)))
}

func (c *Cashdesk) CounterOrderClose(ctx context.Context, outOrderNo, payOrderNo, channelID string) (*Result, error) {
	return c.Post(ctx, pathCounterOrderClose, c.Envelope(c.orderRef(outOrderNo, payOrderNo, channelID)))
}

// TradeOrderRefund refunds refundAmount fen of a cashdesk trade.
func (c *Cashdesk) TradeOrderRefund(ctx context.Context, outTradeNo string, refundAmount int64, requestIP string) (*Result, error) {
	if c.cfg.TermNo == "" {
		return nil, ErrMissingTermNo
	}
	reqData := map[string]any{
		"merchant_no":   c.cfg.MerchantNo,
		"term_no":       c.cfg.TermNo,
		"out_trade_no":  outTradeNo,
		"refund_amount": strconv.FormatInt(refundAmount, 10),
		"location_info": map[string]any{"request_ip": requestIP},
	}
	return c.Post(ctx, pathRefund, c.Envelope(reqData))
}

func (c *Cashdesk) OrderRefundQuery(ctx context.Context, outTradeNo, tradeNo string) (*Result, error) {
	if c.cfg.TermNo == "" {
		return nil, ErrMissingTermNo
	}
	reqData := map[string]any{
		"merchant_no":  c.cfg.MerchantNo,
		"term_no":      c.cfg.TermNo,
		"out_trade_no": outTradeNo,
		"trade_no":     tradeNo,
	}
	return c.Post(ctx, pathRefundQuery, c.Envelope(reqData))
}

func (c *Cashdesk) orderRef(outOrderNo, payOrderNo, channelID string) map[string]any {
	return map[string]any{
		"merchant_no":  c.cfg.MerchantNo,
		"out_order_no": outOrderNo,
		"pay_order_no": payOrderNo,
		"channel_id":   channelID,
	}
}

func merge(base map[string]any, extra Extra) map[string]any {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
