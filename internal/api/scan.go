package api

import (
	"net/http"

	"lakala-sdk/internal/lakala"

	"github.com/go-chi/chi/v5"
)

type paymentRequest struct {
	OutTradeNo  string       `json:"out_trade_no"`
	TotalAmount int64        `json:"total_amount"`
	AccountType string       `json:"account_type"`
	TransType   string       `json:"trans_type"`
	AuthCode    string       `json:"auth_code"`
	RequestIP   string       `json:"request_ip"`
	Extra       lakala.Extra `json:"extra"`
}

func (req *paymentRequest) payment(r *http.Request) (lakala.Payment, error) {
	if req.TotalAmount <= 0 {
		return lakala.Payment{}, invalid("total_amount must be a positive number of fen")
	}
	extra := req.Extra
	if req.AuthCode != "" {
		if extra == nil {
			extra = lakala.Extra{}
		}
		extra["auth_code"] = req.AuthCode
	}
	return lakala.Payment{
		OutTradeNo:  orderNoOrNew(req.OutTradeNo),
		TotalAmount: req.TotalAmount,
		RequestIP:   requestIP(r, req.RequestIP),
		AccountType: req.AccountType,
		TransType:   req.TransType,
		Extra:       extra,
	}, nil
}

func (a *API) preorder(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := req.payment(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := a.scan.TransPreorder(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, p.OutTradeNo, res)
}

func (a *API) micropay(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.AuthCode == "" {
		writeError(w, r, invalid("auth_code is required"))
		return
	}
	p, err := req.payment(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := a.scan.TransMicropay(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, p.OutTradeNo, res)
}

func (a *API) queryTrade(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	outTradeNo, tradeNo := q.Get("out_trade_no"), q.Get("trade_no")
	if outTradeNo == "" && tradeNo == "" {
		writeError(w, r, invalid("out_trade_no or trade_no is required"))
		return
	}

	res, err := a.scan.QueryTradeQuery(r.Context(), outTradeNo, tradeNo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, outTradeNo, res)
}

type tradeRelationRequest struct {
	OutTradeNo       string `json:"out_trade_no"`
	OriginOutTradeNo string `json:"origin_out_trade_no"`
	OriginTradeNo    string `json:"origin_trade_no"`
	RequestIP        string `json:"request_ip"`
}

func (req *tradeRelationRequest) validate() error {
	if req.OriginOutTradeNo == "" && req.OriginTradeNo == "" {
		return invalid("origin_out_trade_no or origin_trade_no is required")
	}
	return nil
}

func (a *API) closeTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRelationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := a.scan.RelationClose(r.Context(), req.OriginOutTradeNo, req.OriginTradeNo, requestIP(r, req.RequestIP))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, req.OriginOutTradeNo, res)
}

func (a *API) revokeTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRelationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	outTradeNo := orderNoOrNew(req.OutTradeNo)
	res, err := a.scan.RelationRevoked(r.Context(), outTradeNo, req.OriginOutTradeNo, req.OriginTradeNo, requestIP(r, req.RequestIP))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, outTradeNo, res)
}

type scanRefundRequest struct {
	OutTradeNo       string       `json:"out_trade_no"`
	OutRefundOrderNo string       `json:"out_refund_order_no"`
	RefundAmount     int64        `json:"refund_amount"`
	RequestIP        string       `json:"request_ip"`
	Extra            lakala.Extra `json:"extra"`
}

func (a *API) refundTrade(w http.ResponseWriter, r *http.Request) {
	var req scanRefundRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RefundAmount <= 0 {
		writeError(w, r, invalid("refund_amount must be a positive number of fen"))
		return
	}

	outTradeNo := orderNoOrNew(req.OutTradeNo)
	res, err := a.scan.RelationRefund(r.Context(), outTradeNo, req.RefundAmount, requestIP(r, req.RequestIP), req.Extra)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, outTradeNo, res)
}

func (a *API) idmRefund(w http.ResponseWriter, r *http.Request) {
	var req scanRefundRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RefundAmount <= 0 {
		writeError(w, r, invalid("refund_amount must be a positive number of fen"))
		return
	}

	refundNo := orderNoOrNew(req.OutRefundOrderNo)
	res, err := a.scan.RelationIdmRefund(r.Context(), refundNo, req.RefundAmount, requestIP(r, req.RequestIP), req.Extra)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, refundNo, res)
}

func (a *API) queryIdmRefund(w http.ResponseWriter, r *http.Request) {
	refundNo := chi.URLParam(r, "outRefundOrderNo")

	res, err := a.scan.QueryIdmRefundQuery(r.Context(), refundNo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, refundNo, res)
}
