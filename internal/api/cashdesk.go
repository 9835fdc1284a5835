package api

import (
	"net/http"

	"lakala-sdk/internal/lakala"

	"github.com/go-chi/chi/v5"
)

type createCounterOrderRequest struct {
	OutOrderNo  string       `json:"out_order_no"`
	TotalAmount int64        `json:"total_amount"`
	OrderInfo   string       `json:"order_info"`
	Extra       lakala.Extra `json:"extra"`
}

func (a *API) createCounterOrder(w http.ResponseWriter, r *http.Request) {
	var req createCounterOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TotalAmount <= 0 {
		writeError(w, r, invalid("total_amount must be a positive number of fen"))
		return
	}
	if req.OrderInfo == "" {
		writeError(w, r, invalid("order_info is required"))
		return
	}

	orderNo := orderNoOrNew(req.OutOrderNo)
	res, err := a.cashdesk.CounterOrderSpecialCreate(r.Context(), orderNo, req.TotalAmount, req.OrderInfo, req.Extra)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, orderNo, res)
}

func (a *API) queryCounterOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "outOrderNo")
	q := r.URL.Query()

	res, err := a.cashdesk.CounterOrderQuery(r.Context(), orderNo, q.Get("pay_order_no"), q.Get("channel_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, orderNo, res)
}

func (a *API) closeCounterOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "outOrderNo")
	q := r.URL.Query()

	res, err := a.cashdesk.CounterOrderClose(r.Context(), orderNo, q.Get("pay_order_no"), q.Get("channel_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, orderNo, res)
}

type tradeRefundRequest struct {
	OutTradeNo   string `json:"out_trade_no"`
	RefundAmount int64  `json:"refund_amount"`
	RequestIP    string `json:"request_ip"`
}

func (a *API) refundTradeOrder(w http.ResponseWriter, r *http.Request) {
	var req tradeRefundRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.OutTradeNo == "" {
		writeError(w, r, invalid("out_trade_no is required"))
		return
	}
	if req.RefundAmount <= 0 {
		writeError(w, r, invalid("refund_amount must be a positive number of fen"))
		return
	}

	res, err := a.cashdesk.TradeOrderRefund(r.Context(), req.OutTradeNo, req.RefundAmount, requestIP(r, req.RequestIP))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, req.OutTradeNo, res)
}

func (a *API) queryTradeRefund(w http.ResponseWriter, r *http.Request) {
	outTradeNo := chi.URLParam(r, "outTradeNo")

	res, err := a.cashdesk.OrderRefundQuery(r.Context(), outTradeNo, r.URL.Query().Get("trade_no"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, outTradeNo, res)
}
