// Package api is the JWT-protected operations API wrapping the gateway
// services for back-office use.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"lakala-sdk/internal/lakala"
	"lakala-sdk/internal/logger"
	"lakala-sdk/internal/middleware"
	"lakala-sdk/internal/notify"
	"lakala-sdk/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const orderNoPrefix = "LKL"

type CashdeskService interface {
	CounterOrderSpecialCreate(ctx context.Context, outOrderNo string, totalAmount int64, orderInfo string, extra lakala.Extra) (*lakala.Result, error)
	CounterOrderQuery(ctx context.Context, outOrderNo, payOrderNo, channelID string) (*lakala.Result, error)
	CounterOrderClose(ctx context.Context, outOrderNo, payOrderNo, channelID string) (*lakala.Result, error)
	TradeOrderRefund(ctx context.Context, outTradeNo string, refundAmount int64, requestIP string) (*lakala.Result, error)
	OrderRefundQuery(ctx context.Context, outTradeNo, tradeNo string) (*lakala.Result, error)
}

type ScanService interface {
	TransPreorder(ctx context.Context, p lakala.Payment) (*lakala.Result, error)
	TransMicropay(ctx context.Context, p lakala.Payment) (*lakala.Result, error)
	QueryTradeQuery(ctx context.Context, outTradeNo, tradeNo string) (*lakala.Result, error)
	RelationClose(ctx context.Context, originOutTradeNo, originTradeNo, requestIP string) (*lakala.Result, error)
	RelationRevoked(ctx context.Context, outTradeNo, originOutTradeNo, originTradeNo, requestIP string) (*lakala.Result, error)
	RelationRefund(ctx context.Context, outTradeNo string, refundAmount int64, requestIP string, extra lakala.Extra) (*lakala.Result, error)
	RelationIdmRefund(ctx context.Context, outRefundOrderNo string, refundAmount int64, requestIP string, extra lakala.Extra) (*lakala.Result, error)
	QueryIdmRefundQuery(ctx context.Context, outRefundOrderNo string) (*lakala.Result, error)
}

type NotificationStore interface {
	ListByOrderNo(ctx context.Context, orderNo string) ([]notify.Record, error)
}

// API exposes whichever service variant is configured. Route groups for a
// nil service are not mounted.
type API struct {
	cashdesk      CashdeskService
	scan          ScanService
	notifications NotificationStore
}

func NewAPI(cashdesk CashdeskService, scan ScanService, notifications NotificationStore) *API {
	return &API{
		cashdesk:      cashdesk,
		scan:          scan,
		notifications: notifications,
	}
}

// ForService builds an API for the variant behind svc.
func ForService(svc lakala.Service, notifications NotificationStore) *API {
	a := &API{notifications: notifications}
	switch s := svc.(type) {
	case *lakala.Cashdesk:
		a.cashdesk = s
	case *lakala.Scan:
		a.scan = s
	}
	return a
}

func (a *API) AppendRoutes(r chi.Router) {
	refundGuard := middleware.RequireRole(utils.RoleAdmin)

	if a.cashdesk != nil {
		r.Route("/cashdesk", func(r chi.Router) {
			r.Post("/orders", a.createCounterOrder)
			r.Route("/orders/{outOrderNo}", func(r chi.Router) {
				r.Get("/", a.queryCounterOrder)
				r.Post("/close", a.closeCounterOrder)
			})
			r.With(refundGuard).Post("/refunds", a.refundTradeOrder)
			r.Get("/refunds/{outTradeNo}", a.queryTradeRefund)
		})
	}

	if a.scan != nil {
		r.Route("/scan", func(r chi.Router) {
			r.Post("/preorder", a.preorder)
			r.Post("/micropay", a.micropay)
			r.Get("/trades", a.queryTrade)
			r.Post("/trades/close", a.closeTrade)
			r.Post("/trades/revoke", a.revokeTrade)
			r.With(refundGuard).Post("/refunds", a.refundTrade)
			r.With(refundGuard).Post("/idm-refunds", a.idmRefund)
			r.Get("/idm-refunds/{outRefundOrderNo}", a.queryIdmRefund)
		})
	}

	if a.notifications != nil {
		r.Get("/notifications/{orderNo}", a.listNotifications)
	}
}

// ValidationError is a bad operator request; it maps to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// gatewayResponse is returned for every completed gateway call. A business
// failure still answers 200 with succeeded=false.
type gatewayResponse struct {
	OrderNo   string `json:"order_no,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Succeeded bool   `json:"succeeded"`
	Data      any    `json:"data"`
}

func respond(w http.ResponseWriter, status int, orderNo string, res *lakala.Result) {
	utils.WriteJSON(w, status, gatewayResponse{
		OrderNo:   orderNo,
		Code:      res.Code(),
		Message:   res.Message(),
		Succeeded: res.Succeeded(),
		Data:      res.RespData(),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr *ValidationError
		tErr *lakala.TransportError
		eErr *lakala.EmptyResponseError
		mErr *lakala.MalformedPayloadError
	)

	log := logger.FromCtx(r.Context())
	switch {
	case errors.As(err, &vErr):
		utils.WriteJSONError(w, vErr.Message, http.StatusBadRequest)
	case errors.As(err, &tErr):
		log.Warn("Gateway request failed", zap.Int("gateway_status", tErr.StatusCode), zap.Error(err))
		utils.WriteJSONError(w, tErr.Error(), http.StatusBadGateway)
	case errors.As(err, &eErr), errors.As(err, &mErr):
		log.Warn("Gateway response unusable", zap.Error(err))
		utils.WriteJSONError(w, err.Error(), http.StatusBadGateway)
	default:
		log.Error("Operation failed", zap.Error(err))
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return invalid("invalid request body: %v", err)
	}
	return nil
}

// requestIP prefers the address given in the body, then the caller's.
func requestIP(r *http.Request, given string) string {
	if given != "" {
		return given
	}
	return utils.ClientIP(r)
}

func orderNoOrNew(no string) string {
	if no == "" {
		return utils.GenerateOrderNumber(orderNoPrefix)
	}
	return no
}

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "orderNo")

	records, err := a.notifications.ListByOrderNo(r.Context(), orderNo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []notify.Record{}
	}
	utils.WriteJSON(w, http.StatusOK, records)
}
