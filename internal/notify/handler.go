// Package notify receives asynchronous payment notifications from the
// gateway, verifies and stores them, and hands new ones to a Processor.
package notify

import (
	"errors"
	"io"
	"net/http"

	"lakala-sdk/internal/lakala"
	"lakala-sdk/internal/logger"
	"lakala-sdk/internal/metrics"
	"lakala-sdk/internal/signature"
	"lakala-sdk/internal/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

const (
	codeSuccess    = "SUCCESS"
	codeFail       = "FAIL"
	successMessage = "执行成功"
)

// Parser is the part of lakala.Service the handler needs.
type Parser interface {
	Name() lakala.ServiceName
	ParseNotification(authorization string, body []byte) (*lakala.Notification, error)
}

type Handler struct {
	parser    Parser
	repo      Repository
	processor Processor
	metrics   *metrics.Metrics
}

// NewHandler builds the receiver. processor may be nil, in which case
// notifications are only logged.
func NewHandler(parser Parser, repo Repository, processor Processor, m *metrics.Metrics) *Handler {
	if processor == nil {
		processor = LoggingProcessor{}
	}
	return &Handler{
		parser:    parser,
		repo:      repo,
		processor: processor,
		metrics:   m,
	}
}

type ack struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("service", string(h.parser.Name())))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("Failed to read notification body", zap.Error(err))
		h.fail(w, http.StatusBadRequest, resultInvalidPayload, "failed to read body")
		return
	}
	defer r.Body.Close()

	n, err := h.parser.ParseNotification(r.Header.Get("Authorization"), body)
	if err != nil {
		var (
			vErr *signature.VerificationError
			mErr *lakala.MalformedPayloadError
		)
		switch {
		case errors.As(err, &vErr):
			log.Warn("Rejected notification with invalid signature", zap.Error(err))
			h.fail(w, http.StatusUnauthorized, resultInvalidSignature, "invalid signature")
		case errors.Is(err, lakala.ErrMissingOrderNo), errors.As(err, &mErr):
			log.Warn("Rejected malformed notification", zap.Error(err), zap.ByteString("body", body))
			h.fail(w, http.StatusBadRequest, resultInvalidPayload, err.Error())
		default:
			log.Error("Notification verification unavailable", zap.Error(err))
			h.fail(w, http.StatusInternalServerError, resultError, "verification unavailable")
		}
		return
	}

	log = log.With(
		zap.String("order_no", n.OrderNo),
		zap.String("nonce_str", n.Token.NonceStr),
		zap.String("timestamp", n.Token.Timestamp),
	)

	id, isDuplicate, err := h.repo.SaveNotification(ctx, string(h.parser.Name()), n)
	if errors.Is(err, ErrInProgress) {
		log.Info("Notification already being processed")
		h.fail(w, http.StatusConflict, resultInProgress, "notification in progress")
		return
	}
	if err != nil {
		log.Error("Failed to store notification", zap.Error(err))
		h.fail(w, http.StatusInternalServerError, resultError, "failed to store notification")
		return
	}
	if isDuplicate {
		log.Info("Duplicate notification acknowledged")
		h.succeed(w, resultDuplicate)
		return
	}

	if err := h.processor.Process(ctx, n); err != nil {
		log.Error("Notification processing failed", zap.Int64("notification_id", id), zap.Error(err))
		if markErr := h.repo.MarkFailed(ctx, id, err.Error()); markErr != nil {
			log.Error("Failed to record processing failure", zap.Error(markErr))
		}
		h.fail(w, http.StatusInternalServerError, resultFailed, "processing failed")
		return
	}

	if err := h.repo.MarkProcessed(ctx, id); err != nil {
		// processed already; a redelivery will be handled again
		log.Error("Failed to mark notification processed", zap.Int64("notification_id", id), zap.Error(err))
	}

	log.Info("Notification processed", zap.Int64("notification_id", id))
	h.succeed(w, resultProcessed)
}

func (h *Handler) succeed(w http.ResponseWriter, result string) {
	h.metrics.ObserveNotification(result)
	utils.WriteJSON(w, http.StatusOK, ack{Code: codeSuccess, Message: successMessage})
}

func (h *Handler) fail(w http.ResponseWriter, status int, result, message string) {
	h.metrics.ObserveNotification(result)
	utils.WriteJSON(w, status, ack{Code: codeFail, Message: message})
}
