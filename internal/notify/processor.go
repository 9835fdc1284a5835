package notify

import (
	"context"

	"lakala-sdk/internal/lakala"
	"lakala-sdk/internal/logger"

	"go.uber.org/zap"
)

// Processor handles a verified, newly stored notification. A returned error
// is recorded as the failure reason and the gateway is asked to retry.
type Processor interface {
	Process(ctx context.Context, n *lakala.Notification) error
}

type ProcessorFunc func(ctx context.Context, n *lakala.Notification) error

func (f ProcessorFunc) Process(ctx context.Context, n *lakala.Notification) error {
	return f(ctx, n)
}

// LoggingProcessor only logs the notification. It is the default when the
// host application registers no processor.
type LoggingProcessor struct{}

func (LoggingProcessor) Process(ctx context.Context, n *lakala.Notification) error {
	status := n.Field("order_status")
	if status == "" {
		status = n.Field("trade_status")
	}
	logger.FromCtx(ctx).Info("Lakala notification received",
		zap.String("order_no", n.OrderNo),
		zap.String("status", status),
		zap.String("trade_no", n.Field("trade_no")),
	)
	return nil
}
