package alerts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	client "github.com/mamadbah2/praya-stock/pkg/clients/whatsapp"
)

// Notifier delivers a restock summary to the shop owner.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// WhatsAppNotifier sends alerts to a single configured recipient.
type WhatsAppNotifier struct {
	client    client.Client
	recipient string
	logger    *zap.Logger
}

// NewWhatsAppNotifier wires a notifier around the Cloud API client.
func NewWhatsAppNotifier(c client.Client, recipient string, logger *zap.Logger) *WhatsAppNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppNotifier{client: c, recipient: recipient, logger: logger}
}

func (n *WhatsAppNotifier) Notify(ctx context.Context, message string) error {
	ids, err := n.client.SendText(ctx, n.recipient, message)
	if err != nil {
		return fmt.Errorf("notify %s: %w", n.recipient, err)
	}
	n.logger.Info("restock alert sent", zap.String("to", n.recipient), zap.Strings("message_ids", ids))
	return nil
}

// LogNotifier writes alerts to the log when no channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, message string) error {
	n.logger.Info("restock alert", zap.String("message", message))
	return nil
}
