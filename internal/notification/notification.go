package notification

import (
	"context"
	"log/slog"
)

const (
	// KindTaskCompleted is sent when a task is completed and its reward credited.
	KindTaskCompleted = "task_completed"
	// KindWithdrawalRequested is sent when a payout is queued.
	KindWithdrawalRequested = "withdrawal_requested"
	// KindReferralInvited is sent when a creator invites someone.
	KindReferralInvited = "referral_invited"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
