package automation

import (
	"context"

	"sellerdesk-automation-api/internal/domain"

	"go.uber.org/zap"
)

// LoggingChannel is a CommunicationChannel that records the would-be send in
// the log and reports success. It is the default wiring until a real
// email/marketplace transport is plugged in.
type LoggingChannel struct {
	log *zap.Logger
}

// NewLoggingChannel creates a LoggingChannel.
func NewLoggingChannel(log *zap.Logger) *LoggingChannel {
	return &LoggingChannel{log: log}
}

// Send logs the rendered reply instead of delivering it.
func (c *LoggingChannel) Send(_ context.Context, msg domain.Message, subject, body string) error {
	c.log.Info("reply rendered for delivery",
		zap.String("message_id", msg.ID),
		zap.String("recipient", msg.SenderEmail),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)),
		zap.String("component", "channel"))
	return nil
}
