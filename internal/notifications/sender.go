package notifications

import (
	"context"

	"go.uber.org/zap"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Email delivery itself lives outside this service.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	from   string
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(from string, logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{from: from, logger: logger}
}

// Send logs m.
func (s *LogSender) Send(_ context.Context, m Message) error {
	s.logger.Info("notification delivered",
		zap.String("from", s.from),
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
	)
	return nil
}
