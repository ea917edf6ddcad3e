package mail

import (
	"context"
	"log/slog"

	"money-manager/internal/metrics"
)

// Message is a single outgoing HTML email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// Sender delivers a message synchronously. Implementations do not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("mail (log transport)", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTMLBody))
	return nil
}

type instrumented struct {
	next Sender
}

// Instrument counts deliveries in mail_sent_total.
func Instrument(next Sender) Sender {
	return instrumented{next: next}
}

func (s instrumented) Send(ctx context.Context, msg Message) error {
	err := s.next.Send(ctx, msg)
	metrics.MailSentTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		slog.Error("mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
	}
	return err
}
