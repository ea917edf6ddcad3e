package mail

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestVerificationMessage(t *testing.T) {
	t.Parallel()

	msg, err := VerificationMessage("https://app.example.com/", "ana@example.com", "ana", "tok-123", 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "Verify your email - Money Management App", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "https://app.example.com/verify-email?token=tok-123")
	assert.Contains(t, msg.HTMLBody, "1 day")
	assert.Contains(t, msg.HTMLBody, "Hello ana,")
}

func TestPasswordResetMessage(t *testing.T) {
	t.Parallel()

	msg, err := PasswordResetMessage("http://localhost:3000", "bo@example.com", "bo", "abc_DEF-9", time.Hour)
	require.NoError(t, err)

	assert.Contains(t, msg.Subject, "Reset your password")
	assert.Contains(t, msg.HTMLBody, "http://localhost:3000/reset-password?token=abc_DEF-9")
	assert.Contains(t, msg.HTMLBody, "1 hour")
	assert.Contains(t, msg.HTMLBody, "only be used once")
}

func TestPasswordChangedMessageEscapesUsername(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	msg, err := PasswordChangedMessage("x@example.com", "<b>x</b>", at)
	require.NoError(t, err)

	assert.Contains(t, msg.HTMLBody, "2024-03-05 14:30:00 UTC")
	assert.NotContains(t, msg.HTMLBody, "<b>x</b>")
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;x&lt;/b&gt;")
}

func TestHumanize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2 days", humanize(48*time.Hour))
	assert.Equal(t, "3 hours", humanize(3*time.Hour))
	assert.Equal(t, "90 minutes", humanize(90*time.Minute))
}

func TestConsumerHandle(t *testing.T) {
	t.Parallel()

	valid, err := json.Marshal(Message{To: "a@example.com", Subject: "s", HTMLBody: "<p>b</p>"})
	require.NoError(t, err)

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		sendErr     error
		want        outcome
		wantSends   int
	}{
		{name: "delivered", body: valid, want: outcomeAck, wantSends: 1},
		{name: "malformed json", body: []byte("{"), want: outcomeDrop},
		{name: "missing recipient", body: []byte(`{"subject":"s"}`), want: outcomeDrop},
		{name: "first failure requeues", body: valid, sendErr: errors.New("smtp down"), want: outcomeRequeue, wantSends: 1},
		{name: "redelivery failure drops", body: valid, redelivered: true, sendErr: errors.New("smtp down"), want: outcomeDrop, wantSends: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{err: tt.sendErr}
			c := &Consumer{sender: sender}

			got := c.handle(context.Background(), tt.body, tt.redelivered)

			assert.Equal(t, tt.want, got)
			assert.Len(t, sender.sent, tt.wantSends)
		})
	}
}

func TestInstrumentPassesThrough(t *testing.T) {
	t.Parallel()

	inner := &recordingSender{err: errors.New("boom")}
	err := Instrument(inner).Send(context.Background(), Message{To: "a@example.com"})

	require.Error(t, err)
	require.Len(t, inner.sent, 1)
}

func TestSMTPSenderHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 465, From: "noreply@example.com"})
	err := s.Send(ctx, Message{To: "a@example.com"})

	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, s.dialer.SSL)
	assert.False(t, strings.Contains(err.Error(), "smtp send"))
}
