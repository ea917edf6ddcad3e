package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"money-manager/internal/event"
	"money-manager/internal/model"
	"money-manager/pkg/apierror"
)

const auditWriteTimeout = 5 * time.Second

// AuditService persists domain events as audit entries and serves the admin
// audit query.
type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Consume records every event from bus until ctx is cancelled.
func (s *AuditService) Consume(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.Record(ctx, e)
		}
	}
}

func (s *AuditService) Record(ctx context.Context, e event.Event) {
	if s == nil {
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := s.store.Log(writeCtx, entryFromEvent(e)); err != nil {
		slog.Error("failed to record audit entry", "action", e.Type, "error", err)
	}
}

func entryFromEvent(e event.Event) model.AuditEntry {
	occurredAt := e.Timestamp
	if occurredAt == "" {
		occurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	return model.AuditEntry{
		Action:     string(e.Type),
		OccurredAt: occurredAt,
		Actor:      model.AuditActor{UserID: e.Actor.UserID, Role: e.Actor.Role, IP: e.Actor.IP},
		Status:     e.Status,
		Resource:   e.Resource,
		Data:       e.Payload,
		Error:      e.Error,
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	from, err := parseOptionalAuditTime(query.From)
	if err != nil {
		return nil, model.Meta{}, apierror.New("BAD_REQUEST", "invalid 'from' datetime format", query.From, http.StatusBadRequest)
	}

	to, err := parseOptionalAuditTime(query.To)
	if err != nil {
		return nil, model.Meta{}, apierror.New("BAD_REQUEST", "invalid 'to' datetime format", query.To, http.StatusBadRequest)
	}

	query.From, query.To = formatAuditTime(from), formatAuditTime(to)
	return s.store.Query(ctx, query)
}

func formatAuditTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	return parseAuditTime(trimmed)
}

func parseAuditTime(raw string) (time.Time, error) {
	if value, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}

	return value.UTC(), nil
}
