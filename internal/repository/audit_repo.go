package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"money-manager/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	var dataJSON []byte
	if entry.Data != nil {
		var err error
		dataJSON, err = json.Marshal(entry.Data)
		if err != nil {
			return fmt.Errorf("marshal audit data: %w", err)
		}
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, entry.OccurredAt)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_entries
		 (action, occurred_at, actor_user_id, actor_role, actor_ip, status, resource, data, error_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.Action, occurredAt, entry.Actor.UserID, entry.Actor.Role, entry.Actor.IP,
		entry.Status, entry.Resource, dataJSON, entry.Error)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func buildAuditWhere(query model.AuditQuery) (string, []any) {
	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if action := strings.TrimSpace(query.Action); action != "" {
		where = append(where, fmt.Sprintf("lower(action) = lower($%d)", argIdx))
		args = append(args, action)
		argIdx++
	}
	if actorID := strings.TrimSpace(query.ActorID); actorID != "" {
		where = append(where, fmt.Sprintf("actor_user_id = $%d", argIdx))
		args = append(args, actorID)
		argIdx++
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		where = append(where, fmt.Sprintf("lower(status) = lower($%d)", argIdx))
		args = append(args, status)
		argIdx++
	}
	if resource := strings.TrimSpace(query.Resource); resource != "" {
		where = append(where, fmt.Sprintf("resource ILIKE $%d", argIdx))
		args = append(args, "%"+escapeLike(resource)+"%")
		argIdx++
	}
	if from := strings.TrimSpace(query.From); from != "" {
		where = append(where, fmt.Sprintf("occurred_at >= $%d::timestamptz", argIdx))
		args = append(args, from)
		argIdx++
	}
	if to := strings.TrimSpace(query.To); to != "" {
		where = append(where, fmt.Sprintf("occurred_at <= $%d::timestamptz", argIdx))
		args = append(args, to)
	}

	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	page, limit := normalizePage(query.Page, query.Limit, 50, 200)
	whereClause, args := buildAuditWhere(query)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_entries "+whereClause, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	dataQuery := fmt.Sprintf(
		`SELECT action, occurred_at, actor_user_id, actor_role, actor_ip,
		        status, resource, data, error_text
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var occurredAt time.Time
		var dataJSON []byte

		if err := rows.Scan(
			&e.Action, &occurredAt, &e.Actor.UserID, &e.Actor.Role, &e.Actor.IP,
			&e.Status, &e.Resource, &dataJSON, &e.Error,
		); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan audit entry: %w", err)
		}

		e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)
		if len(dataJSON) > 0 {
			var data any
			if jsonErr := json.Unmarshal(dataJSON, &data); jsonErr == nil {
				e.Data = data
			}
		}

		entries = append(entries, e)
	}

	return entries, model.NewMeta(page, limit, total), rows.Err()
}
