package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// Repository provides database access for task history and agent audit.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertTask appends one completed task to the history table.
func (r *Repository) InsertTask(ctx context.Context, rec *TaskRecord) error {
	slog.Debug(fmt.Sprintf("%s - InsertTask request=%s handler=%s", repoLogPrefix, rec.RequestID, rec.HandlerType))

	created := rec.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (request_id, tenant_id, user_id, handler_type, route_method,
		                    message, response, success, error_code, error_details,
		                    processing_ms, created)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (request_id) DO NOTHING`,
		rec.RequestID, rec.TenantID, rec.UserID, rec.HandlerType, rec.RouteMethod,
		rec.Message, rec.Response, rec.Success, rec.ErrorCode, rec.ErrorDetails,
		rec.ProcessingMs, created)
	if err != nil {
		return fmt.Errorf("%s - insert task %s: %w", repoLogPrefix, rec.RequestID, err)
	}
	return nil
}

// InsertAgentEvent appends one lifecycle transition to the audit table.
func (r *Repository) InsertAgentEvent(ctx context.Context, agentID, tenantID, handlerType, action string) error {
	slog.Debug(fmt.Sprintf("%s - InsertAgentEvent agent=%s action=%s", repoLogPrefix, agentID, action))

	_, err := r.pool.Exec(ctx,
		`INSERT INTO agent_audit (agent_id, tenant_id, type, action, created)
		 VALUES ($1, $2, $3, $4, $5)`,
		agentID, tenantID, handlerType, action, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s - insert agent event %s/%s: %w", repoLogPrefix, agentID, action, err)
	}
	return nil
}

// RecentTasks lists the most recent tasks for a tenant, newest first. An
// empty tenantID lists across all tenants.
func (r *Repository) RecentTasks(ctx context.Context, tenantID string, limit int) ([]*TaskRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT request_id, tenant_id, user_id, handler_type, route_method,
	                 message, response, success, error_code, error_details,
	                 processing_ms, created
	          FROM tasks`
	args := []interface{}{}
	if tenantID != "" {
		query += ` WHERE tenant_id = $1`
		args = append(args, tenantID)
	}
	query += fmt.Sprintf(` ORDER BY created DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s - query recent tasks: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []*TaskRecord
	for rows.Next() {
		rec := &TaskRecord{}
		if err := rows.Scan(&rec.RequestID, &rec.TenantID, &rec.UserID, &rec.HandlerType,
			&rec.RouteMethod, &rec.Message, &rec.Response, &rec.Success,
			&rec.ErrorCode, &rec.ErrorDetails, &rec.ProcessingMs, &rec.Created); err != nil {
			return nil, fmt.Errorf("%s - scan task row: %w", repoLogPrefix, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - iterate task rows: %w", repoLogPrefix, err)
	}
	return out, nil
}
