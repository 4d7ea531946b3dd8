// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lexdesk/internal/models"
)

// ExecutionStore handles execution records and their delivery status.
type ExecutionStore struct {
	db *sql.DB
}

// NewExecutionStore creates a new ExecutionStore with the given database connection.
func NewExecutionStore(db *sql.DB) *ExecutionStore {
	return &ExecutionStore{db: db}
}

const executionColumns = `id, template_id, filled_data, generated_content, client_id, process_id,
	sequence, executed_by, webhook_url, webhook_status, webhook_sent_at, webhook_completed_at,
	webhook_response, retry_count, created_at, updated_at`

func scanExecution(row rowScanner) (*models.ExecutionRecord, error) {
	r := &models.ExecutionRecord{}
	var data, response []byte
	err := row.Scan(
		&r.ID, &r.TemplateID, &data, &r.GeneratedContent, &r.ClientID, &r.ProcessID,
		&r.Sequence, &r.ExecutedBy, &r.WebhookURL, &r.WebhookStatus, &r.WebhookSentAt, &r.WebhookCompletedAt,
		&response, &r.RetryCount, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &r.FilledData); err != nil {
		return nil, fmt.Errorf("decode filled data: %w", err)
	}
	if len(response) > 0 {
		r.WebhookResponse = json.RawMessage(response)
	}
	return r, nil
}

// CreateWithCounter increments the template's execution counter and inserts
// the record built from the new value, in one transaction. The row lock
// taken by the UPDATE serialises concurrent executions of a template, so
// every sequence number is handed out exactly once. If build fails nothing
// is written and the counter is left unchanged.
func (s *ExecutionStore) CreateWithCounter(ctx context.Context, templateID uuid.UUID, build func(seq int64) (*models.ExecutionRecord, error)) (*models.ExecutionRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		UPDATE templates SET execution_count = execution_count + 1
		WHERE id = $1
		RETURNING execution_count
	`, templateID).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment execution count: %w", err)
	}

	rec, err := build(seq)
	if err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	data, err := jsonParam(rec.FilledData)
	if err != nil {
		return nil, err
	}

	created, err := scanExecution(tx.QueryRowContext(ctx, `
		INSERT INTO executions
			(id, template_id, filled_data, generated_content, client_id, process_id,
			 sequence, executed_by, webhook_url, webhook_status)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+executionColumns,
		rec.ID, templateID, data, rec.GeneratedContent, rec.ClientID, rec.ProcessID,
		seq, rec.ExecutedBy, rec.WebhookURL, rec.WebhookStatus,
	))
	if err != nil {
		return nil, fmt.Errorf("create execution: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit execution: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single execution.
func (s *ExecutionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ExecutionRecord, error) {
	r, err := scanExecution(s.db.QueryRowContext(ctx, `
		SELECT `+executionColumns+` FROM executions WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find execution by id: %w", err)
	}
	return r, nil
}

func (s *ExecutionStore) list(ctx context.Context, query string, args ...any) ([]models.ExecutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	records := []models.ExecutionRecord{}
	for rows.Next() {
		r, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// ListByTemplate returns a template's executions, newest first.
func (s *ExecutionStore) ListByTemplate(ctx context.Context, templateID uuid.UUID, limit, offset int) ([]models.ExecutionRecord, error) {
	return s.list(ctx, `
		SELECT `+executionColumns+`
		FROM executions
		WHERE template_id = $1
		ORDER BY created_at DESC, sequence DESC
		LIMIT $2 OFFSET $3
	`, templateID, limit, offset)
}

// ListByStatus returns up to limit executions in the given delivery status,
// oldest first.
func (s *ExecutionStore) ListByStatus(ctx context.Context, status models.WebhookStatus, limit int) ([]models.ExecutionRecord, error) {
	return s.list(ctx, `
		SELECT `+executionColumns+`
		FROM executions
		WHERE webhook_status = $1
		ORDER BY updated_at
		LIMIT $2
	`, status, limit)
}

// Transition applies a delivery update only while the record is still in
// upd.From. Entering sent stamps webhook_sent_at; entering completed or
// failed stamps webhook_completed_at.
func (s *ExecutionStore) Transition(ctx context.Context, id uuid.UUID, upd models.DeliveryUpdate) (*models.ExecutionRecord, error) {
	retry := 0
	if upd.IncrementRetry {
		retry = 1
	}

	r, err := scanExecution(s.db.QueryRowContext(ctx, `
		UPDATE executions SET
			webhook_status = $3,
			webhook_sent_at = CASE WHEN $3 = 'sent' THEN $4::timestamptz ELSE webhook_sent_at END,
			webhook_completed_at = CASE
				WHEN $3 IN ('completed', 'failed') THEN $4::timestamptz
				WHEN $3 = 'sent' THEN NULL
				ELSE webhook_completed_at END,
			webhook_response = COALESCE($5::jsonb, webhook_response),
			retry_count = retry_count + $6,
			updated_at = NOW()
		WHERE id = $1 AND webhook_status = $2
		RETURNING `+executionColumns,
		id, upd.From, upd.To, upd.At, rawJSONParam(upd.Response), retry,
	))
	if errors.Is(err, sql.ErrNoRows) {
		if _, ferr := s.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("transition execution: %w", err)
	}
	return r, nil
}

// Stats counts a template's executions per delivery status.
func (s *ExecutionStore) Stats(ctx context.Context, templateID uuid.UUID) (*models.DeliveryStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT webhook_status, COUNT(*)
		FROM executions
		WHERE template_id = $1
		GROUP BY webhook_status
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("execution stats: %w", err)
	}
	defer rows.Close()

	stats := &models.DeliveryStats{}
	for rows.Next() {
		var status models.WebhookStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += n
		switch status {
		case models.WebhookStatusNone:
			stats.None = n
		case models.WebhookStatusPending:
			stats.Pending = n
		case models.WebhookStatusSent:
			stats.Sent = n
		case models.WebhookStatusCompleted:
			stats.Completed = n
		case models.WebhookStatusFailed:
			stats.Failed = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats.ComputeSuccessRate()
	return stats, nil
}
