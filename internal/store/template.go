// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lexdesk/internal/models"
)

// TemplateStore handles all template-related database operations.
type TemplateStore struct {
	db     *sql.DB
	fields *FieldStore
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db, fields: NewFieldStore(db)}
}

const templateColumns = `id, name, category, body, is_shared, webhook_url, webhook_enabled,
	execution_count, version, created_by, created_at, updated_at`

func scanTemplate(row rowScanner) (*models.TemplateDefinition, error) {
	t := &models.TemplateDefinition{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Category, &t.Body, &t.IsShared, &t.WebhookURL, &t.WebhookEnabled,
		&t.ExecutionCount, &t.Version, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Fields = []models.FieldDefinition{}
	return t, nil
}

// List returns all templates ordered by category and name, without fields.
func (s *TemplateStore) List(ctx context.Context) ([]models.TemplateDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []models.TemplateDefinition{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// FindByID retrieves a template without its fields.
func (s *TemplateStore) FindByID(ctx context.Context, id uuid.UUID) (*models.TemplateDefinition, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx, `
		SELECT `+templateColumns+` FROM templates WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find template by id: %w", err)
	}
	return t, nil
}

// FindWithFields retrieves a template and its fields in display order.
func (s *TemplateStore) FindWithFields(ctx context.Context, id uuid.UUID) (*models.TemplateDefinition, error) {
	t, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Fields, err = s.fields.ListByTemplate(ctx, id); err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a template and its fields in one transaction. Fields
// must already be checked; duplicate keys still fail on the unique index.
func (s *TemplateStore) Create(ctx context.Context, t *models.TemplateDefinition) (*models.TemplateDefinition, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := scanTemplate(tx.QueryRowContext(ctx, `
		INSERT INTO templates (name, category, body, is_shared, webhook_url, webhook_enabled, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+templateColumns,
		t.Name, t.Category, t.Body, t.IsShared, t.WebhookURL, t.WebhookEnabled, t.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	for i := range t.Fields {
		f := t.Fields[i]
		f.TemplateID = result.ID
		if f.DisplayOrder == 0 {
			f.DisplayOrder = i
		}
		created, err := insertField(ctx, tx, &f)
		if err != nil {
			return nil, err
		}
		result.Fields = append(result.Fields, *created)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit template: %w", err)
	}
	return result, nil
}

// Update modifies a template's editable columns and increments its version.
// The execution counter is never written here.
func (s *TemplateStore) Update(ctx context.Context, t *models.TemplateDefinition) (*models.TemplateDefinition, error) {
	result, err := scanTemplate(s.db.QueryRowContext(ctx, `
		UPDATE templates SET
			name = $1, category = $2, body = $3, is_shared = $4,
			webhook_url = $5, webhook_enabled = $6,
			version = version + 1, updated_at = NOW()
		WHERE id = $7
		RETURNING `+templateColumns,
		t.Name, t.Category, t.Body, t.IsShared, t.WebhookURL, t.WebhookEnabled, t.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	if result.Fields, err = s.fields.ListByTemplate(ctx, t.ID); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a template, its fields and its executions.
func (s *TemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of templates.
func (s *TemplateStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return count, nil
}
