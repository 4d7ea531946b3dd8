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

// FieldStore handles template field rows. Every change bumps the owning
// template's version so cached analyses of the template are dropped.
type FieldStore struct {
	db *sql.DB
}

func NewFieldStore(db *sql.DB) *FieldStore {
	return &FieldStore{db: db}
}

const fieldColumns = `id, template_id, field_key, label, type, is_required, default_value,
	display_order, options, validation_rules, created_at`

func scanField(row rowScanner) (*models.FieldDefinition, error) {
	f := &models.FieldDefinition{}
	var options, rules []byte
	err := row.Scan(
		&f.ID, &f.TemplateID, &f.Key, &f.Label, &f.Type, &f.IsRequired, &f.DefaultValue,
		&f.DisplayOrder, &options, &rules, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &f.Options); err != nil {
			return nil, fmt.Errorf("decode field options: %w", err)
		}
	}
	if len(rules) > 0 {
		f.ValidationRules = &models.ValidationRules{}
		if err := json.Unmarshal(rules, f.ValidationRules); err != nil {
			return nil, fmt.Errorf("decode validation rules: %w", err)
		}
	}
	return f, nil
}

// ListByTemplate returns a template's fields in display order.
func (s *FieldStore) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]models.FieldDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fieldColumns+`
		FROM template_fields
		WHERE template_id = $1
		ORDER BY display_order, created_at
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	fields := []models.FieldDefinition{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		fields = append(fields, *f)
	}
	return fields, rows.Err()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func fieldParams(f *models.FieldDefinition) (options string, rules any, err error) {
	if options, err = jsonParam(f.Options); err != nil {
		return "", nil, err
	}
	if f.ValidationRules != nil {
		if rules, err = jsonParam(f.ValidationRules); err != nil {
			return "", nil, err
		}
	}
	return options, rules, nil
}

func insertField(ctx context.Context, q execer, f *models.FieldDefinition) (*models.FieldDefinition, error) {
	options, rules, err := fieldParams(f)
	if err != nil {
		return nil, err
	}
	created, err := scanField(q.QueryRowContext(ctx, `
		INSERT INTO template_fields
			(template_id, field_key, label, type, is_required, default_value, display_order, options, validation_rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb)
		RETURNING `+fieldColumns,
		f.TemplateID, f.Key, f.Label, f.Type, f.IsRequired, f.DefaultValue, f.DisplayOrder, options, rules,
	))
	if err != nil {
		return nil, fmt.Errorf("create field %q: %w", f.Key, err)
	}
	return created, nil
}

func bumpVersion(ctx context.Context, q execer, templateID uuid.UUID) error {
	res, err := q.ExecContext(ctx, `
		UPDATE templates SET version = version + 1, updated_at = NOW() WHERE id = $1
	`, templateID)
	if err != nil {
		return fmt.Errorf("bump template version: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Create adds a field to its template.
func (s *FieldStore) Create(ctx context.Context, f *models.FieldDefinition) (*models.FieldDefinition, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := bumpVersion(ctx, tx, f.TemplateID); err != nil {
		return nil, err
	}
	created, err := insertField(ctx, tx, f)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit field: %w", err)
	}
	return created, nil
}

// Update rewrites a field. The template ID cannot change.
func (s *FieldStore) Update(ctx context.Context, f *models.FieldDefinition) (*models.FieldDefinition, error) {
	options, rules, err := fieldParams(f)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updated, err := scanField(tx.QueryRowContext(ctx, `
		UPDATE template_fields SET
			field_key = $1, label = $2, type = $3, is_required = $4, default_value = $5,
			display_order = $6, options = $7::jsonb, validation_rules = $8::jsonb
		WHERE id = $9 AND template_id = $10
		RETURNING `+fieldColumns,
		f.Key, f.Label, f.Type, f.IsRequired, f.DefaultValue, f.DisplayOrder, options, rules, f.ID, f.TemplateID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update field: %w", err)
	}
	if err := bumpVersion(ctx, tx, f.TemplateID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit field: %w", err)
	}
	return updated, nil
}

// Delete removes a field from its template.
func (s *FieldStore) Delete(ctx context.Context, templateID, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM template_fields WHERE id = $1 AND template_id = $2`, id, templateID)
	if err != nil {
		return fmt.Errorf("delete field: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := bumpVersion(ctx, tx, templateID); err != nil {
		return err
	}
	return tx.Commit()
}
