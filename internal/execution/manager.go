// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package execution creates execution records: it validates filled data,
// renders the final document, persists the snapshot together with the
// template counter increment, and hands delivery off to a queue.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lexdesk/internal/autofill"
	"lexdesk/internal/engine"
	"lexdesk/internal/fieldtype"
	"lexdesk/internal/identity"
	"lexdesk/internal/models"
	"lexdesk/internal/placeholder"
)

// TemplateLoader loads a template with its ordered fields.
type TemplateLoader interface {
	FindWithFields(ctx context.Context, id uuid.UUID) (*models.TemplateDefinition, error)
}

// RecordCreator persists a new execution. CreateWithCounter atomically
// increments the template's execution counter and passes the new value to
// build; the returned record is inserted in the same transaction.
type RecordCreator interface {
	CreateWithCounter(ctx context.Context, templateID uuid.UUID, build func(seq int64) (*models.ExecutionRecord, error)) (*models.ExecutionRecord, error)
}

// Dispatcher schedules delivery of a pending execution.
type Dispatcher interface {
	Enqueue(ctx context.Context, executionID uuid.UUID) error
}

// AutoFiller resolves linked entities to placeholder values.
type AutoFiller interface {
	Lookup(ctx context.Context, clientID, processID *uuid.UUID) (map[string]any, error)
}

// Archiver stores a copy of a generated document.
type Archiver interface {
	ArchiveDocument(ctx context.Context, rec *models.ExecutionRecord) error
}

// Request is the input to Execute and Preview.
type Request struct {
	TemplateID uuid.UUID      `json:"template_id"`
	Data       map[string]any `json:"data"`
	ClientID   *uuid.UUID     `json:"client_id,omitempty"`
	ProcessID  *uuid.UUID     `json:"process_id,omitempty"`
}

// PreviewResult is a preview render plus non-blocking validation output.
type PreviewResult struct {
	Render   *engine.Result              `json:"render"`
	Errors   []fieldtype.FieldError      `json:"errors"`
	Analysis *placeholder.Classification `json:"analysis"`
	Data     map[string]any              `json:"data"`
}

// Valid reports whether the previewed data would pass execution.
func (p *PreviewResult) Valid() bool {
	return len(p.Errors) == 0
}

// Manager runs executions.
type Manager struct {
	templates TemplateLoader
	records   RecordCreator
	engine    *engine.Engine

	workspace string
	location  *time.Location
	now       func() time.Time

	// Optional collaborators. Nil disables the feature.
	dispatcher Dispatcher
	autofill   AutoFiller
	archiver   Archiver
}

// New creates a Manager. loc is the timezone system variables are
// rendered in; nil means UTC.
func New(templates TemplateLoader, records RecordCreator, eng *engine.Engine, workspace string, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	return &Manager{
		templates: templates,
		records:   records,
		engine:    eng,
		workspace: workspace,
		location:  loc,
		now:       time.Now,
	}
}

// SetDispatcher enables delivery for templates with a configured endpoint.
func (m *Manager) SetDispatcher(d Dispatcher) { m.dispatcher = d }

// SetAutoFill enables merging linked client/process values into data.
func (m *Manager) SetAutoFill(a AutoFiller) { m.autofill = a }

// SetArchiver enables best-effort document archiving after creation.
func (m *Manager) SetArchiver(a Archiver) { m.archiver = a }

// SetClock replaces the time source. Used by tests.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Preview renders the template with markers and reports validation errors
// without blocking. The sequence number shown is the next one.
func (m *Manager) Preview(ctx context.Context, req Request) (*PreviewResult, error) {
	tmpl, err := m.templates.FindWithFields(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	return m.PreviewTemplate(ctx, tmpl, req)
}

// PreviewTemplate is Preview for an already loaded template.
func (m *Manager) PreviewTemplate(ctx context.Context, tmpl *models.TemplateDefinition, req Request) (*PreviewResult, error) {
	data, err := m.prepare(ctx, tmpl, req)
	if err != nil {
		return nil, err
	}
	sys := m.systemContext(ctx, tmpl.ExecutionCount+1)
	return &PreviewResult{
		Render:   m.engine.Preview(tmpl, data, sys),
		Errors:   fieldtype.Validate(tmpl.Fields, data),
		Analysis: m.engine.Analyze(tmpl),
		Data:     data,
	}, nil
}

// Execute validates, renders and persists one execution. Validation
// failures return a *ValidationError and write nothing. Delivery is only
// scheduled here; its outcome never affects the returned record.
func (m *Manager) Execute(ctx context.Context, req Request) (*models.ExecutionRecord, error) {
	tmpl, err := m.templates.FindWithFields(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	data, err := m.prepare(ctx, tmpl, req)
	if err != nil {
		return nil, err
	}
	if errs := fieldtype.Validate(tmpl.Fields, data); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	user := identity.FromContext(ctx)
	rec, err := m.records.CreateWithCounter(ctx, tmpl.ID, func(seq int64) (*models.ExecutionRecord, error) {
		res := m.engine.Final(tmpl, data, m.systemContext(ctx, seq))
		r := &models.ExecutionRecord{
			ID:               uuid.New(),
			TemplateID:       tmpl.ID,
			FilledData:       data,
			GeneratedContent: res.Rendered,
			ClientID:         req.ClientID,
			ProcessID:        req.ProcessID,
			Sequence:         seq,
			ExecutedBy:       user.ID,
			WebhookStatus:    models.WebhookStatusNone,
		}
		if tmpl.DeliveryConfigured() {
			r.WebhookURL = strings.TrimSpace(tmpl.WebhookURL)
			r.WebhookStatus = models.WebhookStatusPending
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create execution: %w", err)
	}

	slog.Info("execution created",
		"execution_id", rec.ID,
		"template_id", tmpl.ID,
		"sequence", rec.Sequence,
		"webhook_status", rec.WebhookStatus,
	)

	// The request may finish before these do; they must not be cancelled
	// with it.
	bg := context.WithoutCancel(ctx)

	if m.archiver != nil {
		if err := m.archiver.ArchiveDocument(bg, rec); err != nil {
			slog.Warn("document archive failed", "execution_id", rec.ID, "error", err)
		}
	}

	if rec.WebhookStatus == models.WebhookStatusPending && m.dispatcher != nil {
		// A failed enqueue leaves the record pending; the worker's startup
		// sweep picks it up again.
		if err := m.dispatcher.Enqueue(bg, rec.ID); err != nil {
			slog.Error("delivery enqueue failed", "execution_id", rec.ID, "error", err)
		}
	}

	return rec, nil
}

// prepare builds the data map used for validation and rendering: caller
// values, then linked-entity values for empty keys, then field defaults.
func (m *Manager) prepare(ctx context.Context, tmpl *models.TemplateDefinition, req Request) (map[string]any, error) {
	data := autofill.Merge(req.Data, nil)
	if m.autofill != nil && (req.ClientID != nil || req.ProcessID != nil) {
		auto, err := m.autofill.Lookup(ctx, req.ClientID, req.ProcessID)
		if err != nil {
			return nil, fmt.Errorf("auto-fill: %w", err)
		}
		data = autofill.Merge(data, auto)
	}
	for _, f := range tmpl.Fields {
		if f.DefaultValue == "" {
			continue
		}
		if v, ok := data[f.Key]; !ok || unset(v) {
			data[f.Key] = f.DefaultValue
		}
	}
	return data, nil
}

// unset reports a value the user never provided. An explicit false or an
// empty selection is a choice and keeps precedence over the default.
func unset(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func (m *Manager) systemContext(ctx context.Context, seq int64) placeholder.SystemContext {
	return placeholder.SystemContext{
		Now:           m.now(),
		Location:      m.location,
		WorkspaceName: m.workspace,
		UserName:      identity.FromContext(ctx).DisplayName(),
		Sequence:      seq,
	}
}
