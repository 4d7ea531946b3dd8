// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TemplateDefinition is a petition template authored inside a workspace.
// Body contains {{name}} placeholders; Fields defines the user-supplied
// values that fill them. Executions always render against the live
// definition, so edits affect every later execution.
type TemplateDefinition struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Category       string            `json:"category"`
	Body           string            `json:"body"`
	Fields         []FieldDefinition `json:"fields"`
	IsShared       bool              `json:"is_shared"`
	WebhookURL     string            `json:"webhook_url,omitempty"`
	WebhookEnabled bool              `json:"webhook_enabled"`
	ExecutionCount int64             `json:"execution_count"`
	Version        int               `json:"version"`
	CreatedBy      string            `json:"created_by,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// DeliveryConfigured reports whether executions of this template should be
// pushed to an external endpoint.
func (t *TemplateDefinition) DeliveryConfigured() bool {
	return t.WebhookEnabled && strings.TrimSpace(t.WebhookURL) != ""
}

// FieldByKey returns the field with the given key, or nil.
func (t *TemplateDefinition) FieldByKey(key string) *FieldDefinition {
	for i := range t.Fields {
		if t.Fields[i].Key == key {
			return &t.Fields[i]
		}
	}
	return nil
}

// FieldDefinition describes one fillable value of a template. Key is the
// placeholder name used in the body and is unique within the template.
type FieldDefinition struct {
	ID              uuid.UUID        `json:"id"`
	TemplateID      uuid.UUID        `json:"template_id"`
	Key             string           `json:"key"`
	Label           string           `json:"label"`
	Type            FieldType        `json:"type"`
	IsRequired      bool             `json:"is_required"`
	DefaultValue    string           `json:"default_value,omitempty"`
	DisplayOrder    int              `json:"display_order"`
	Options         FieldOptions     `json:"options"`
	ValidationRules *ValidationRules `json:"validation_rules,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// DisplayLabel returns the label, falling back to the key when unset.
func (f *FieldDefinition) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Key
}

// Choice is one selectable option of a select or multiselect field.
type Choice struct {
	Title string `json:"title" yaml:"title"`
	Value string `json:"value" yaml:"value"`
}

// FieldOptions holds the type-specific settings of a field.
type FieldOptions struct {
	Choices     []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
	Min         *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// ValidationRules are optional author-defined constraints on a field value.
// Pattern must match the whole value.
type ValidationRules struct {
	MinLength *int   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}
