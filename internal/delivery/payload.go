// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package delivery

import (
	"time"

	"github.com/google/uuid"

	"lexdesk/internal/models"
)

// Event names sent in the payload and the X-LexDesk-Event header.
const (
	EventExecutionCreated = "execution.created"
	EventExecutionRetried = "execution.retried"
)

// Payload is the JSON body posted to a webhook endpoint.
type Payload struct {
	Event       string          `json:"event"`
	Timestamp   time.Time       `json:"timestamp"`
	ExecutionID uuid.UUID       `json:"execution_id"`
	Sequence    int64           `json:"sequence"`
	RetryCount  int             `json:"retry_count"`
	ExecutedBy  string          `json:"executed_by,omitempty"`
	Template    TemplateSummary `json:"template"`
	Client      *ClientSummary  `json:"client,omitempty"`
	Process     *ProcessSummary `json:"process,omitempty"`
	Data        map[string]any  `json:"data"`
	Content     string          `json:"content"`
}

type TemplateSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
}

type ClientSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Document string    `json:"document,omitempty"`
	Email    string    `json:"email,omitempty"`
}

type ProcessSummary struct {
	ID      uuid.UUID `json:"id"`
	Number  string    `json:"number"`
	Court   string    `json:"court,omitempty"`
	Subject string    `json:"subject,omitempty"`
}

// BuildPayload assembles the payload from the persisted record. The
// generated content is reused verbatim; nothing is re-rendered. Any of
// tmpl, client and process may be nil.
func BuildPayload(event string, now time.Time, rec *models.ExecutionRecord, tmpl *models.TemplateDefinition, client *models.Client, process *models.Process) *Payload {
	p := &Payload{
		Event:       event,
		Timestamp:   now.UTC(),
		ExecutionID: rec.ID,
		Sequence:    rec.Sequence,
		RetryCount:  rec.RetryCount,
		ExecutedBy:  rec.ExecutedBy,
		Template:    TemplateSummary{ID: rec.TemplateID},
		Data:        rec.FilledData,
		Content:     rec.GeneratedContent,
	}
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	if tmpl != nil {
		p.Template.Name = tmpl.Name
		p.Template.Category = tmpl.Category
	}
	if client != nil {
		p.Client = &ClientSummary{ID: client.ID, Name: client.Name, Document: client.Document, Email: client.Email}
	}
	if process != nil {
		p.Process = &ProcessSummary{ID: process.ID, Number: process.Number, Court: process.Court, Subject: process.Subject}
	}
	return p
}
