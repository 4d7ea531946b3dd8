// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookStatus is the delivery state of an execution.
type WebhookStatus string

const (
	// WebhookStatusNone means no endpoint was configured. Terminal.
	WebhookStatusNone      WebhookStatus = "none"
	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusSent      WebhookStatus = "sent"
	WebhookStatusCompleted WebhookStatus = "completed"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// ExecutionRecord is the immutable result of filling a template, plus the
// mutable delivery fields. FilledData and GeneratedContent are written once.
type ExecutionRecord struct {
	ID               uuid.UUID      `json:"id"`
	TemplateID       uuid.UUID      `json:"template_id"`
	FilledData       map[string]any `json:"filled_data"`
	GeneratedContent string         `json:"generated_content"`
	ClientID         *uuid.UUID     `json:"client_id,omitempty"`
	ProcessID        *uuid.UUID     `json:"process_id,omitempty"`
	Sequence         int64          `json:"sequence"`
	ExecutedBy       string         `json:"executed_by,omitempty"`

	WebhookURL         string          `json:"webhook_url,omitempty"`
	WebhookStatus      WebhookStatus   `json:"webhook_status"`
	WebhookSentAt      *time.Time      `json:"webhook_sent_at,omitempty"`
	WebhookCompletedAt *time.Time      `json:"webhook_completed_at,omitempty"`
	WebhookResponse    json.RawMessage `json:"webhook_response,omitempty"`
	RetryCount         int             `json:"retry_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeliveryUpdate is one state-machine step applied to an execution. The
// store applies it only while the record is still in From.
type DeliveryUpdate struct {
	From WebhookStatus
	To   WebhookStatus
	At   time.Time
	// Response replaces webhook_response when non-nil.
	Response json.RawMessage
	// IncrementRetry bumps retry_count by one (manual retries).
	IncrementRetry bool
}

// DeliveryStats summarises the delivery outcomes of a template's executions.
// SuccessRate counts completed deliveries against finished ones.
type DeliveryStats struct {
	Total       int     `json:"total"`
	None        int     `json:"none"`
	Pending     int     `json:"pending"`
	Sent        int     `json:"sent"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// ComputeSuccessRate fills SuccessRate from the status counts.
func (s *DeliveryStats) ComputeSuccessRate() {
	finished := s.Completed + s.Failed
	if finished == 0 {
		s.SuccessRate = 0
		return
	}
	s.SuccessRate = float64(s.Completed) / float64(finished)
}
