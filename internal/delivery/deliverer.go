// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lexdesk/internal/models"
)

// RecordStore is the storage the state machine runs against. Transition
// must apply the update only if the record is still in upd.From and
// return an error otherwise.
type RecordStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ExecutionRecord, error)
	Transition(ctx context.Context, id uuid.UUID, upd models.DeliveryUpdate) (*models.ExecutionRecord, error)
	ListByStatus(ctx context.Context, status models.WebhookStatus, limit int) ([]models.ExecutionRecord, error)
}

// TemplateFinder, ClientFinder and ProcessFinder load the summaries that
// go into the payload.
type TemplateFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.TemplateDefinition, error)
}

type ClientFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type ProcessFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Process, error)
}

// sweepLimit bounds how many records one recovery pass touches.
const sweepLimit = 500

// Deliverer performs delivery attempts.
type Deliverer struct {
	records   RecordStore
	templates TemplateFinder
	clients   ClientFinder
	processes ProcessFinder
	transport Transport
	timeout   time.Duration
	now       func() time.Time

	// outcomeBackoff holds the waits before each attempt to store an
	// outcome; its length is the number of attempts.
	outcomeBackoff []time.Duration
}

var defaultOutcomeBackoff = []time.Duration{0, 500 * time.Millisecond, 2 * time.Second}

// NewDeliverer creates a Deliverer. timeout bounds each outbound call.
func NewDeliverer(records RecordStore, templates TemplateFinder, transport Transport, timeout time.Duration) *Deliverer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Deliverer{
		records:   records,
		templates: templates,
		transport: transport,
		timeout:   timeout,
		now:       time.Now,

		outcomeBackoff: defaultOutcomeBackoff,
	}
}

// SetParties enables client and process summaries in payloads.
func (d *Deliverer) SetParties(clients ClientFinder, processes ProcessFinder) {
	d.clients = clients
	d.processes = processes
}

// SetClock replaces the time source. Used by tests.
func (d *Deliverer) SetClock(now func() time.Time) { d.now = now }

// Deliver makes the first attempt for a pending execution. Records in any
// other state were already handled and are skipped.
func (d *Deliverer) Deliver(ctx context.Context, id uuid.UUID) error {
	rec, err := d.records.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load execution: %w", err)
	}
	if rec.WebhookStatus != models.WebhookStatusPending {
		slog.Debug("delivery skipped", "execution_id", id, "status", rec.WebhookStatus)
		return nil
	}
	_, err = d.attempt(ctx, rec, EventExecutionCreated, false)
	return err
}

// Retry re-sends a failed delivery to the stored URL and waits for the
// outcome. Any state other than failed yields ErrInvalidTransition.
func (d *Deliverer) Retry(ctx context.Context, id uuid.UUID) (*models.ExecutionRecord, error) {
	rec, err := d.records.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load execution: %w", err)
	}
	if !Retryable(rec.WebhookStatus) {
		return nil, fmt.Errorf("%w: cannot retry delivery in state %s", ErrInvalidTransition, rec.WebhookStatus)
	}
	return d.attempt(ctx, rec, EventExecutionRetried, true)
}

// attempt moves rec to sent, performs the call and records the outcome.
func (d *Deliverer) attempt(ctx context.Context, rec *models.ExecutionRecord, event string, retry bool) (*models.ExecutionRecord, error) {
	if err := CheckTransition(rec.WebhookStatus, models.WebhookStatusSent); err != nil {
		return nil, err
	}

	sent, err := d.records.Transition(ctx, rec.ID, models.DeliveryUpdate{
		From:           rec.WebhookStatus,
		To:             models.WebhookStatusSent,
		At:             d.now(),
		IncrementRetry: retry,
	})
	if err != nil {
		return nil, fmt.Errorf("mark sent: %w", err)
	}
	logTransition(sent, rec.WebhookStatus, models.WebhookStatusSent)

	payload := d.buildPayload(ctx, event, sent)

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	out := d.transport.Send(sendCtx, sent.WebhookURL, payload)
	cancel()

	to := models.WebhookStatusFailed
	if out.Success {
		to = models.WebhookStatusCompleted
	}

	// The outcome is recorded even if the caller went away meanwhile.
	final, err := d.recordOutcome(context.WithoutCancel(ctx), sent, to, out.Response)
	if err != nil {
		return nil, err
	}
	logTransition(final, models.WebhookStatusSent, final.WebhookStatus, "http_status", out.StatusCode)
	return final, nil
}

// recordOutcome moves a sent record to its outcome, retrying failed writes.
// If the outcome still cannot be stored, the record is failed with a short
// response instead so it never stays in sent. A record another writer
// already moved out of sent is returned as found.
func (d *Deliverer) recordOutcome(ctx context.Context, sent *models.ExecutionRecord, to models.WebhookStatus, response json.RawMessage) (*models.ExecutionRecord, error) {
	backoff := d.outcomeBackoff
	if len(backoff) == 0 {
		backoff = []time.Duration{0}
	}
	var lastErr error
	for i, wait := range backoff {
		if wait > 0 {
			time.Sleep(wait)
		}
		if i > 0 {
			cur, err := d.records.FindByID(ctx, sent.ID)
			if err == nil && cur.WebhookStatus != models.WebhookStatusSent {
				return cur, nil
			}
		}
		final, err := d.records.Transition(ctx, sent.ID, models.DeliveryUpdate{
			From:     models.WebhookStatusSent,
			To:       to,
			At:       d.now(),
			Response: response,
		})
		if err == nil {
			return final, nil
		}
		lastErr = err
		slog.Warn("delivery outcome write failed", "execution_id", sent.ID, "to", to, "attempt", i+1, "error", err)
	}

	final, err := d.records.Transition(ctx, sent.ID, models.DeliveryUpdate{
		From:     models.WebhookStatusSent,
		To:       models.WebhookStatusFailed,
		At:       d.now(),
		Response: mustJSON(responseDoc{Error: "delivery outcome could not be stored: " + lastErr.Error()}),
	})
	if err != nil {
		return nil, fmt.Errorf("record delivery outcome: %w", errors.Join(lastErr, err))
	}
	return final, nil
}

// buildPayload loads the summaries for rec. Missing summaries are logged
// and left out; they never block a delivery.
func (d *Deliverer) buildPayload(ctx context.Context, event string, rec *models.ExecutionRecord) *Payload {
	var (
		tmpl    *models.TemplateDefinition
		client  *models.Client
		process *models.Process
		err     error
	)
	if d.templates != nil {
		if tmpl, err = d.templates.FindByID(ctx, rec.TemplateID); err != nil {
			slog.Warn("payload template lookup failed", "execution_id", rec.ID, "error", err)
		}
	}
	if d.clients != nil && rec.ClientID != nil {
		if client, err = d.clients.FindByID(ctx, *rec.ClientID); err != nil {
			slog.Warn("payload client lookup failed", "execution_id", rec.ID, "error", err)
		}
	}
	if d.processes != nil && rec.ProcessID != nil {
		if process, err = d.processes.FindByID(ctx, *rec.ProcessID); err != nil {
			slog.Warn("payload process lookup failed", "execution_id", rec.ID, "error", err)
		}
	}
	return BuildPayload(event, d.now(), rec, tmpl, client, process)
}

// PendingIDs lists executions still waiting for their first attempt.
func (d *Deliverer) PendingIDs(ctx context.Context) ([]uuid.UUID, error) {
	recs, err := d.records.ListByStatus(ctx, models.WebhookStatusPending, sweepLimit)
	if err != nil {
		return nil, fmt.Errorf("list pending executions: %w", err)
	}
	ids := make([]uuid.UUID, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids, nil
}

var interruptedResponse = json.RawMessage(`{"error":"delivery interrupted before an outcome was recorded"}`)

// RecoverStale fails records left in sent for longer than olderThan, for
// example after a crash mid-attempt, so they become retryable.
func (d *Deliverer) RecoverStale(ctx context.Context, olderThan time.Duration) (int, error) {
	recs, err := d.records.ListByStatus(ctx, models.WebhookStatusSent, sweepLimit)
	if err != nil {
		return 0, fmt.Errorf("list sent executions: %w", err)
	}
	cutoff := d.now().Add(-olderThan)
	recovered := 0
	for _, r := range recs {
		if r.WebhookSentAt == nil || r.WebhookSentAt.After(cutoff) {
			continue
		}
		rec, err := d.records.Transition(ctx, r.ID, models.DeliveryUpdate{
			From:     models.WebhookStatusSent,
			To:       models.WebhookStatusFailed,
			At:       d.now(),
			Response: interruptedResponse,
		})
		if err != nil {
			slog.Warn("stale delivery recovery failed", "execution_id", r.ID, "error", err)
			continue
		}
		logTransition(rec, models.WebhookStatusSent, models.WebhookStatusFailed, "reason", "stale")
		recovered++
	}
	return recovered, nil
}

func logTransition(rec *models.ExecutionRecord, from, to models.WebhookStatus, extra ...any) {
	args := append([]any{
		"execution_id", rec.ID,
		"from", from,
		"to", to,
		"retry_count", rec.RetryCount,
	}, extra...)
	slog.Info("delivery transition", args...)
}
