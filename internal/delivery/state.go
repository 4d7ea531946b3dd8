// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package delivery notifies external endpoints about executions. It owns
// the webhook state machine:
//
//	none (terminal)
//	pending → sent → completed (terminal)
//	               ↘ failed → sent (manual retry)
package delivery

import (
	"errors"
	"fmt"

	"lexdesk/internal/models"
)

// ErrInvalidTransition is returned for a status change the state machine
// does not allow.
var ErrInvalidTransition = errors.New("invalid delivery transition")

var transitions = map[models.WebhookStatus][]models.WebhookStatus{
	models.WebhookStatusPending: {models.WebhookStatusSent},
	models.WebhookStatusSent:    {models.WebhookStatusCompleted, models.WebhookStatusFailed},
	models.WebhookStatusFailed:  {models.WebhookStatusSent},
}

// CanTransition reports whether from → to is allowed.
func CanTransition(from, to models.WebhookStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition (wrapped with both states)
// when from → to is not allowed.
func CheckTransition(from, to models.WebhookStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Terminal reports whether no transition leaves s.
func Terminal(s models.WebhookStatus) bool {
	return len(transitions[s]) == 0
}

// Retryable reports whether a manual retry may be issued in state s.
func Retryable(s models.WebhookStatus) bool {
	return s == models.WebhookStatusFailed
}
