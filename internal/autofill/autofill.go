// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package autofill maps linked client and process records to placeholder
// values so users do not have to retype them for every petition.
package autofill

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lexdesk/internal/fieldtype"
	"lexdesk/internal/models"
)

// Placeholder keys filled from a client.
const (
	KeyClientName     = "client_name"
	KeyClientDocument = "client_document"
	KeyClientEmail    = "client_email"
	KeyClientPhone    = "client_phone"
	KeyClientAddress  = "client_address"
	KeyClientCity     = "client_city"
	KeyClientState    = "client_state"
	KeyClientZipCode  = "client_zip_code"
)

// Placeholder keys filled from a process.
const (
	KeyProcessNumber  = "process_number"
	KeyProcessCourt   = "process_court"
	KeyProcessSubject = "process_subject"
	KeyOpposingParty  = "opposing_party"
	KeyJudgeName      = "judge_name"
)

// ClientFinder loads clients by ID.
type ClientFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// ProcessFinder loads processes by ID.
type ProcessFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Process, error)
}

// Source resolves linked entity IDs to placeholder values.
type Source struct {
	clients   ClientFinder
	processes ProcessFinder
}

// NewSource creates a Source backed by the given finders.
func NewSource(clients ClientFinder, processes ProcessFinder) *Source {
	return &Source{clients: clients, processes: processes}
}

// Lookup returns the values for the linked client and process. When only a
// process is given, its own client (if any) is used.
func (s *Source) Lookup(ctx context.Context, clientID, processID *uuid.UUID) (map[string]any, error) {
	values := make(map[string]any)

	if processID != nil {
		p, err := s.processes.FindByID(ctx, *processID)
		if err != nil {
			return nil, fmt.Errorf("load process: %w", err)
		}
		for k, v := range ProcessFields(p) {
			values[k] = v
		}
		if clientID == nil {
			clientID = p.ClientID
		}
	}

	if clientID != nil {
		c, err := s.clients.FindByID(ctx, *clientID)
		if err != nil {
			return nil, fmt.Errorf("load client: %w", err)
		}
		for k, v := range ClientFields(c) {
			values[k] = v
		}
	}
	return values, nil
}

// ClientFields maps a client to placeholder values. Empty columns are
// omitted.
func ClientFields(c *models.Client) map[string]any {
	return nonEmpty(map[string]string{
		KeyClientName:     c.Name,
		KeyClientDocument: c.Document,
		KeyClientEmail:    c.Email,
		KeyClientPhone:    c.Phone,
		KeyClientAddress:  c.Address,
		KeyClientCity:     c.City,
		KeyClientState:    c.State,
		KeyClientZipCode:  c.ZipCode,
	})
}

// ProcessFields maps a process to placeholder values. Empty columns are
// omitted.
func ProcessFields(p *models.Process) map[string]any {
	return nonEmpty(map[string]string{
		KeyProcessNumber:  p.Number,
		KeyProcessCourt:   p.Court,
		KeyProcessSubject: p.Subject,
		KeyOpposingParty:  p.OpposingParty,
		KeyJudgeName:      p.Judge,
	})
}

func nonEmpty(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Merge returns a new map holding data plus every auto value whose key is
// absent or empty in data. Values supplied by the caller always win.
func Merge(data, auto map[string]any) map[string]any {
	out := make(map[string]any, len(data)+len(auto))
	for k, v := range data {
		out[k] = v
	}
	for k, v := range auto {
		if cur, ok := out[k]; !ok || fieldtype.IsEmpty(cur) {
			out[k] = v
		}
	}
	return out
}
