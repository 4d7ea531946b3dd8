// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a person or company represented by the practice. Only the
// columns used to auto-fill petitions are modelled here.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"` // CPF or CNPJ digits
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	CreatedAt time.Time `json:"created_at"`
}

// Process is a court case handled by the practice.
type Process struct {
	ID            uuid.UUID  `json:"id"`
	ClientID      *uuid.UUID `json:"client_id,omitempty"`
	Number        string     `json:"number"`
	Court         string     `json:"court"`
	Subject       string     `json:"subject"`
	OpposingParty string     `json:"opposing_party"`
	Judge         string     `json:"judge"`
	CreatedAt     time.Time  `json:"created_at"`
}
