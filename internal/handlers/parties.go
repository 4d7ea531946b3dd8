// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"lexdesk/internal/models"
)

type clientRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Document string `json:"document" validate:"max=20"`
	Email    string `json:"email" validate:"omitempty,email,max=200"`
	Phone    string `json:"phone" validate:"max=30"`
	Address  string `json:"address" validate:"max=300"`
	City     string `json:"city" validate:"max=100"`
	State    string `json:"state" validate:"max=2"`
	ZipCode  string `json:"zip_code" validate:"max=9"`
}

type processRequest struct {
	ClientID      *uuid.UUID `json:"client_id"`
	Number        string     `json:"number" validate:"required,max=30"`
	Court         string     `json:"court" validate:"max=200"`
	Subject       string     `json:"subject" validate:"max=300"`
	OpposingParty string     `json:"opposing_party" validate:"max=200"`
	Judge         string     `json:"judge" validate:"max=200"`
}

func (a *API) partiesEnabled(w http.ResponseWriter) bool {
	if a.clients == nil || a.processes == nil {
		writeError(w, http.StatusNotFound, "not_found", "linked entities are not available", nil)
		return false
	}
	return true
}

// ClientsList returns all clients.
func (a *API) ClientsList(w http.ResponseWriter, r *http.Request) {
	if !a.partiesEnabled(w) {
		return
	}
	clients, err := a.clients.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// ClientCreate registers a client whose data can auto-fill templates.
func (a *API) ClientCreate(w http.ResponseWriter, r *http.Request) {
	if !a.partiesEnabled(w) {
		return
	}
	var req clientRequest
	if !a.decode(w, r, &req) {
		return
	}
	created, err := a.clients.Create(r.Context(), &models.Client{
		Name:     strings.TrimSpace(req.Name),
		Document: req.Document,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		City:     req.City,
		State:    strings.ToUpper(req.State),
		ZipCode:  req.ZipCode,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ProcessesList returns all court processes.
func (a *API) ProcessesList(w http.ResponseWriter, r *http.Request) {
	if !a.partiesEnabled(w) {
		return
	}
	processes, err := a.processes.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processes)
}

// ProcessCreate registers a court process.
func (a *API) ProcessCreate(w http.ResponseWriter, r *http.Request) {
	if !a.partiesEnabled(w) {
		return
	}
	var req processRequest
	if !a.decode(w, r, &req) {
		return
	}
	created, err := a.processes.Create(r.Context(), &models.Process{
		ClientID:      req.ClientID,
		Number:        strings.TrimSpace(req.Number),
		Court:         req.Court,
		Subject:       req.Subject,
		OpposingParty: req.OpposingParty,
		Judge:         req.Judge,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
