// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"lexdesk/internal/execution"
	"lexdesk/internal/fieldtype"
	"lexdesk/internal/identity"
	"lexdesk/internal/models"
	"lexdesk/internal/placeholder"
)

type templateRequest struct {
	Name           string         `json:"name" validate:"required,max=200"`
	Category       string         `json:"category" validate:"max=100"`
	Body           string         `json:"body" validate:"max=500000"`
	IsShared       bool           `json:"is_shared"`
	WebhookURL     string         `json:"webhook_url" validate:"omitempty,http_url,max=2000"`
	WebhookEnabled bool           `json:"webhook_enabled"`
	Fields         []fieldRequest `json:"fields" validate:"dive"`
}

// apply copies the editable template columns onto t.
func (req *templateRequest) apply(t *models.TemplateDefinition) {
	t.Name = strings.TrimSpace(req.Name)
	t.Category = strings.TrimSpace(req.Category)
	t.Body = req.Body
	t.IsShared = req.IsShared
	t.WebhookURL = strings.TrimSpace(req.WebhookURL)
	t.WebhookEnabled = req.WebhookEnabled
}

// templateResponse is a template with its variable analysis.
type templateResponse struct {
	*models.TemplateDefinition
	Analysis *placeholder.Classification `json:"analysis"`
}

// fillRequest is the body of preview and execute.
type fillRequest struct {
	Data      map[string]any `json:"data"`
	ClientID  *uuid.UUID     `json:"client_id"`
	ProcessID *uuid.UUID     `json:"process_id"`
}

// TemplatesList returns all templates. With ?q= the list is filtered and
// ranked by fuzzy match on name and category.
func (a *API) TemplatesList(w http.ResponseWriter, r *http.Request) {
	templates, err := a.templates.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, templates)
		return
	}

	searchStrings := make([]string, len(templates))
	for i, t := range templates {
		searchStrings[i] = strings.ToLower(t.Name + " " + t.Category)
	}
	matches := fuzzy.Find(strings.ToLower(q), searchStrings)

	results := make([]models.TemplateDefinition, 0, len(matches))
	for _, m := range matches {
		results = append(results, templates[m.Index])
	}
	writeJSON(w, http.StatusOK, results)
}

// TemplateCreate creates a template, optionally with its fields.
func (a *API) TemplateCreate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if !webhookConsistent(w, &req) {
		return
	}

	t := &models.TemplateDefinition{CreatedBy: identity.FromContext(r.Context()).ID}
	req.apply(t)
	for i := range req.Fields {
		f := req.Fields[i].definition()
		fieldtype.Normalize(&f)
		t.Fields = append(t.Fields, f)
	}
	if err := fieldtype.CheckDefinitions(t.Fields); err != nil {
		a.fail(w, r, err)
		return
	}

	created, err := a.templates.Create(r.Context(), t)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, templateResponse{created, a.engine.Analyze(created)})
}

// TemplateGet returns a template with its fields and variable analysis.
func (a *API) TemplateGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := a.templates.FindWithFields(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templateResponse{t, a.engine.Analyze(t)})
}

// TemplateUpdate replaces a template's editable columns. Fields are
// managed through their own endpoints and are ignored here.
func (a *API) TemplateUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req templateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if !webhookConsistent(w, &req) {
		return
	}

	t, err := a.templates.FindWithFields(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req.apply(t)

	updated, err := a.templates.Update(r.Context(), t)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.engine.InvalidateTemplate(id)
	writeJSON(w, http.StatusOK, templateResponse{updated, a.engine.Analyze(updated)})
}

// TemplateDelete removes a template and its executions.
func (a *API) TemplateDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := a.templates.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.engine.InvalidateTemplate(id)
	w.WriteHeader(http.StatusNoContent)
}

// TemplatePreview renders with markers and returns validation errors
// without blocking.
func (a *API) TemplatePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := a.fillRequest(w, r)
	if !ok {
		return
	}
	res, err := a.manager.Preview(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// TemplateExecute validates, renders and persists an execution.
func (a *API) TemplateExecute(w http.ResponseWriter, r *http.Request) {
	req, ok := a.fillRequest(w, r)
	if !ok {
		return
	}
	rec, err := a.manager.Execute(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// SystemVariables lists the placeholders the engine fills by itself.
func (a *API) SystemVariables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Registry().All())
}

func (a *API) fillRequest(w http.ResponseWriter, r *http.Request) (execution.Request, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return execution.Request{}, false
	}
	var body fillRequest
	if !a.decode(w, r, &body) {
		return execution.Request{}, false
	}
	req := execution.Request{TemplateID: id, Data: body.Data, ClientID: body.ClientID, ProcessID: body.ProcessID}
	if req.Data == nil {
		req.Data = map[string]any{}
	}
	return req, true
}

func webhookConsistent(w http.ResponseWriter, req *templateRequest) bool {
	if req.WebhookEnabled && strings.TrimSpace(req.WebhookURL) == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "webhook_url is required when webhook_enabled is set", nil)
		return false
	}
	return true
}
