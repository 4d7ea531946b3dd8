// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers of the LexDesk API.
// Handlers receive their dependencies through the API struct and map
// domain errors to the shared error envelope.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"lexdesk/internal/delivery"
	"lexdesk/internal/engine"
	"lexdesk/internal/execution"
	"lexdesk/internal/fieldkey"
	"lexdesk/internal/fieldtype"
	"lexdesk/internal/models"
	"lexdesk/internal/store"
)

// TemplateRepository persists templates.
type TemplateRepository interface {
	List(ctx context.Context) ([]models.TemplateDefinition, error)
	FindWithFields(ctx context.Context, id uuid.UUID) (*models.TemplateDefinition, error)
	Create(ctx context.Context, t *models.TemplateDefinition) (*models.TemplateDefinition, error)
	Update(ctx context.Context, t *models.TemplateDefinition) (*models.TemplateDefinition, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FieldRepository persists template fields.
type FieldRepository interface {
	Create(ctx context.Context, f *models.FieldDefinition) (*models.FieldDefinition, error)
	Update(ctx context.Context, f *models.FieldDefinition) (*models.FieldDefinition, error)
	Delete(ctx context.Context, templateID, id uuid.UUID) error
}

// ExecutionRepository reads execution records.
type ExecutionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ExecutionRecord, error)
	ListByTemplate(ctx context.Context, templateID uuid.UUID, limit, offset int) ([]models.ExecutionRecord, error)
	Stats(ctx context.Context, templateID uuid.UUID) (*models.DeliveryStats, error)
}

// Retrier re-attempts a failed delivery.
type Retrier interface {
	Retry(ctx context.Context, id uuid.UUID) (*models.ExecutionRecord, error)
}

// DocumentCache caches rendered HTML documents.
type DocumentCache interface {
	Get(ctx context.Context, executionID uuid.UUID) ([]byte, bool)
	Set(ctx context.Context, executionID uuid.UUID, html []byte)
}

// DocumentArchive hands out links to archived documents.
type DocumentArchive interface {
	PresignedURL(ctx context.Context, executionID uuid.UUID, expires time.Duration) (string, error)
}

// ClientRepository and ProcessRepository back the linked-entity endpoints.
type ClientRepository interface {
	List(ctx context.Context) ([]models.Client, error)
	Create(ctx context.Context, c *models.Client) (*models.Client, error)
}

type ProcessRepository interface {
	List(ctx context.Context) ([]models.Process, error)
	Create(ctx context.Context, p *models.Process) (*models.Process, error)
}

// API groups all HTTP handlers and their dependencies.
type API struct {
	templates  TemplateRepository
	fields     FieldRepository
	executions ExecutionRepository
	manager    *execution.Manager
	engine     *engine.Engine
	retrier    Retrier

	// Optional.
	documents DocumentCache
	archive   DocumentArchive
	clients   ClientRepository
	processes ProcessRepository
	health    map[string]HealthCheck

	validate *validator.Validate
}

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

// NewAPI creates the handler group.
func NewAPI(templates TemplateRepository, fields FieldRepository, executions ExecutionRepository, manager *execution.Manager, eng *engine.Engine, retrier Retrier) *API {
	return &API{
		templates:  templates,
		fields:     fields,
		executions: executions,
		manager:    manager,
		engine:     eng,
		retrier:    retrier,
		validate:   newValidator(),
	}
}

// SetDocumentCache enables Valkey caching of HTML documents.
func (a *API) SetDocumentCache(c DocumentCache) { a.documents = c }

// SetArchive enables format=archive links on the document endpoint.
func (a *API) SetArchive(ar DocumentArchive) { a.archive = ar }

// SetParties enables the client and process endpoints.
func (a *API) SetParties(clients ClientRepository, processes ProcessRepository) {
	a.clients = clients
	a.processes = processes
}

// SetHealthChecks registers the dependencies /health pings.
func (a *API) SetHealthChecks(checks map[string]HealthCheck) { a.health = checks }

const healthTimeout = 2 * time.Second

// Health reports liveness, plus the state of every registered dependency.
// Any failing check turns the response into a 503.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	if len(a.health) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(a.health))
	for name, check := range a.health {
		if err := check(ctx); err != nil {
			slog.Warn("health check failed", "check", name, "error", err)
			results[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": results})
}

// apiError is the body of every non-2xx response.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, map[string]apiError{
		"error": {Code: code, Message: message, Details: details},
	})
}

// fail maps err to a status code and writes the error envelope.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *execution.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Error(), verr.Errors)
	case errors.Is(err, fieldkey.ErrInvalid), errors.Is(err, fieldkey.ErrReserved), errors.Is(err, fieldkey.ErrDuplicate),
		errors.Is(err, fieldtype.ErrUnsupportedType), errors.Is(err, fieldtype.ErrInvalidPattern), errors.Is(err, fieldtype.ErrInvalidRange):
		writeError(w, http.StatusUnprocessableEntity, "invalid_field", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, delivery.ErrInvalidTransition), errors.Is(err, store.ErrStatusConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal Server Error", nil)
	}
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and runs struct validation. It writes
// the error response itself and reports whether the caller may continue.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("malformed JSON: %v", err), nil)
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request", "request validation failed", requestErrors(ve))
			return false
		}
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return false
	}
	return true
}

// uuidParam parses a chi URL parameter as a UUID, writing 400 on failure.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
