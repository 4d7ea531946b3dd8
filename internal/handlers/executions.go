// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lexdesk/internal/markdown"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	archiveLinkTTL = 15 * time.Minute
)

// pagination reads ?limit= and ?offset=, clamping bad values.
func pagination(r *http.Request) (limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ExecutionsList returns a template's executions, newest first.
func (a *API) ExecutionsList(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	limit, offset := pagination(r)
	records, err := a.executions.ListByTemplate(r.Context(), id, limit, offset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// TemplateStats returns delivery counts for a template.
func (a *API) TemplateStats(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	stats, err := a.executions.Stats(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ExecutionGet returns one execution record.
func (a *API) ExecutionGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	rec, err := a.executions.FindByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ExecutionDocument serves the generated content. format=text (default)
// returns it verbatim, format=html converts it and caches the page, and
// format=archive redirects to the archived copy when storage is enabled.
func (a *API) ExecutionDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "text", "html", "archive":
	default:
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown format %q", format), nil)
		return
	}

	if format == "html" && a.documents != nil {
		if page, hit := a.documents.Get(r.Context(), id); hit {
			writeHTML(w, page)
			return
		}
	}

	rec, err := a.executions.FindByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	switch format {
	case "html":
		page, err := markdown.Document(fmt.Sprintf("Execução Nº %d", rec.Sequence), rec.GeneratedContent)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if a.documents != nil {
			a.documents.Set(r.Context(), id, []byte(page))
		}
		writeHTML(w, []byte(page))
	case "archive":
		if a.archive == nil {
			writeError(w, http.StatusNotFound, "not_found", "document archive is not configured", nil)
			return
		}
		url, err := a.archive.PresignedURL(r.Context(), id, archiveLinkTTL)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(rec.GeneratedContent))
	}
}

func writeHTML(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

// ExecutionRetry re-sends a failed delivery and returns the updated record.
func (a *API) ExecutionRetry(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	rec, err := a.retrier.Retry(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	slog.Info("delivery retried", "execution_id", id, "webhook_status", rec.WebhookStatus, "retry_count", rec.RetryCount)
	writeJSON(w, http.StatusOK, rec)
}
