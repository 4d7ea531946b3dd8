// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"lexdesk/internal/fieldkey"
	"lexdesk/internal/fieldtype"
	"lexdesk/internal/models"
	"lexdesk/internal/store"
)

type fieldRequest struct {
	Key             string                  `json:"key" validate:"max=100"`
	Label           string                  `json:"label" validate:"required_without=Key,max=200"`
	Type            models.FieldType        `json:"type"`
	IsRequired      bool                    `json:"is_required"`
	DefaultValue    string                  `json:"default_value" validate:"max=10000"`
	DisplayOrder    int                     `json:"display_order" validate:"min=0"`
	Options         models.FieldOptions     `json:"options"`
	ValidationRules *models.ValidationRules `json:"validation_rules"`
}

func (req *fieldRequest) definition() models.FieldDefinition {
	return models.FieldDefinition{
		Key:             req.Key,
		Label:           req.Label,
		Type:            req.Type,
		IsRequired:      req.IsRequired,
		DefaultValue:    req.DefaultValue,
		DisplayOrder:    req.DisplayOrder,
		Options:         req.Options,
		ValidationRules: req.ValidationRules,
	}
}

// checkField normalizes f and rejects it when its definition is invalid or
// its key collides with another field of tmpl.
func checkField(tmpl *models.TemplateDefinition, f *models.FieldDefinition) error {
	fieldtype.Normalize(f)
	if err := fieldtype.CheckDefinition(f); err != nil {
		return fmt.Errorf("field %q: %w", f.Key, err)
	}
	for _, other := range tmpl.Fields {
		if other.ID != f.ID && other.Key == f.Key {
			return fmt.Errorf("%w: %q", fieldkey.ErrDuplicate, f.Key)
		}
	}
	return nil
}

// FieldCreate adds a field to a template. The key is derived from the
// label when omitted.
func (a *API) FieldCreate(w http.ResponseWriter, r *http.Request) {
	templateID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req fieldRequest
	if !a.decode(w, r, &req) {
		return
	}

	tmpl, err := a.templates.FindWithFields(r.Context(), templateID)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	f := req.definition()
	f.TemplateID = templateID
	if f.DisplayOrder == 0 {
		f.DisplayOrder = len(tmpl.Fields)
	}
	if err := checkField(tmpl, &f); err != nil {
		a.fail(w, r, err)
		return
	}

	created, err := a.fields.Create(r.Context(), &f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.engine.InvalidateTemplate(templateID)
	writeJSON(w, http.StatusCreated, created)
}

// FieldUpdate replaces a field's definition.
func (a *API) FieldUpdate(w http.ResponseWriter, r *http.Request) {
	templateID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	fieldID, ok := uuidParam(w, r, "fieldID")
	if !ok {
		return
	}
	var req fieldRequest
	if !a.decode(w, r, &req) {
		return
	}

	tmpl, err := a.templates.FindWithFields(r.Context(), templateID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !hasField(tmpl, fieldID) {
		a.fail(w, r, store.ErrNotFound)
		return
	}

	f := req.definition()
	f.ID = fieldID
	f.TemplateID = templateID
	if err := checkField(tmpl, &f); err != nil {
		a.fail(w, r, err)
		return
	}

	updated, err := a.fields.Update(r.Context(), &f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.engine.InvalidateTemplate(templateID)
	writeJSON(w, http.StatusOK, updated)
}

// FieldDelete removes a field. Placeholders using its key become orphans.
func (a *API) FieldDelete(w http.ResponseWriter, r *http.Request) {
	templateID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	fieldID, ok := uuidParam(w, r, "fieldID")
	if !ok {
		return
	}
	if err := a.fields.Delete(r.Context(), templateID, fieldID); err != nil {
		a.fail(w, r, err)
		return
	}
	a.engine.InvalidateTemplate(templateID)
	w.WriteHeader(http.StatusNoContent)
}

func hasField(tmpl *models.TemplateDefinition, id uuid.UUID) bool {
	for _, f := range tmpl.Fields {
		if f.ID == id {
			return true
		}
	}
	return false
}
