// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders petition templates. It substitutes every
// {{placeholder}} in a template body with a system value, a formatted
// field value or a marker, in either preview or final mode.
package engine

import (
	"fmt"

	"github.com/google/uuid"

	"lexdesk/internal/fieldtype"
	"lexdesk/internal/models"
	"lexdesk/internal/placeholder"
)

// Mode selects how missing and undefined placeholders are rendered.
type Mode string

const (
	// ModePreview annotates missing required fields and orphans with
	// visible markers. Output is never stored.
	ModePreview Mode = "preview"
	// ModeFinal produces the generated content of an execution. Orphans
	// become [name]; missing optional fields become empty.
	ModeFinal Mode = "final"
)

// Markers used in preview output.
const (
	MissingMarker   = "[[MISSING: %s]]"
	UndefinedMarker = "[[UNDEFINED: %s]]"
)

// Result is the outcome of one render. It is never persisted.
type Result struct {
	Mode     Mode   `json:"mode"`
	Original string `json:"original"`
	Rendered string `json:"rendered"`
	// MissingRequired holds the labels of required fields without a value.
	MissingRequired []string `json:"missing_required"`
	Orphans         []string `json:"orphans"`
	// Values maps each resolved placeholder to the string substituted for it.
	Values map[string]string `json:"values"`
}

// Complete reports whether nothing blocks advancing past the preview step.
func (r *Result) Complete() bool {
	return len(r.MissingRequired) == 0
}

// Engine renders templates. It keeps an L1 cache of body analyses keyed by
// template ID+version; templates without an ID (local files) bypass it.
type Engine struct {
	registry *placeholder.Registry
	cache    *analysisCache
}

// New creates an engine using the given system-variable registry. A nil
// registry selects placeholder.DefaultRegistry.
func New(reg *placeholder.Registry) *Engine {
	if reg == nil {
		reg = placeholder.DefaultRegistry()
	}
	return &Engine{registry: reg, cache: newAnalysisCache()}
}

// Registry returns the system-variable registry the engine resolves from.
func (e *Engine) Registry() *placeholder.Registry {
	return e.registry
}

// Analyze scans and classifies the template body.
func (e *Engine) Analyze(t *models.TemplateDefinition) *placeholder.Classification {
	if t.ID == uuid.Nil {
		return placeholder.Classify(placeholder.Scan(t.Body), t.Fields, e.registry)
	}
	if cl := e.cache.get(t.ID, t.Version); cl != nil {
		return cl
	}
	cl := placeholder.Classify(placeholder.Scan(t.Body), t.Fields, e.registry)
	e.cache.put(t.ID, t.Version, cl)
	return cl
}

// InvalidateTemplate drops every cached analysis of a template.
func (e *Engine) InvalidateTemplate(id uuid.UUID) {
	e.cache.invalidate(id)
}

// Preview renders t with markers for anything missing. It never fails.
func (e *Engine) Preview(t *models.TemplateDefinition, data map[string]any, sys placeholder.SystemContext) *Result {
	return e.Render(ModePreview, t, data, sys)
}

// Final renders the generated content of an execution. Callers validate
// data first; a required field that is still empty renders as empty.
func (e *Engine) Final(t *models.TemplateDefinition, data map[string]any, sys placeholder.SystemContext) *Result {
	return e.Render(ModeFinal, t, data, sys)
}

// Render substitutes every placeholder occurrence in the body.
func (e *Engine) Render(mode Mode, t *models.TemplateDefinition, data map[string]any, sys placeholder.SystemContext) *Result {
	cl := e.Analyze(t)

	res := &Result{
		Mode:            mode,
		Original:        t.Body,
		MissingRequired: []string{},
		Orphans:         append([]string{}, cl.Orphans...),
		Values:          make(map[string]string),
	}

	// Resolve each distinct name once; Replace then applies the value to
	// every occurrence.
	resolved := make(map[string]string)
	for _, name := range cl.System {
		v, _ := e.registry.Resolve(name, sys)
		resolved[name] = v
		res.Values[name] = v
	}
	for _, name := range cl.Defined {
		f := t.FieldByKey(name)
		value, ok := data[name]
		switch {
		case f.IsRequired && (!ok || fieldtype.IsMissing(value, f.Type)):
			res.MissingRequired = append(res.MissingRequired, f.DisplayLabel())
			if mode == ModePreview {
				resolved[name] = fmt.Sprintf(MissingMarker, f.DisplayLabel())
			} else {
				resolved[name] = ""
			}
		case !ok || blank(value):
			resolved[name] = ""
		default:
			v := fieldtype.Format(value, f.Type)
			resolved[name] = v
			res.Values[name] = v
		}
	}
	for _, name := range cl.Orphans {
		if mode == ModePreview {
			resolved[name] = fmt.Sprintf(UndefinedMarker, name)
		} else {
			resolved[name] = "[" + name + "]"
		}
	}

	res.Rendered = placeholder.Replace(t.Body, func(name string) (string, bool) {
		v, ok := resolved[name]
		return v, ok
	})
	return res
}

// blank is IsEmpty without treating false as missing: an optional
// unchecked checkbox still renders as "Não".
func blank(v any) bool {
	if _, ok := v.(bool); ok {
		return false
	}
	return fieldtype.IsEmpty(v)
}
