// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package placeholder

import "lexdesk/internal/models"

// Kind is the classification of a placeholder name.
type Kind string

const (
	KindSystem  Kind = "system"
	KindDefined Kind = "defined"
	KindOrphan  Kind = "orphan"
)

// Classification partitions scanned names. Each name appears in exactly
// one of the lists, which keep the scan order.
type Classification struct {
	System  []string        `json:"system"`
	Defined []string        `json:"defined"`
	Orphans []string        `json:"orphans"`
	kinds   map[string]Kind
}

// KindOf returns the kind assigned to name. Names that were not part of
// the scan are reported as orphans.
func (c *Classification) KindOf(name string) Kind {
	if k, ok := c.kinds[name]; ok {
		return k
	}
	return KindOrphan
}

// Classify assigns every name to a kind. System names win over field keys.
func Classify(names []string, fields []models.FieldDefinition, reg *Registry) *Classification {
	keys := make(map[string]bool, len(fields))
	for _, f := range fields {
		keys[f.Key] = true
	}

	c := &Classification{
		System:  []string{},
		Defined: []string{},
		Orphans: []string{},
		kinds:   make(map[string]Kind, len(names)),
	}
	for _, name := range names {
		switch {
		case reg.IsSystem(name):
			c.System = append(c.System, name)
			c.kinds[name] = KindSystem
		case keys[name]:
			c.Defined = append(c.Defined, name)
			c.kinds[name] = KindDefined
		default:
			c.Orphans = append(c.Orphans, name)
			c.kinds[name] = KindOrphan
		}
	}
	return c
}
