// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package placeholder

import (
	"fmt"
	"strconv"
	"time"
)

// System variable names. Template authors cannot use these as field keys.
const (
	VarToday          = "data_hoje"
	VarTodayLong      = "data_extenso"
	VarCurrentTime    = "hora_atual"
	VarCurrentYear    = "ano_atual"
	VarWorkspaceName  = "nome_workspace"
	VarCurrentUser    = "usuario_atual"
	VarSequenceNumber = "numero_sequencial"
)

// SystemContext carries the injected values system variables resolve from.
type SystemContext struct {
	Now           time.Time
	Location      *time.Location
	WorkspaceName string
	UserName      string
	// Sequence is the template execution counter for this execution.
	Sequence int64
}

func (c SystemContext) now() time.Time {
	if c.Location != nil {
		return c.Now.In(c.Location)
	}
	return c.Now
}

// SystemVariable is one engine-provided placeholder.
type SystemVariable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	resolve     func(SystemContext) string
}

// Resolve computes the variable's value for the given context.
func (v SystemVariable) Resolve(c SystemContext) string {
	return v.resolve(c)
}

var monthsPT = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// Registry is the fixed set of system variables.
type Registry struct {
	vars  []SystemVariable
	index map[string]int
}

// DefaultRegistry returns the registry of built-in system variables.
func DefaultRegistry() *Registry {
	return newRegistry([]SystemVariable{
		{Name: VarToday, Description: "Data atual (dd/mm/aaaa)", resolve: func(c SystemContext) string {
			return c.now().Format("02/01/2006")
		}},
		{Name: VarTodayLong, Description: "Data atual por extenso", resolve: func(c SystemContext) string {
			n := c.now()
			return fmt.Sprintf("%d de %s de %d", n.Day(), monthsPT[n.Month()-1], n.Year())
		}},
		{Name: VarCurrentTime, Description: "Hora atual (hh:mm)", resolve: func(c SystemContext) string {
			return c.now().Format("15:04")
		}},
		{Name: VarCurrentYear, Description: "Ano atual", resolve: func(c SystemContext) string {
			return strconv.Itoa(c.now().Year())
		}},
		{Name: VarWorkspaceName, Description: "Nome do escritório", resolve: func(c SystemContext) string {
			return c.WorkspaceName
		}},
		{Name: VarCurrentUser, Description: "Usuário que gerou o documento", resolve: func(c SystemContext) string {
			return c.UserName
		}},
		{Name: VarSequenceNumber, Description: "Número sequencial da execução", resolve: func(c SystemContext) string {
			return strconv.FormatInt(c.Sequence, 10)
		}},
	})
}

func newRegistry(vars []SystemVariable) *Registry {
	r := &Registry{vars: vars, index: make(map[string]int, len(vars))}
	for i, v := range vars {
		r.index[v.Name] = i
	}
	return r
}

// IsSystem reports whether name is a reserved system variable.
func (r *Registry) IsSystem(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Lookup returns the system variable with the given name.
func (r *Registry) Lookup(name string) (SystemVariable, bool) {
	i, ok := r.index[name]
	if !ok {
		return SystemVariable{}, false
	}
	return r.vars[i], true
}

// Resolve returns the value of a system variable, or ok=false if name is
// not a system variable.
func (r *Registry) Resolve(name string, c SystemContext) (string, bool) {
	v, ok := r.Lookup(name)
	if !ok {
		return "", false
	}
	return v.Resolve(c), true
}

// All returns the registered variables in declaration order.
func (r *Registry) All() []SystemVariable {
	out := make([]SystemVariable, len(r.vars))
	copy(out, r.vars)
	return out
}

// Names returns the reserved names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.vars))
	for i, v := range r.vars {
		names[i] = v.Name
	}
	return names
}
