// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fieldkey derives and validates the keys template fields are
// referenced by inside placeholders.
package fieldkey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"lexdesk/internal/placeholder"
)

var (
	ErrInvalid   = errors.New("invalid field key")
	ErrReserved  = errors.New("field key is reserved")
	ErrDuplicate = errors.New("duplicate field key")
)

var (
	// validKey is the shape every key must have to be usable in {{...}}.
	validKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// nonKeyChars matches anything that isn't a letter, digit, underscore or space.
	nonKeyChars = regexp.MustCompile(`[^a-z0-9_\s-]`)
	// separators collapses runs of whitespace, hyphens and underscores.
	separators = regexp.MustCompile(`[\s_-]+`)
)

var reserved = placeholder.DefaultRegistry()

// Derive builds a key from a human label.
// Example: "Nome do Cliente" → "nome_do_cliente"
func Derive(label string) string {
	result := strings.ToLower(strings.TrimSpace(stripAccents(label)))
	result = nonKeyChars.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "_")
	result = strings.Trim(result, "_")
	if result != "" && result[0] >= '0' && result[0] <= '9' {
		result = "_" + result
	}
	return result
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Validate checks that key is well formed and not a system variable name.
func Validate(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalid, key)
	}
	if reserved.IsSystem(key) {
		return fmt.Errorf("%w: %q", ErrReserved, key)
	}
	return nil
}

// CheckUnique returns an error naming the first key that appears twice.
func CheckUnique(keys []string) error {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			return fmt.Errorf("%w: %q", ErrDuplicate, k)
		}
		seen[k] = true
	}
	return nil
}
