// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package placeholder finds {{name}} placeholders in template bodies and
// sorts them into system variables, defined fields, and orphans.
package placeholder

import (
	"regexp"
	"strings"
)

// Pattern matches one placeholder. The capture is everything between the
// delimiters up to the first closing brace; callers trim it.
var Pattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Scan returns the unique placeholder names in body, in first-occurrence
// order. Names are case-sensitive and trimmed. Placeholders whose trimmed
// name is empty are ignored and stay in the body as literal text.
func Scan(body string) []string {
	matches := Pattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return []string{}
	}

	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Replace calls resolve for every placeholder occurrence in body and
// substitutes its result. When resolve returns ok=false the occurrence is
// left untouched.
func Replace(body string, resolve func(name string) (string, bool)) string {
	return Pattern.ReplaceAllStringFunc(body, func(match string) string {
		inner := match[2 : len(match)-2]
		name := strings.TrimSpace(inner)
		if name == "" {
			return match
		}
		value, ok := resolve(name)
		if !ok {
			return match
		}
		return value
	})
}
