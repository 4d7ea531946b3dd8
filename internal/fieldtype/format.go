// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fieldtype holds the per-type formatting and validation rules for
// template field values. Every supported models.FieldType has exactly one
// entry in the rule table; adding a type means adding one entry there.
package fieldtype

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"lexdesk/internal/models"
)

// printer formats numbers with the pt-BR grouping and decimal separators.
var printer = message.NewPrinter(language.BrazilianPortuguese)

// Format renders a raw field value for display in a generated document.
// It never fails: on any internal problem it returns the value's plain
// string representation.
func Format(value any, t models.FieldType) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("field format panic, using raw value", "type", t, "error", rec)
			out = RawString(value)
		}
	}()

	if value == nil {
		return ""
	}
	rule, ok := rules[t]
	if !ok || rule.format == nil {
		return RawString(value)
	}
	return rule.format(value)
}

// RawString converts a value to its plain string representation.
func RawString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = RawString(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func formatText(v any) string { return RawString(v) }

func formatNumber(v any) string {
	f, ok := ParseNumber(v)
	if !ok {
		return RawString(v)
	}
	return printer.Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
}

func formatCurrency(v any) string {
	f, ok := ParseNumber(v)
	if !ok {
		f = 0
	}
	s := printer.Sprint(number.Decimal(math.Abs(f), number.Scale(2)))
	if f < 0 {
		return "-R$ " + s
	}
	return "R$ " + s
}

func formatPercentage(v any) string {
	f, ok := ParseNumber(v)
	if !ok {
		return "0%"
	}
	return printer.Sprint(number.Decimal(f, number.MaxFractionDigits(2))) + "%"
}

// Accepted input layouts for date-like values, most specific first.
var (
	dateLayouts     = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "02/01/2006"}
	dateTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04", "02/01/2006 15:04"}
	timeLayouts     = []string{"15:04", "15:04:05", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}
)

func parseTime(v any, layouts []string) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func timeFormatter(layouts []string, out string) func(any) string {
	return func(v any) string {
		t, ok := parseTime(v, layouts)
		if !ok {
			return RawString(v)
		}
		return t.Format(out)
	}
}

// maskDigits applies a digit grouping when the trimmed input is made only
// of digits and has exactly the expected length. Anything else, including
// an already-masked value, passes through unchanged.
func maskDigits(groups []int, seps []string) func(any) string {
	total := 0
	for _, g := range groups {
		total += g
	}
	return func(v any) string {
		raw := RawString(v)
		s := strings.TrimSpace(raw)
		if len(s) != total || !isAllDigits(s) {
			return raw
		}
		var b strings.Builder
		pos := 0
		for i, g := range groups {
			if i > 0 {
				b.WriteString(seps[i-1])
			}
			b.WriteString(s[pos : pos+g])
			pos += g
		}
		return b.String()
	}
}

var (
	formatCPF           = maskDigits([]int{3, 3, 3, 2}, []string{".", ".", "-"})
	formatCNPJ          = maskDigits([]int{2, 3, 3, 4, 2}, []string{".", ".", "/", "-"})
	formatCEP           = maskDigits([]int{5, 3}, []string{"-"})
	formatProcessNumber = maskDigits([]int{7, 2, 4, 1, 2, 4}, []string{"-", ".", ".", ".", "."})
)

func formatPhone(v any) string {
	raw := RawString(v)
	d := DigitsOnly(raw)
	switch len(d) {
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	default:
		return raw
	}
}

func formatMultiSelect(v any) string {
	switch items := v.(type) {
	case []string:
		return strings.Join(items, ", ")
	case []any:
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, RawString(item))
		}
		return strings.Join(parts, ", ")
	default:
		return RawString(v)
	}
}

func formatCheckbox(v any) string {
	b, ok := parseBool(v)
	if !ok {
		return RawString(v)
	}
	if b {
		return "Sim"
	}
	return "Não"
}

// ParseNumber interprets v as a float. Strings may use either "." or the
// pt-BR "," as decimal separator ("1.234,56" and "1234.56" both parse).
func ParseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, !math.IsNaN(f) && !math.IsInf(f, 0)
		}
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

func parseBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "on", "yes", "sim":
			return true, true
		case "false", "0", "off", "no", "não", "nao", "":
			return false, true
		}
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	}
	return false, false
}

// DigitsOnly strips every non-digit character.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
