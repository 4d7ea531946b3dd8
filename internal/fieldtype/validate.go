// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package fieldtype

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"lexdesk/internal/models"
)

// FieldError is a validation failure for one field. Field is the key.
type FieldError struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// rule is the formatting and type-check pair for one field type. check
// returns an empty string when the value is acceptable.
type rule struct {
	format func(any) string
	check  func(v any, f *models.FieldDefinition) string
}

// Dates and times have no check: unparseable input is accepted and
// rendered as typed.
var rules = map[models.FieldType]rule{
	models.FieldTypeText:          {format: formatText},
	models.FieldTypeTextarea:      {format: formatText},
	models.FieldTypeEmail:         {format: formatText, check: checkEmail},
	models.FieldTypeNumber:        {format: formatNumber, check: checkRange},
	models.FieldTypeCurrency:      {format: formatCurrency, check: checkRange},
	models.FieldTypePercentage:    {format: formatPercentage, check: checkRange},
	models.FieldTypeDate:          {format: timeFormatter(dateLayouts, "02/01/2006")},
	models.FieldTypeDateTime:      {format: timeFormatter(dateTimeLayouts, "02/01/2006 15:04")},
	models.FieldTypeTime:          {format: timeFormatter(timeLayouts, "15:04")},
	models.FieldTypeCPF:           {format: formatCPF, check: checkDigits(11)},
	models.FieldTypeCNPJ:          {format: formatCNPJ, check: checkDigits(14)},
	models.FieldTypePhone:         {format: formatPhone, check: checkPhone},
	models.FieldTypeCEP:           {format: formatCEP},
	models.FieldTypeSelect:        {format: formatText, check: checkChoice},
	models.FieldTypeMultiSelect:   {format: formatMultiSelect, check: checkChoices},
	models.FieldTypeCheckbox:      {format: formatCheckbox},
	models.FieldTypeProcessNumber: {format: formatProcessNumber},
}

// Supported reports whether t has an entry in the rule table.
func Supported(t models.FieldType) bool {
	_, ok := rules[t]
	return ok
}

// IsEmpty reports whether a value counts as "not filled". An unchecked
// checkbox is empty, so a required checkbox must be ticked.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case bool:
		return !x
	}
	return false
}

// IsMissing is IsEmpty for a value of field type t. A checkbox is missing
// when it reads as unchecked in any accepted form, "false" included.
func IsMissing(v any, t models.FieldType) bool {
	if t == models.FieldTypeCheckbox {
		if checked, ok := parseBool(v); ok {
			return !checked
		}
	}
	return IsEmpty(v)
}

// Validate checks data against fields in declaration order and returns
// every failure found. A missing required value produces a single error
// for that field and skips its other checks.
func Validate(fields []models.FieldDefinition, data map[string]any) []FieldError {
	errs := []FieldError{}
	for i := range fields {
		f := &fields[i]
		label := f.DisplayLabel()
		value, present := data[f.Key]

		if !present || IsMissing(value, f.Type) {
			if f.IsRequired {
				errs = append(errs, FieldError{Field: f.Key, Label: label, Message: label + " is required"})
			}
			continue
		}

		if r, ok := rules[f.Type]; ok && r.check != nil {
			if msg := r.check(value, f); msg != "" {
				errs = append(errs, FieldError{Field: f.Key, Label: label, Message: msg})
			}
		}

		for _, msg := range checkCustom(value, f) {
			errs = append(errs, FieldError{Field: f.Key, Label: label, Message: msg})
		}
	}
	return errs
}

// emailRe is deliberately loose: something@something.tld without spaces.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func checkEmail(v any, f *models.FieldDefinition) string {
	if !emailRe.MatchString(strings.TrimSpace(RawString(v))) {
		return f.DisplayLabel() + " must be a valid email address"
	}
	return ""
}

func checkDigits(n int) func(any, *models.FieldDefinition) string {
	return func(v any, f *models.FieldDefinition) string {
		if len(DigitsOnly(RawString(v))) != n {
			return fmt.Sprintf("%s must have %d digits", f.DisplayLabel(), n)
		}
		return ""
	}
}

func checkPhone(v any, f *models.FieldDefinition) string {
	n := len(DigitsOnly(RawString(v)))
	if n != 10 && n != 11 {
		return f.DisplayLabel() + " must have 10 or 11 digits"
	}
	return ""
}

func checkRange(v any, f *models.FieldDefinition) string {
	n, ok := ParseNumber(v)
	if !ok {
		return ""
	}
	if f.Options.Min != nil && n < *f.Options.Min {
		return fmt.Sprintf("%s must be at least %s", f.DisplayLabel(), RawString(*f.Options.Min))
	}
	if f.Options.Max != nil && n > *f.Options.Max {
		return fmt.Sprintf("%s must be at most %s", f.DisplayLabel(), RawString(*f.Options.Max))
	}
	return ""
}

func hasChoice(f *models.FieldDefinition, value string) bool {
	for _, c := range f.Options.Choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

func checkChoice(v any, f *models.FieldDefinition) string {
	if len(f.Options.Choices) == 0 {
		return ""
	}
	if !hasChoice(f, RawString(v)) {
		return f.DisplayLabel() + " has an invalid option"
	}
	return ""
}

func checkChoices(v any, f *models.FieldDefinition) string {
	if len(f.Options.Choices) == 0 {
		return ""
	}
	values, ok := listValues(v)
	if !ok {
		values = []string{RawString(v)}
	}
	for _, value := range values {
		if !hasChoice(f, value) {
			return f.DisplayLabel() + " has an invalid option"
		}
	}
	return ""
}

// checkCustom applies author rules. For a multiselect, lengths count
// selections and the pattern must match every selected value.
func checkCustom(v any, f *models.FieldDefinition) []string {
	vr := f.ValidationRules
	if vr == nil {
		return nil
	}
	label := f.DisplayLabel()

	values, isList := listValues(v)
	var n int
	unit := "characters"
	if isList {
		n, unit = len(values), "selections"
	} else {
		values = []string{RawString(v)}
		n = utf8.RuneCountInString(values[0])
	}

	var msgs []string
	if vr.MinLength != nil && n < *vr.MinLength {
		msgs = append(msgs, fmt.Sprintf("%s must have at least %d %s", label, *vr.MinLength, unit))
	}
	if vr.MaxLength != nil && n > *vr.MaxLength {
		msgs = append(msgs, fmt.Sprintf("%s must have at most %d %s", label, *vr.MaxLength, unit))
	}
	if vr.Pattern != "" {
		re, err := CompilePattern(vr.Pattern)
		// Invalid patterns are rejected when the field is saved; one that
		// slipped through is ignored rather than blocking every execution.
		if err == nil {
			for _, s := range values {
				if !re.MatchString(s) {
					msgs = append(msgs, label+" has an invalid format")
					break
				}
			}
		}
	}
	return msgs
}

// listValues returns the items of a list value as strings.
func listValues(v any) ([]string, bool) {
	switch items := v.(type) {
	case []string:
		return items, true
	case []any:
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = RawString(item)
		}
		return out, true
	}
	return nil, false
}

var patternCache sync.Map // pattern string -> *regexp.Regexp

// CompilePattern compiles a custom validation pattern anchored to match
// the whole value.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	patternCache.Store(pattern, re)
	return re, nil
}
