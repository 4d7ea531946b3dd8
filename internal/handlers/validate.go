// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"lexdesk/internal/fieldtype"
)

// Validation limits for request bodies.
const (
	maxTemplateNameLen = 200
	maxCategoryLen     = 100
	maxBodyLen         = 500_000
	maxURLLen          = 2_000
	maxLabelLen        = 200
	maxDefaultLen      = 10_000
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so details match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requestErrors converts validator errors into the same shape as field
// value errors.
func requestErrors(ve validator.ValidationErrors) []fieldtype.FieldError {
	out := make([]fieldtype.FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fieldtype.FieldError{
			Field:   fe.Namespace()[strings.IndexByte(fe.Namespace(), '.')+1:],
			Label:   fe.Field(),
			Message: describe(fe),
		})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "url", "http_url":
		return fe.Field() + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
