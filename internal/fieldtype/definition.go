package fieldtype

import (
	"errors"
	"fmt"
	"strings"

	"lexdesk/internal/fieldkey"
	"lexdesk/internal/models"
)

var (
	ErrUnsupportedType = errors.New("unsupported field type")
	ErrInvalidPattern  = errors.New("invalid validation pattern")
	ErrInvalidRange    = errors.New("invalid field range")
)

// Normalize fills derived defaults on a field about to be saved: a key
// derived from the label and the text type.
func Normalize(f *models.FieldDefinition) {
	f.Label = strings.TrimSpace(f.Label)
	f.Key = strings.TrimSpace(f.Key)
	if f.Key == "" {
		f.Key = fieldkey.Derive(f.Label)
	}
	if f.Type == "" {
		f.Type = models.FieldTypeText
	}
}

// CheckDefinition reports why f cannot be saved, or nil.
func CheckDefinition(f *models.FieldDefinition) error {
	if err := fieldkey.Validate(f.Key); err != nil {
		return err
	}
	if !Supported(f.Type) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, f.Type)
	}
	if f.Options.Min != nil && f.Options.Max != nil && *f.Options.Min > *f.Options.Max {
		return fmt.Errorf("%w: min %v is greater than max %v", ErrInvalidRange, *f.Options.Min, *f.Options.Max)
	}
	if vr := f.ValidationRules; vr != nil {
		if vr.MinLength != nil && vr.MaxLength != nil && *vr.MinLength > *vr.MaxLength {
			return fmt.Errorf("%w: minLength %d is greater than maxLength %d", ErrInvalidRange, *vr.MinLength, *vr.MaxLength)
		}
		if vr.Pattern != "" {
			if _, err := CompilePattern(vr.Pattern); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
			}
		}
	}
	return nil
}

// CheckDefinitions checks every field and rejects duplicate keys.
func CheckDefinitions(fields []models.FieldDefinition) error {
	keys := make([]string, len(fields))
	for i := range fields {
		if err := CheckDefinition(&fields[i]); err != nil {
			return fmt.Errorf("field %q: %w", fields[i].Key, err)
		}
		keys[i] = fields[i].Key
	}
	return fieldkey.CheckUnique(keys)
}
