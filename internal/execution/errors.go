package execution

import (
	"fmt"

	"lexdesk/internal/fieldtype"
)

// ValidationError is returned by Execute when filled data fails
// validation. No record has been written.
type ValidationError struct {
	Errors []fieldtype.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0].Message
	}
	return fmt.Sprintf("validation failed: %d field errors", len(e.Errors))
}
