package import_feature

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionNotFound   = errors.New("import session not found")
	ErrIllegalTransition = errors.New("illegal workflow transition")
	ErrWrongStep         = errors.New("operation not allowed in the current step")
	ErrUnknownField      = errors.New("unknown target field")
	ErrUnknownColumn     = errors.New("unknown source column")
	ErrRowOutOfRange     = errors.New("row out of range")
	ErrMissingFile       = errors.New("file is required")
	ErrUnsupportedFile   = errors.New("unsupported file type: upload a .csv or .xlsx file")
	ErrUnsupportedEntity = errors.New("unsupported target entity")
	ErrPollCancelled     = errors.New("import status polling cancelled")
	ErrPollGaveUp        = errors.New("import status polling gave up")
	ErrNoReport          = errors.New("no import status available yet")
)

// ValidationError is the first mandatory-field violation found before commit.
type ValidationError struct {
	Row        int // 1-based
	Fieldname  string
	FieldLabel string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Row %d: %s is mandatory", e.Row, e.FieldLabel)
}

// AbortError is returned when the backend reported warnings before processing rows.
type AbortError struct {
	Messages []string
}

func (e *AbortError) Error() string {
	return strings.Join(e.Messages, "\n")
}
