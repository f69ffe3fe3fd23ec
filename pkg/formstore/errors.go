package formstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotEditable is returned when a mutation arrives while the document is
	// empty, hydrating or already submitted.
	ErrNotEditable = errors.New("formstore: document is not editable")
	// ErrInvalidTransition signals a lifecycle change the current status does
	// not allow.
	ErrInvalidTransition = errors.New("formstore: invalid status transition")
)

// PathError reports a path that does not exist on the current document shape,
// or a value whose shape does not match the node it would replace. It marks a
// broken form binding rather than bad user input.
type PathError struct {
	Path   Path
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("formstore: path %q: %s", e.Path.String(), e.Reason)
}

// IndexError reports an out-of-range entry index on an array node.
type IndexError struct {
	Path  Path
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("formstore: index %d out of range for %q (len %d)", e.Index, e.Path.String(), e.Len)
}

// ValidationError identifies a user-correctable field problem found while
// normalising the document for submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("formstore: field %q: %s", e.Field, e.Message)
}

// IsContractViolation reports whether err is a PathError or IndexError.
func IsContractViolation(err error) bool {
	var pathErr *PathError
	var indexErr *IndexError
	return errors.As(err, &pathErr) || errors.As(err, &indexErr)
}

func pathError(path Path, format string, args ...any) *PathError {
	return &PathError{Path: append(Path(nil), path...), Reason: fmt.Sprintf(format, args...)}
}
