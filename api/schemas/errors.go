package schemas

import (
	"errors"
	"fmt"
)

// -- Sentinel Errors --

var (
	// ErrElementNotFound is returned by a Page or Element lookup when nothing
	// matches the locator.
	ErrElementNotFound = errors.New("element not found")
	// ErrNotInteractable is returned when an element exists but cannot receive
	// keys or clicks (hidden, disabled, covered).
	ErrNotInteractable = errors.New("element not interactable")
	// ErrPageUnavailable is returned when the browser did not answer a lookup,
	// so nothing is known about the element.
	ErrPageUnavailable = errors.New("page did not respond")
	// ErrUserCancelled means the operator dismissed an input dialog.
	ErrUserCancelled = errors.New("cancelled by operator")
	// ErrRunCancelled means the operator chose Cancel at a retry prompt.
	ErrRunCancelled = errors.New("run cancelled by operator")
	// ErrRetriesExhausted means a configured attempt bound was reached.
	ErrRetriesExhausted = errors.New("retry attempts exhausted")
)

// IsRecoverable reports whether err is a transient page-state failure that
// should be escalated to the operator.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrElementNotFound) ||
		errors.Is(err, ErrNotInteractable) ||
		errors.Is(err, ErrPageUnavailable)
}

// IsCancellation reports whether err ends the run at the operator's request.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrUserCancelled) || errors.Is(err, ErrRunCancelled)
}

// -- Typed Errors --

// FormatError reports a batch line that does not split into two columns.
type FormatError struct {
	Line   int
	Fields int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: expected 2 tab-separated columns, got %d", e.Line, e.Fields)
}

// ValidationError reports a phone number that is not a valid line for the
// region. Number is rendered in national display format.
type ValidationError struct {
	Number string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid phone number: %s", e.Number)
}
