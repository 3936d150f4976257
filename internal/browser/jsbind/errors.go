// internal/browser/jsbind/errors.go
package jsbind

import "fmt"

// Typed errors returned by host controls, so callers can classify failures with
// errors.As rather than matching strings.

// ElementNotFoundError is returned when a selector matches no element.
type ElementNotFoundError struct {
	Selector string
}

// Error implements the error interface by formatting the message on the fly.
func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found matching selector '%s'", e.Selector)
}

// SelectorError reports a selector the translator does not understand. Script callers
// see it as a SyntaxError DOMException.
type SelectorError struct {
	Selector string
	Reason   string
}

// Error implements the error interface.
func (e *SelectorError) Error() string {
	return fmt.Sprintf("'%s' is not a valid selector: %s", e.Selector, e.Reason)
}

// NavigationError represents a document load that could not be started.
type NavigationError struct {
	URL     string
	Message string
	Err     error // Underlying parse error
}

// Error implements the error interface.
func (e *NavigationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *NavigationError) Unwrap() error {
	return e.Err
}
