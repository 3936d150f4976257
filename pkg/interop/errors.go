package interop

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by strategies once Close has been called.
var ErrClosed = errors.New("interop: bridge is closed")

// ScriptError reports that the script-side function threw or its promise rejected. The
// name and message are those of the native error, untouched.
type ScriptError struct {
	Identifier string
	Name       string
	Message    string
}

// Error implements the error interface by formatting the message on the fly.
func (e *ScriptError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s", e.Identifier, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Identifier, e.Name, e.Message)
}

// IsScriptError reports whether err carries a script-side failure with the given native
// error name (e.g. "SecurityError", "TypeError"). An empty name matches any.
func IsScriptError(err error, name string) bool {
	var se *ScriptError
	if !errors.As(err, &se) {
		return false
	}
	return name == "" || se.Name == name
}
