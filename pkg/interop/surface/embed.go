// pkg/interop/surface/embed.go
package surface

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed surface.js
var source string

// Source returns the script-side API surface. Evaluating it more than once in the same
// realm is harmless.
func Source() (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", fmt.Errorf("embedded surface.js is empty or failed to load")
	}
	return source, nil
}

// InvokeExpression renders the expression each out-of-process strategy evaluates to run
// one call. argsJSON must already be a JSON array.
func InvokeExpression(identifier, argsJSON string) string {
	return fmt.Sprintf("globalThis.WebBind.invoke(%s, %s)", quote(identifier), quote(argsJSON))
}

// quote renders s as a JS string literal. JSON string syntax is a subset of JS string
// syntax except for U+2028/U+2029, which are escaped explicitly.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
