// internal/browser/jsbind/selector.go
package jsbind

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// translateCSSToXPath converts a CSS selector list into an XPath union. Supported:
// type and universal selectors, #id, .class, attribute selectors ([a], [a=v], [a~=v],
// [a|=v], [a^=v], [a$=v], [a*=v]), :first-child, :last-child, :only-child, and the
// descendant, child, adjacent and general sibling combinators. When scoped is true the
// paths are relative to the context node.
func translateCSSToXPath(css string, scoped bool) (string, error) {
	css = strings.TrimSpace(css)
	if css == "" {
		return "", &SelectorError{Selector: css, Reason: "empty selector"}
	}
	groups, err := splitTopLevel(css, ',')
	if err != nil {
		return "", &SelectorError{Selector: css, Reason: err.Error()}
	}
	prefix := "//"
	if scoped {
		prefix = ".//"
	}
	branches := make([]string, 0, len(groups))
	for _, g := range groups {
		x, err := translateComplex(strings.TrimSpace(g), prefix)
		if err != nil {
			return "", &SelectorError{Selector: css, Reason: err.Error()}
		}
		branches = append(branches, x)
	}
	return strings.Join(branches, " | "), nil
}

type selectorLexer struct {
	src string
	pos int
}

func (l *selectorLexer) eof() bool { return l.pos >= len(l.src) }

func (l *selectorLexer) peek() byte { return l.src[l.pos] }

func (l *selectorLexer) skipSpace() bool {
	start := l.pos
	for !l.eof() && isSpace(l.peek()) {
		l.pos++
	}
	return l.pos > start
}

func (l *selectorLexer) ident() string {
	start := l.pos
	for !l.eof() {
		c := l.peek()
		if c == '-' || c == '_' || c >= 0x80 || (c >= '0' && c <= '9') || (c|0x20 >= 'a' && c|0x20 <= 'z') {
			l.pos++
			continue
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		break
	}
	return strings.ReplaceAll(l.src[start:l.pos], `\`, "")
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' }

// translateComplex handles one complex selector (compounds joined by combinators).
func translateComplex(sel, prefix string) (string, error) {
	if sel == "" {
		return "", fmt.Errorf("empty selector in list")
	}
	l := &selectorLexer{src: sel}
	var sb strings.Builder
	sb.WriteString(prefix)
	first := true
	for {
		compound, err := translateCompound(l)
		if err != nil {
			return "", err
		}
		sb.WriteString(compound)
		first = false

		hadSpace := l.skipSpace()
		if l.eof() {
			break
		}
		switch l.peek() {
		case '>':
			l.pos++
			sb.WriteString("/")
		case '+':
			l.pos++
			// following-sibling::*[1] is the immediately following element.
			sb.WriteString("/following-sibling::*[1]/self::")
		case '~':
			l.pos++
			sb.WriteString("/following-sibling::")
		default:
			if !hadSpace {
				return "", fmt.Errorf("unexpected %q at offset %d", l.peek(), l.pos)
			}
			sb.WriteString("//")
		}
		l.skipSpace()
		if l.eof() {
			return "", fmt.Errorf("dangling combinator")
		}
	}
	if first {
		return "", fmt.Errorf("empty selector")
	}
	return sb.String(), nil
}

// translateCompound reads one compound selector and renders it as a node test followed
// by predicates.
func translateCompound(l *selectorLexer) (string, error) {
	tag := "*"
	var preds []string
	read := false

	if !l.eof() {
		switch c := l.peek(); {
		case c == '*':
			l.pos++
			read = true
		case c != '#' && c != '.' && c != '[' && c != ':':
			name := l.ident()
			if name == "" {
				return "", fmt.Errorf("unexpected %q at offset %d", c, l.pos)
			}
			tag = strings.ToLower(name)
			read = true
		}
	}

	for !l.eof() {
		switch l.peek() {
		case '#':
			l.pos++
			id := l.ident()
			if id == "" {
				return "", fmt.Errorf("empty id selector")
			}
			preds = append(preds, "@id="+xpathLiteral(id))
		case '.':
			l.pos++
			class := l.ident()
			if class == "" {
				return "", fmt.Errorf("empty class selector")
			}
			preds = append(preds, classPredicate(class))
		case '[':
			p, err := attributePredicate(l)
			if err != nil {
				return "", err
			}
			preds = append(preds, p)
		case ':':
			l.pos++
			name := strings.ToLower(l.ident())
			switch name {
			case "first-child":
				preds = append(preds, "not(preceding-sibling::*)")
			case "last-child":
				preds = append(preds, "not(following-sibling::*)")
			case "only-child":
				preds = append(preds, "(not(preceding-sibling::*) and not(following-sibling::*))")
			case "checked":
				preds = append(preds, "(@checked or @selected)")
			case "disabled":
				preds = append(preds, "@disabled")
			default:
				return "", fmt.Errorf("unsupported pseudo-class :%s", name)
			}
		default:
			if !read && len(preds) == 0 {
				return "", fmt.Errorf("unexpected %q at offset %d", l.peek(), l.pos)
			}
			return render(tag, preds), nil
		}
		read = true
	}
	if !read {
		return "", fmt.Errorf("empty compound selector")
	}
	return render(tag, preds), nil
}

func render(tag string, preds []string) string {
	if len(preds) == 0 {
		return tag
	}
	return tag + "[" + strings.Join(preds, " and ") + "]"
}

func classPredicate(class string) string {
	return fmt.Sprintf("contains(concat(' ', normalize-space(@class), ' '), %s)", xpathLiteral(" "+class+" "))
}

func attributePredicate(l *selectorLexer) (string, error) {
	l.pos++ // [
	l.skipSpace()
	name := strings.ToLower(l.ident())
	if name == "" {
		return "", fmt.Errorf("missing attribute name")
	}
	l.skipSpace()
	if l.eof() {
		return "", fmt.Errorf("unterminated attribute selector")
	}
	if l.peek() == ']' {
		l.pos++
		return "@" + name, nil
	}

	op := ""
	if c := l.peek(); c == '~' || c == '|' || c == '^' || c == '$' || c == '*' {
		op = string(c)
		l.pos++
	}
	if l.eof() || l.peek() != '=' {
		return "", fmt.Errorf("malformed attribute selector")
	}
	l.pos++
	l.skipSpace()

	var value string
	if l.eof() {
		return "", fmt.Errorf("unterminated attribute selector")
	}
	if q := l.peek(); q == '"' || q == '\'' {
		end := strings.IndexByte(l.src[l.pos+1:], q)
		if end < 0 {
			return "", fmt.Errorf("unterminated string in attribute selector")
		}
		value = l.src[l.pos+1 : l.pos+1+end]
		l.pos += end + 2
	} else {
		value = l.ident()
	}
	l.skipSpace()
	if l.eof() || l.peek() != ']' {
		return "", fmt.Errorf("unterminated attribute selector")
	}
	l.pos++

	attr := "@" + name
	lit := xpathLiteral(value)
	switch op {
	case "":
		return attr + "=" + lit, nil
	case "~":
		return fmt.Sprintf("contains(concat(' ', normalize-space(%s), ' '), %s)", attr, xpathLiteral(" "+value+" ")), nil
	case "|":
		return fmt.Sprintf("(%s=%s or starts-with(%s, %s))", attr, lit, attr, xpathLiteral(value+"-")), nil
	case "^":
		return fmt.Sprintf("starts-with(%s, %s)", attr, lit), nil
	case "$":
		return fmt.Sprintf("(string-length(%s) >= %d and substring(%s, string-length(%s) - %d) = %s)",
			attr, len(value), attr, attr, len(value)-1, lit), nil
	default: // "*"
		return fmt.Sprintf("contains(%s, %s)", attr, lit), nil
	}
}

// splitTopLevel splits s on sep outside of brackets and quotes.
func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if quote != 0 || depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets or quotes")
	}
	return append(parts, s[start:]), nil
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// queryAll evaluates selector against root and returns matches in document order.
func queryAll(root *html.Node, selector string, scoped bool) ([]*html.Node, error) {
	xpath, err := translateCSSToXPath(selector, scoped)
	if err != nil {
		return nil, err
	}
	nodes, err := htmlquery.QueryAll(root, xpath)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Reason: err.Error()}
	}
	elements := nodes[:0]
	seen := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		if n.Type == html.ElementNode && !seen[n] {
			seen[n] = true
			elements = append(elements, n)
		}
	}
	if strings.Contains(xpath, " | ") {
		sortDocumentOrder(root, elements)
	}
	return elements, nil
}

// queryFirst returns the first match of selector in document order, or nil.
func queryFirst(root *html.Node, selector string, scoped bool) (*html.Node, error) {
	nodes, err := queryAll(root, selector, scoped)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

func sortDocumentOrder(root *html.Node, nodes []*html.Node) {
	index := make(map[*html.Node]int)
	i := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		index[n] = i
		i++
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	sort.SliceStable(nodes, func(a, b int) bool { return index[nodes[a]] < index[nodes[b]] })
}
