// internal/browser/jsbind/selector_test.go
package jsbind

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestTranslateCSSToXPath(t *testing.T) {
	tests := []struct {
		css    string
		scoped bool
		want   string
	}{
		{"div", false, "//div"},
		{"*", true, ".//*"},
		{"#main", false, "//*[@id='main']"},
		{"a[href]", false, "//a[@href]"},
		{"input[type='text']", false, "//input[@type='text']"},
		{"ul > li", false, "//ul/li"},
		{"h1 + p", false, "//h1/following-sibling::*[1]/self::p"},
		{"h1 ~ p", false, "//h1/following-sibling::p"},
		{"div span", false, "//div//span"},
		{"li:first-child", false, "//li[not(preceding-sibling::*)]"},
		{"a, b", false, "//a | //b"},
	}
	for _, tt := range tests {
		t.Run(tt.css, func(t *testing.T) {
			got, err := translateCSSToXPath(tt.css, tt.scoped)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateCSSToXPath_Invalid(t *testing.T) {
	for _, css := range []string{"", "div[", "a >", "p:hover", "#", "a,,b", "[x=\"y]"} {
		t.Run(css, func(t *testing.T) {
			_, err := translateCSSToXPath(css, false)
			var selErr *SelectorError
			require.True(t, errors.As(err, &selErr), "expected a SelectorError for %q, got %v", css, err)
			assert.Equal(t, strings.TrimSpace(css), selErr.Selector)
		})
	}
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, "'plain'", xpathLiteral("plain"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))
	assert.Equal(t, `concat('a"b', "'", 'c')`, xpathLiteral(`a"b'c`))
}

func TestQueryAll_AttributeOperators(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div>
		<a id="1" href="https://x.test/a.pdf" lang="en-GB" class="x  y"></a>
		<a id="2" href="http://x.test/b.html" lang="en"></a>
		<a id="3" href="https://x.test/c.pdf" lang="fr" class="y"></a>
	</div>`))
	require.NoError(t, err)

	ids := func(sel string) string {
		nodes, err := queryAll(doc, sel, false)
		require.NoError(t, err)
		out := make([]string, len(nodes))
		for i, n := range nodes {
			out[i], _ = getAttr(n, "id")
		}
		return strings.Join(out, ",")
	}

	assert.Equal(t, "1,3", ids(`a[href^="https"]`))
	assert.Equal(t, "1,3", ids(`a[href$=".pdf"]`))
	assert.Equal(t, "2", ids(`a[href*="b.ht"]`))
	assert.Equal(t, "1,2", ids(`a[lang|="en"]`))
	assert.Equal(t, "1,3", ids(`a[class~="y"]`))
	assert.Equal(t, "1,3", ids(`a.y`))
	assert.Equal(t, "1,2", ids(`#2, #1`), "unions come back in document order")
	assert.Equal(t, "1", ids(`a:first-child`))
	assert.Equal(t, "3", ids(`a:last-child`))
}
