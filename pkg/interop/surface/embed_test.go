package surface

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_IsEmbedded(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	assert.Contains(t, src, "WebBind")
	for _, ns := range []string{"DocumentAPI", "ElementAPI", "HistoryAPI", "WindowAPI", "LocationAPI",
		"NavigatorAPI", "StorageAPI", "PermissionsAPI", "EventsAPI", "InteropAPI"} {
		assert.Contains(t, src, ns+":", "namespace %s is not registered", ns)
	}
	assert.Contains(t, src, "__webbindCallback")
}

func TestInvokeExpression_QuotesArguments(t *testing.T) {
	expr := InvokeExpression("DocumentAPI.setTitle", `["a \"quoted\" title"]`)
	assert.True(t, strings.HasPrefix(expr, `globalThis.WebBind.invoke("DocumentAPI.setTitle", `))

	// The second literal must decode back to the original argument array.
	start := strings.Index(expr, `, "`) + 2
	literal := expr[start : len(expr)-1]
	var decoded string
	require.NoError(t, json.Unmarshal([]byte(literal), &decoded))
	assert.Equal(t, `["a \"quoted\" title"]`, decoded)
}

func TestQuote_EscapesControlCharacters(t *testing.T) {
	assert.Equal(t, `"a\u0001b\n"`, quote("a\x01b\n"))
	assert.Equal(t, `"x\u2028y"`, quote("x\u2028y"))
}
