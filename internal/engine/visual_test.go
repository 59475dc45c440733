// File: internal/engine/visual_test.go
package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Templates rendered through Sprintf must escape every literal percent
// sign, or the verb parser mangles the generated script.
func TestDrawCursorScriptRendersCleanly(t *testing.T) {
	script := fmt.Sprintf(drawCursorJS, 120.0, 45.0)

	assert.NotContains(t, script, "%!", "Sprintf artifact in generated script")
	assert.NotContains(t, script, "MISSING")
	assert.Contains(t, script, "borderRadius = '50%'")
	assert.Contains(t, script, "(120.000000, 45.000000)")
}

func TestFindElementScriptsRenderCleanly(t *testing.T) {
	script := fmt.Sprintf(findElementJS, jsString(`login "form"`))
	assert.NotContains(t, script, "%!")

	matches, err := jsonMarshal([]FoundElement{{Text: "Login"}})
	require.NoError(t, err)
	highlight := fmt.Sprintf(highlightMatchesJS, matches)
	assert.NotContains(t, highlight, "%!")
}
