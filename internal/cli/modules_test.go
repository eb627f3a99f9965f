package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModulesCommand_Text(t *testing.T) {
	stdout, _, err := execute(t, "modules")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Counter - Counts increments and decrements")
	assert.Contains(t, stdout, "increment, decrement")
	assert.Contains(t, stdout, "setIncrement, setDecrement")
	assert.NotContains(t, stdout, "setCurrentCount")
}

func TestModulesCommand_JSON(t *testing.T) {
	stdout, _, err := execute(t, "modules", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []ModuleInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotEmpty(t, resp.Data)

	byName := map[string]ModuleInfo{}
	for _, info := range resp.Data {
		byName[info.Name] = info
	}
	counter, ok := byName["Counter"]
	require.True(t, ok)
	assert.Equal(t, []string{"increment", "decrement"}, counter.Input)
	assert.Equal(t, []string{"currentCount"}, counter.PureFeedback)
	assert.Equal(t, []string{}, counter.OutputFeedback)
	assert.Equal(t, []string{"displayText"}, counter.PureOutput)
	assert.Equal(t, map[string]any{"displayText": "0"}, counter.Initial)
	assert.Len(t, counter.SpecHash, 64)
}
