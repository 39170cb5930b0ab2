package nodes_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctg-development/photoacoustic-go/internal/processing"
	"github.com/sctg-development/photoacoustic-go/internal/processing/nodes"
)

func writeScript(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "processor.lua")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestScriptNode_DoublesSingleChannelSamples(t *testing.T) {
	script := `
function process_data(data)
  local out = {}
  for i, v in ipairs(data.samples) do
    out[i] = v * 2
  end
  data.samples = out
  return data
end
`
	path := writeScript(t, script)
	node := nodes.NewScriptNode("script", nodes.DefaultScriptNodeConfig(path))

	input := processing.NewSingleChannelData([]float32{0.1, 0.2, 0.3}, 44100, 1000, 1)
	out, err := node.Process(input)
	require.NoError(t, err)
	require.Len(t, out.Samples, 3)
	assert.InDelta(t, 0.2, out.Samples[0], 0.0001)
	assert.InDelta(t, 0.6, out.Samples[2], 0.0001)
}

func TestScriptNode_PassesThroughPhotoacousticResult(t *testing.T) {
	path := writeScript(t, `function process_data(data) return data end`)
	node := nodes.NewScriptNode("script", nodes.DefaultScriptNodeConfig(path))

	result := processing.NewPhotoacousticResultData([]float32{0.1}, processing.Metadata{})
	out, err := node.Process(result)
	require.NoError(t, err)
	assert.Equal(t, processing.KindPhotoacousticResult, out.Kind)
}

func TestScriptNode_MissingFunctionErrors(t *testing.T) {
	path := writeScript(t, `function something_else() end`)
	node := nodes.NewScriptNode("script", nodes.DefaultScriptNodeConfig(path))

	_, err := node.Process(processing.NewSingleChannelData([]float32{0.1}, 44100, 0, 1))
	assert.Error(t, err)
}

func TestScriptNode_UnknownScriptPathErrors(t *testing.T) {
	node := nodes.NewScriptNode("script", nodes.DefaultScriptNodeConfig("/nonexistent/processor.lua"))
	_, err := node.Process(processing.NewSingleChannelData([]float32{0.1}, 44100, 0, 1))
	assert.Error(t, err)
}

func TestScriptNode_UpdateConfigChangesProcessFunction(t *testing.T) {
	path := writeScript(t, `function custom_process(data) return data end`)
	node := nodes.NewScriptNode("script", nodes.DefaultScriptNodeConfig(path))

	updated, err := node.UpdateConfig(map[string]any{"process_function": "custom_process"})
	require.NoError(t, err)
	assert.True(t, updated)

	out, err := node.Process(processing.NewSingleChannelData([]float32{0.5}, 44100, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, processing.KindSingleChannel, out.Kind)
}
