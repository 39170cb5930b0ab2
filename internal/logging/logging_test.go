package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctg-development/photoacoustic-go/internal/logging"
)

func TestSetOutput_WritesJSONAndText(t *testing.T) {
	logging.Init()

	var structured, human bytes.Buffer
	require.NoError(t, logging.SetOutput(&structured, &human))

	logging.Structured().Info("acquisition started", "source", "mock")
	logging.HumanReadable().Info("acquisition started", "source", "mock")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(structured.Bytes(), &decoded))
	assert.Equal(t, "acquisition started", decoded["msg"])
	assert.Equal(t, "mock", decoded["source"])

	assert.Contains(t, human.String(), "acquisition started")
}

func TestSetOutput_RejectsNilWriters(t *testing.T) {
	logging.Init()
	var buf bytes.Buffer
	assert.Error(t, logging.SetOutput(nil, &buf))
	assert.Error(t, logging.SetOutput(&buf, nil))
}

func TestForService_AddsServiceAttribute(t *testing.T) {
	logging.Init()
	var structured, human bytes.Buffer
	require.NoError(t, logging.SetOutput(&structured, &human))

	logger := logging.ForService("acquisition")
	require.NotNil(t, logger)
	logger.Info("daemon started")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(structured.Bytes(), &decoded))
	assert.Equal(t, "acquisition", decoded["service"])
}

func TestTraceAndFatalLevelNames(t *testing.T) {
	logging.Init()
	var structured, human bytes.Buffer
	require.NoError(t, logging.SetOutput(&structured, &human))
	logging.SetLevel(logging.LevelTrace)

	logging.Structured().Log(context.Background(), logging.LevelTrace, "low level detail")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(structured.Bytes(), &decoded))
	assert.Equal(t, "TRACE", decoded[slog.LevelKey])
}

func TestDefaultReplaceAttrTruncatesFloats(t *testing.T) {
	logging.Init()
	var structured, human bytes.Buffer
	require.NoError(t, logging.SetOutput(&structured, &human))

	logging.Structured().Info("peak detected", "frequency_hz", 1234.56789)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(structured.Bytes(), &decoded))
	freq, ok := decoded["frequency_hz"].(float64)
	require.True(t, ok)
	assert.Equal(t, 1234.56, freq)
}

func TestIsInitialized(t *testing.T) {
	logging.Init()
	assert.True(t, logging.IsInitialized())
}

func TestNewFileLogger_PathIsConfigurable(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/acquisition.log"
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)

	logger, closeFn, err := logging.NewFileLogger(path, "acquisition", levelVar)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer func() { _ = closeFn() }()

	logger.Debug("daemon tick")
	assert.FileExists(t, path)
}
