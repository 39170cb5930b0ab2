package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
)

func TestBuilder_DefaultsCategoryAndComponent(t *testing.T) {
	err := errors.New(errors.NewStd("boom")).Build()
	require.Error(t, err)
	assert.Equal(t, errors.CategoryGeneric, err.Category)
	assert.NotEmpty(t, err.GetComponent())
}

func TestBuilder_ExplicitFields(t *testing.T) {
	err := errors.Newf("node %s failed", "gain").
		Component("processing.nodes").
		Category(errors.CategoryProcessing).
		NodeContext("gain", "process").
		Build()

	assert.Equal(t, "processing.nodes", err.GetComponent())
	assert.Equal(t, errors.CategoryProcessing, err.Category)
	assert.Equal(t, "gain", err.GetContext()["node_id"])
	assert.Equal(t, "process", err.GetContext()["operation"])
	assert.Contains(t, err.Error(), "gain")
}

func TestIsCategory(t *testing.T) {
	err := errors.New(errors.NewStd("bad config")).Category(errors.CategoryConfig).Build()
	assert.True(t, errors.IsCategory(err, errors.CategoryConfig))
	assert.False(t, errors.IsCategory(err, errors.CategoryTopology))
}

func TestValidationError(t *testing.T) {
	err := errors.ValidationError("missing input node")
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Equal(t, "missing input node", err.Error())
}

func TestContextIsolation(t *testing.T) {
	err := errors.New(errors.NewStd("x")).Context("a", 1).Build()
	ctx := err.GetContext()
	ctx["a"] = 2
	assert.Equal(t, 1, err.GetContext()["a"], "returned context map must be a copy")
}
