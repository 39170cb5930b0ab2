package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Init installs a process-wide singleton via sync.Once, so it cannot be
// exercised repeatedly within a single test binary; this only checks the
// fallback Global() returns before any Init call in this run.
func TestGlobal_ReturnsDisabledCollectorBeforeInit(t *testing.T) {
	c := Global()
	require.NotNil(t, c)
	require.NotPanics(t, func() {
		c.RecordFramePublished("mic")
		c.RecordGraphExecution("consumer", 0.01, nil)
	})
}
