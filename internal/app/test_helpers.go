package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/flowcalc/internal/config"
	"github.com/vk/flowcalc/internal/testutil"
)

// SetupAppTest creates an app for the given sheet with debug logging,
// returning it with its output and log buffers.
func SetupAppTest(t *testing.T, sheetPath string) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.Sheet = sheetPath

	outBuffer, logBuffer := &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	testApp, err := NewApp(outBuffer, logBuffer, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		testApp.Close()
		if os.Getenv("FLOWCALC_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, outBuffer, logBuffer
}
