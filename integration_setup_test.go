//go:build integration

package themepdf

// Notes:
// - Integration tests launch real Chrome through rod. Rod downloads Chromium
//   on first run if none is found; set ROD_BROWSER_BIN to use a local one.
// - testLimiter is shared so parallel tests never run more than a handful of
//   browsers at once on CI machines.

import (
	"os"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Configuration
// ---------------------------------------------------------------------------

// testTimeout is the per-render budget for integration tests.
const testTimeout = 45 * time.Second

// testLimiter bounds concurrent browsers across all integration tests.
var testLimiter *JobLimiter

// ---------------------------------------------------------------------------
// TestMain - Integration Test Setup and Teardown
// ---------------------------------------------------------------------------

func TestMain(m *testing.M) {
	testLimiter = NewJobLimiter(min(ResolveJobSlots(-1), 4))

	code := m.Run()

	_ = testLimiter.Close()
	os.Exit(code)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newIntegrationRenderer() *Renderer {
	return NewRenderer(
		WithRenderTimeout(testTimeout),
		WithJobLimiter(testLimiter),
	)
}
