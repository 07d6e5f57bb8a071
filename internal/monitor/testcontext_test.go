package monitor

import (
	"context"
	"testing"
)

// testContext returns a context that is canceled when the test ends,
// mirroring the behavior of (*testing.T).Context from Go 1.24.
func testContext(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
