package service

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain covers the facade's fan-out into walker and refscan, both of
// which run errgroup workers under the hood.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
