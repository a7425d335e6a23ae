package refscan

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures the per-file errgroup workers in FindBatch leave
// no goroutines running past test completion.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
