package ebars

import (
	"testing"

	"github.com/egitsel/aprag/internal/log"
)

// testLogger returns a logger that discards output, keeping test runs quiet.
func testLogger(t *testing.T) log.Logger {
	t.Helper()
	return log.NewNop()
}
