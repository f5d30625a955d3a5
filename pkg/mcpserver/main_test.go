package mcpserver

import (
	"io"
	"os"
	"testing"

	"github.com/entrhq/notes-agent/pkg/logging"
)

// TestMain keeps test runs from writing session logs under the home
// directory.
func TestMain(m *testing.M) {
	_ = logging.Configure(logging.Options{Writer: io.Discard})
	os.Exit(m.Run())
}
