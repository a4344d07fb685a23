// Package testhelper silences the global logger for tests. Import it for its
// side effect:
//
//	import _ "github.com/surveygraph/graph/internal/testhelper"
package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// init disables logging for tests unless GRAPH_TEST_LOG is set
func init() {
	if testing.Testing() && os.Getenv("GRAPH_TEST_LOG") == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
}
