package testlog

import (
	"testing"

	"github.com/hyperionmesh/hyperion/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logger := logging.ConfigureTests()
	logger.Debug().Str("test", t.Name()).Msg("test start")
}
