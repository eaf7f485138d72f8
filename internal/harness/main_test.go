package harness

import (
	"os"
	"testing"

	"github.com/streamdeploy/fleetcheck/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init(false)
	os.Exit(m.Run())
}
