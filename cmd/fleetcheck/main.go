package main

import (
	"os"

	"github.com/streamdeploy/fleetcheck/internal/fleetcheck"
)

func main() {
	os.Exit(fleetcheck.Main())
}
