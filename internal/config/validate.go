package config

import (
	"fmt"
	"strconv"

	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"
)

// Validate checks the configuration for values the container engine would
// reject at run time. It fails fast so a bad fleetcheck.yaml surfaces before
// any stage executes.
func (c *Config) Validate() error {
	if c.Image.Repository == "" {
		return fmt.Errorf("image.repository must not be empty")
	}
	if c.Image.Context == "" {
		return fmt.Errorf("image.context must not be empty")
	}

	for _, p := range []struct {
		name string
		port int
	}{
		{"ports.command", c.Ports.Command},
		{"ports.observation", c.Ports.Observation},
	} {
		if _, err := nat.NewPort("tcp", strconv.Itoa(p.port)); err != nil {
			return fmt.Errorf("%s: invalid port %d: %w", p.name, p.port, err)
		}
	}
	if c.Ports.Command == c.Ports.Observation {
		return fmt.Errorf("ports.command and ports.observation must differ")
	}

	for _, rp := range c.Resources {
		if rp.Name == "" {
			return fmt.Errorf("resources: profile with empty name")
		}
		if _, err := units.RAMInBytes(rp.Memory); err != nil {
			return fmt.Errorf("resources.%s: invalid memory %q: %w", rp.Name, rp.Memory, err)
		}
		if _, err := strconv.ParseFloat(rp.CPUs, 64); err != nil {
			return fmt.Errorf("resources.%s: invalid cpus %q: %w", rp.Name, rp.CPUs, err)
		}
	}

	seen := make(map[string]bool, len(c.Fleet.Fixtures))
	for _, fx := range c.Fleet.Fixtures {
		if fx.Name == "" {
			return fmt.Errorf("fleet.fixtures: fixture with empty name")
		}
		if seen[fx.Name] {
			return fmt.Errorf("fleet.fixtures: duplicate fixture %q", fx.Name)
		}
		seen[fx.Name] = true
	}

	if c.Stop.GraceSeconds <= 0 {
		return fmt.Errorf("stop.grace_seconds must be positive, got %d", c.Stop.GraceSeconds)
	}

	return nil
}
