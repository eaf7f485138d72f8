// Package dockertest provides a stub docker.API for tests.
package dockertest

import (
	"context"

	"github.com/docker/docker/api/types"

	"github.com/streamdeploy/fleetcheck/internal/docker"
)

// Stub implements docker.API with canned responses. The zero value reports
// every container as absent and lists nothing.
type Stub struct {
	// Running maps container name to running state; names not present fall
	// back to RunningDefault. Stage container names carry random suffixes,
	// so tests usually set only the default.
	Running        map[string]bool
	RunningDefault bool
	// Health maps container name to health status, with HealthDefault as
	// the fallback.
	Health        map[string]string
	HealthDefault string
	// ExitCodes maps container name to the recorded exit code, with
	// ExitCodeDefault as the fallback.
	ExitCodes       map[string]int
	ExitCodeDefault int
	// Containers and Images are returned by the list calls.
	Containers []types.Container
	Images     []string
	// Err, when set, is returned by every call that can fail.
	Err error

	// RemovedContainers and RemovedImages record removal calls.
	RemovedContainers []string
	RemovedImages     []string
}

var _ docker.API = (*Stub)(nil)

func (s *Stub) Close() error { return nil }

func (s *Stub) ListImagesByReference(ctx context.Context, pattern string) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Images, nil
}

func (s *Stub) RemoveImage(ctx context.Context, ref string) error {
	if s.Err != nil {
		return s.Err
	}
	s.RemovedImages = append(s.RemovedImages, ref)
	return nil
}

func (s *Stub) ListContainersByName(ctx context.Context, namePrefix string) ([]types.Container, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Containers, nil
}

func (s *Stub) RemoveContainer(ctx context.Context, id string) error {
	if s.Err != nil {
		return s.Err
	}
	s.RemovedContainers = append(s.RemovedContainers, id)
	return nil
}

func (s *Stub) HealthStatus(ctx context.Context, name string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if status, ok := s.Health[name]; ok {
		return status, nil
	}
	return s.HealthDefault, nil
}

func (s *Stub) ExitCode(ctx context.Context, name string) (int, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	if code, ok := s.ExitCodes[name]; ok {
		return code, nil
	}
	return s.ExitCodeDefault, nil
}

func (s *Stub) IsRunning(ctx context.Context, name string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	if running, ok := s.Running[name]; ok {
		return running, nil
	}
	return s.RunningDefault, nil
}
