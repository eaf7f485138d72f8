// Package exectest provides a scripted Execer for stage unit tests.
package exectest

import (
	"context"
	"strings"
	"sync"

	"github.com/streamdeploy/fleetcheck/internal/harness/exec"
)

// Response describes the canned result for commands matching a prefix.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Script is an Execer that matches each invocation against registered argv
// prefixes and replays the canned response. Unmatched invocations succeed
// with empty output, so stages only need to script the calls they assert on.
type Script struct {
	mu      sync.Mutex
	rules   []rule
	calls   [][]string
	Default Response
}

type rule struct {
	prefix []string
	resp   Response
}

// New creates an empty Script.
func New() *Script {
	return &Script{}
}

// Stub registers a response for invocations whose argv starts with prefix.
// Later registrations win over earlier ones.
func (s *Script) Stub(prefix []string, resp Response) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{prefix: prefix, resp: resp})
	return s
}

// StubFail registers a failing response (exit 1) for the prefix.
func (s *Script) StubFail(prefix []string, stderr string) *Script {
	return s.Stub(prefix, Response{Stderr: stderr, ExitCode: 1})
}

// Run implements exec.Execer.
func (s *Script) Run(_ context.Context, _ string, argv ...string) *exec.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, argv)

	resp := s.Default
	for _, r := range s.rules {
		if hasPrefix(argv, r.prefix) {
			resp = r.resp
		}
	}

	return &exec.Result{
		Argv:     argv,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
		ExitCode: resp.ExitCode,
		Err:      resp.Err,
	}
}

// Calls returns every argv Run received, in order.
func (s *Script) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CalledWith reports whether any recorded call starts with prefix.
func (s *Script) CalledWith(prefix ...string) bool {
	for _, call := range s.Calls() {
		if hasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

// CallLines renders recorded calls as joined strings, for assertion messages.
func (s *Script) CallLines() []string {
	calls := s.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = strings.Join(c, " ")
	}
	return lines
}

func hasPrefix(argv, prefix []string) bool {
	if len(prefix) > len(argv) {
		return false
	}
	for i, p := range prefix {
		if argv[i] != p {
			return false
		}
	}
	return true
}
