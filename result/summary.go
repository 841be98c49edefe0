package result

import (
	"encoding/base64"
	"sync"

	"github.com/google/uuid"
)

// RunSummary accumulates per-target reachability over one run. It is
// safe for concurrent Record calls from parallel target runners.
type RunSummary struct {
	RunID string

	mu      sync.Mutex
	total   int
	failed  []string
	skipped int
}

// NewRunSummary returns an empty summary with a fresh run ID.
func NewRunSummary() *RunSummary {
	return &RunSummary{RunID: NewRunID()}
}

// Record notes the outcome for one target.
func (s *RunSummary) Record(target string, reachable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if !reachable {
		s.failed = append(s.failed, target)
	}
}

// RecordSkipped counts a result that was dropped (e.g. store lock
// contention) without affecting reachability accounting.
func (s *RunSummary) RecordSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

// Total returns the number of targets tested.
func (s *RunSummary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// FailedTargets returns the targets for which every enabled test failed.
func (s *RunSummary) FailedTargets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failed))
	copy(out, s.failed)
	return out
}

// Skipped returns the number of dropped results.
func (s *RunSummary) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

// AllReachable reports whether every tested target was reachable.
func (s *RunSummary) AllReachable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failed) == 0
}

// NewRunID returns a short, URL-safe run identifier.
// A UUID is base64-encoded to keep log lines and file contents compact.
func NewRunID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}
