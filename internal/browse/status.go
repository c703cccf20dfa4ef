package browse

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultStatusConcurrency bounds in-flight applied-status lookups.
const DefaultStatusConcurrency = 8

// AppliedStatus is the per-item annotation shown in the job list.
type AppliedStatus int

const (
	// StatusPending means no lookup has completed for the job yet.
	StatusPending AppliedStatus = iota
	StatusNotApplied
	StatusApplied
	// StatusUnknown records a lookup that failed.
	StatusUnknown
)

func (s AppliedStatus) String() string {
	switch s {
	case StatusNotApplied:
		return "Not Applied"
	case StatusApplied:
		return "Applied"
	case StatusUnknown:
		return "Status unavailable"
	default:
		return "Checking…"
	}
}

// StatusMap is an immutable snapshot of applied status keyed by job key.
type StatusMap struct {
	m map[string]AppliedStatus
}

// Get returns the status for jobKey, StatusPending when absent.
func (s StatusMap) Get(jobKey string) AppliedStatus {
	return s.m[jobKey]
}

// Len returns the number of resolved keys.
func (s StatusMap) Len() int { return len(s.m) }

// with returns a copy of s with jobKey set to status.
func (s StatusMap) with(jobKey string, status AppliedStatus) StatusMap {
	next := make(map[string]AppliedStatus, len(s.m)+1)
	for k, v := range s.m {
		next[k] = v
	}
	next[jobKey] = status
	return StatusMap{m: next}
}

// StatusChecker is the subset of the API the tracker needs.
type StatusChecker interface {
	IsApplied(ctx context.Context, jobKey string) (bool, error)
}

// StatusTracker fans out independent applied-status lookups and merges
// each result into a fresh StatusMap. Each key is written by at most one
// lookup per Refresh, and a failed lookup only affects its own key.
type StatusTracker struct {
	checker     StatusChecker
	concurrency int
	onUpdate    func(jobKey string, status AppliedStatus)

	mu       sync.Mutex
	snapshot StatusMap
}

// NewStatusTracker creates a tracker. A non-positive concurrency falls back
// to DefaultStatusConcurrency.
func NewStatusTracker(checker StatusChecker, concurrency int) *StatusTracker {
	if concurrency <= 0 {
		concurrency = DefaultStatusConcurrency
	}
	return &StatusTracker{checker: checker, concurrency: concurrency}
}

// OnUpdate registers a callback invoked after each key resolves. The
// callback may run on several goroutines at once.
func (t *StatusTracker) OnUpdate(fn func(jobKey string, status AppliedStatus)) {
	t.mu.Lock()
	t.onUpdate = fn
	t.mu.Unlock()
}

// Snapshot returns the current status map.
func (t *StatusTracker) Snapshot() StatusMap {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}

// Set records a status directly, e.g. after a successful mark-applied.
func (t *StatusTracker) Set(jobKey string, status AppliedStatus) {
	t.mu.Lock()
	t.snapshot = t.snapshot.with(jobKey, status)
	onUpdate := t.onUpdate
	t.mu.Unlock()

	if onUpdate != nil {
		onUpdate(jobKey, status)
	}
}

// Refresh looks up every key concurrently and returns the merged snapshot
// once all lookups finish. Lookup failures never fail the refresh.
func (t *StatusTracker) Refresh(ctx context.Context, jobKeys []string) StatusMap {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	seen := make(map[string]struct{}, len(jobKeys))
	for _, key := range jobKeys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		g.Go(func() error {
			applied, err := t.checker.IsApplied(gctx, key)
			status := StatusNotApplied
			switch {
			case err != nil:
				log.Debug().Err(err).Str("job_key", key).Msg("Applied-status lookup failed")
				status = StatusUnknown
			case applied:
				status = StatusApplied
			}
			t.Set(key, status)
			return nil
		})
	}
	_ = g.Wait()
	return t.Snapshot()
}
