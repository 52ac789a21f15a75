// Package jobtable implements the shell's job registry: a fixed-capacity
// map from small positive integer job IDs to job.Job records, with the
// allocation, lookup and removal operations the REPL driver, pipeline
// executor and built-in dispatcher share.
package jobtable

import (
	"errors"
	"sort"
	"sync"

	"github.com/wsh-project/wsh/internal/job"
)

// DefaultCapacity is the default number of simultaneous jobs the table
// will track, matching MAX_JOBS in the original source.
const DefaultCapacity = 128

// ErrTableFull is returned by Allocate when all capacity slots are in use.
var ErrTableFull = errors.New("job table full")

// Table is the single owner of job lifecycle. It is safe for concurrent
// use, though in this shell it is only ever touched from the REPL's
// thread of control; the locking guards a single-writer-in-practice map
// so that a signal-driven extension of the REPL never needs to relearn
// this invariant.
type Table struct {
	mu       sync.RWMutex
	capacity int
	jobs     map[job.ID]*job.Job
}

// New creates an empty Table with the given capacity. IDs are drawn
// from [1, capacity].
func New(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{
		capacity: capacity,
		jobs:     make(map[job.ID]*job.Job),
	}
}

// Allocate scans slots [1, capacity] in ascending order and inserts the
// new Job at the first empty one. As a side effect, any job currently
// marked foreground is demoted to background, enforcing that only the
// newest job can be in the foreground. It returns the assigned ID, or
// ErrTableFull if no slot is free.
func (t *Table) Allocate(argvDisplay []string, pipelineLen int, background bool) (job.ID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var id job.ID
	found := false
	for i := 1; i <= t.capacity; i++ {
		candidate := job.ID(i)
		if _, ok := t.jobs[candidate]; !ok {
			id = candidate
			found = true
			break
		}
	}
	if !found {
		return 0, ErrTableFull
	}

	for _, j := range t.jobs {
		j.Background = true
	}

	t.jobs[id] = job.New(id, argvDisplay, pipelineLen, background)
	return id, nil
}

// Get returns the Job for id, or false if no such job is alive.
func (t *Table) Get(id job.ID) (*job.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	return j, ok
}

// Kill releases the record for id. It is a no-op if the id is not
// present. Callers must not reference the Job after Kill returns.
func (t *Table) Kill(id job.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
}

// SetBackground updates the background flag of an alive job.
func (t *Table) SetBackground(id job.ID, background bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return false
	}
	j.Background = background
	return true
}

// All returns every alive job, in ascending ID order. Used by the
// reaper, which sweeps the whole table.
func (t *Table) All() []*job.Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortedLocked(func(*job.Job) bool { return true }, false)
}

// BackgroundAscending returns alive background jobs in ascending ID
// order, as used by the jobs built-in.
func (t *Table) BackgroundAscending() []*job.Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortedLocked(func(j *job.Job) bool { return j.Background }, false)
}

// HighestBackground returns the alive background job with the largest
// ID, as used by fg with no argument.
func (t *Table) HighestBackground() (*job.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	jobs := t.sortedLocked(func(j *job.Job) bool { return j.Background }, true)
	if len(jobs) == 0 {
		return nil, false
	}
	return jobs[0], true
}

// HighestForeground returns the alive foreground job with the largest
// ID, as used by bg with no argument.
func (t *Table) HighestForeground() (*job.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	jobs := t.sortedLocked(func(j *job.Job) bool { return !j.Background }, true)
	if len(jobs) == 0 {
		return nil, false
	}
	return jobs[0], true
}

// sortedLocked must be called with t.mu held.
func (t *Table) sortedLocked(keep func(*job.Job) bool, descending bool) []*job.Job {
	out := make([]*job.Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		if keep(j) {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if descending {
			return out[i].ID > out[k].ID
		}
		return out[i].ID < out[k].ID
	})
	return out
}
