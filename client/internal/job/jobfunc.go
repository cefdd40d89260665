// Package job wraps closures as identifiable shard queue jobs.
package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNilJobFunc is returned when a job has no function to run.
var ErrNilJobFunc = errors.New("nil job func")

// Job is a closure with a unique id that callers can use to correlate an
// acknowledgement with later log lines.
type Job struct {
	ID   string
	fn   func(context.Context) error
	done func(error)
}

// New wraps fn with a fresh random id.
func New(fn func(context.Context) error) *Job {
	return &Job{ID: uuid.NewString(), fn: fn}
}

// Run implements shardqueue.Job.
func (j *Job) Run(ctx context.Context) error {
	if j == nil || j.fn == nil {
		return fmt.Errorf("job: %w", ErrNilJobFunc)
	}
	return j.fn(ctx)
}

// OnComplete registers fn to receive the final error of the job, nil on
// success, after the executor has stopped retrying it.
func (j *Job) OnComplete(fn func(error)) *Job {
	j.done = fn
	return j
}

// Complete implements shardqueue.Completer.
func (j *Job) Complete(err error) {
	if j != nil && j.done != nil {
		j.done(err)
	}
}
