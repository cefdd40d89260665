package shardqueue

import "context"

// Job is one unit of queued work, typically a single logbook upload.
// Run may be invoked more than once when a recoverable error is retried.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a plain function to Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Completer is implemented by jobs that want their final outcome once
// retries have ended, including jobs skipped because their context ended.
type Completer interface {
	Complete(err error)
}
