// Package shardqueue runs uploads on a fixed set of workers partitioned by
// key, so work for one logbook runs in submission order while different
// logbooks proceed in parallel.
//
// Callers must not Submit concurrently for the same key; FIFO order within
// a key relies on that.
package shardqueue

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
)

type queuedJob struct {
	ctx context.Context
	key string
	job Job
}

// ShardExecutor executes Jobs on one goroutine per shard.
type ShardExecutor struct {
	cfg    Config
	queues []chan queuedJob

	// mu orders enqueues against Stop: Submit holds it shared while sending
	// and done is closed under the exclusive lock, so no job can land in a
	// queue after its worker has drained it.
	mu       sync.RWMutex
	stopping chan struct{}
	done     chan struct{}
	closed   atomic.Bool

	wg sync.WaitGroup
}

// NewShardExecutor applies defaults to cfg and starts the shard workers.
func NewShardExecutor(cfg Config) *ShardExecutor {
	cfg = cfg.withDefaults()
	p := &ShardExecutor{
		cfg:    cfg,
		queues:   make([]chan queuedJob, cfg.Shards),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan queuedJob, cfg.QueueSize)
		p.wg.Add(1)
		go p.runWorker(i, p.queues[i])
	}
	return p
}

// ShardFor returns the shard index that key maps to.
func (p *ShardExecutor) ShardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.cfg.Shards))
}

// Submit enqueues job on the shard for key. It returns ErrExecutorClosed
// after Stop, a *QueueFullError when the shard stays full past
// EnqueueTimeout, or ctx.Err() if ctx ends first.
func (p *ShardExecutor) Submit(ctx context.Context, key string, job Job) error {
	if p.closed.Load() {
		return ErrExecutorClosed
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return ErrExecutorClosed
	}

	shard := p.ShardFor(key)
	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{ctx: ctx, key: key, job: job}:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-p.stopping:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier waits until every job submitted for key before the call has
// finished.
func (p *ShardExecutor) Barrier(ctx context.Context, key string) error {
	reached := make(chan struct{})
	if err := p.Submit(ctx, key, JobFunc(func(context.Context) error {
		close(reached)
		return nil
	})); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-reached:
		return nil
	}
}

// Stop rejects new work, lets every worker drain its queue, and waits for
// them to exit. It is idempotent.
func (p *ShardExecutor) Stop() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.cfg.Logger.Debug().Int("shards", p.cfg.Shards).Msg("shardqueue: stopping, draining queues")
	close(p.stopping)
	p.mu.Lock()
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
	p.cfg.Logger.Debug().Msg("shardqueue: stopped")
}

// Close lets ShardExecutor satisfy io.Closer.
func (p *ShardExecutor) Close() error {
	p.Stop()
	return nil
}

func (p *ShardExecutor) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.cfg.Logger.Error().Int("shard", idx).Interface("panic", r).Msg("shardqueue: worker panic")
		}
	}()

	label := labelFor(idx)
	for {
		select {
		case qj := <-ch:
			p.runJob(label, qj)
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))
		case <-p.done:
			p.drain(idx, ch)
			queueDepth.WithLabelValues(label).Set(0)
			return
		}
	}
}

// runJob runs qj, retrying recoverable failures with exponential backoff.
// Jobs whose context ended while queued are skipped.
func (p *ShardExecutor) runJob(label string, qj queuedJob) {
	if qj.job == nil {
		return
	}
	if err := qj.ctx.Err(); err != nil {
		p.finish(qj, err)
		return
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = p.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	waitCtx, cancel := p.stopContext(qj.ctx)
	defer cancel()
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.cfg.MaxAttempts-1)), waitCtx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		start := time.Now()
		err := safeRun(qj.ctx, qj.job)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if err != nil && clienterrors.IsIrrecoverable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		p.cfg.Logger.Debug().Err(err).Str("key", qj.key).Int("attempt", attempt).Dur("backoff", wait).Msg("shardqueue: retrying job")
	})
	p.finish(qj, err)
}

// stopContext ends when either the job context ends or the executor stops,
// so a retry wait never delays shutdown.
func (p *ShardExecutor) stopContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-p.done:
		case <-ctx.Done():
		}
		cancel()
	}()
	return ctx, cancel
}

// drain runs whatever is still queued once Stop has been called, in order
// and without retries.
func (p *ShardExecutor) drain(idx int, ch <-chan queuedJob) {
	drained := 0
	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				continue
			}
			p.finish(qj, safeRun(qj.ctx, qj.job))
			drained++
		default:
			if drained > 0 {
				p.cfg.Logger.Debug().Int("shard", idx).Int("jobs", drained).Msg("shardqueue: drained")
			}
			return
		}
	}
}

// safeRun turns a job panic into an irrecoverable error so the shard worker
// keeps serving its queue.
func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &clienterrors.ClassifiedError{
				Category:   clienterrors.Irrecoverable,
				Underlying: fmt.Errorf("job panic: %v", r),
			}
		}
	}()
	return job.Run(ctx)
}

// finish reports the final outcome of qj to the job and, on failure, to the
// error handler.
func (p *ShardExecutor) finish(qj queuedJob, err error) {
	if c, ok := qj.job.(Completer); ok {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.cfg.Logger.Error().Interface("panic", r).Str("key", qj.key).Msg("shardqueue: completion panic")
				}
			}()
			c.Complete(err)
		}()
	}
	p.handleError(qj.key, err)
}

func (p *ShardExecutor) handleError(key string, err error) {
	if err == nil {
		return
	}
	p.cfg.Logger.Warn().Err(err).Str("key", key).Msg("shardqueue: job failed")
	if p.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.cfg.Logger.Error().Interface("panic", r).Msg("shardqueue: error handler panic")
		}
	}()
	p.cfg.ErrorHandler(key, err)
}
