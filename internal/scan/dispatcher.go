package scan

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Result is what a dispatched job settled with.
type Result[T any] struct {
	Key   string
	Value T
	Err   error
}

// Dispatcher runs one job per key at a time and reports results on a
// channel. Events arriving for a busy key are dropped.
type Dispatcher[T any] struct {
	guard   Guard
	results chan Result[T]
}

func NewDispatcher[T any](guard Guard, buffer int) *Dispatcher[T] {
	return &Dispatcher[T]{guard: guard, results: make(chan Result[T], buffer)}
}

// Results delivers one Result per accepted job.
func (d *Dispatcher[T]) Results() <-chan Result[T] {
	return d.results
}

// Submit starts job unless key is busy, in which case it returns
// ErrInProgress and job never runs. The key is released after job returns.
func (d *Dispatcher[T]) Submit(ctx context.Context, key string, job func(ctx context.Context) (T, error)) error {
	ok, err := d.guard.Acquire(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInProgress
	}

	go func() {
		value, err := job(ctx)

		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if rerr := d.guard.Release(releaseCtx, key); rerr != nil {
			log.Warn().Err(rerr).Str("key", key).Msg("scan lock release failed")
		}
		cancel()

		select {
		case d.results <- Result[T]{Key: key, Value: value, Err: err}:
		case <-ctx.Done():
		}
	}()
	return nil
}

// Do runs job synchronously under the same per-key lock.
func Do[T any](ctx context.Context, guard Guard, key string, job func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ok, err := guard.Acquire(ctx, key)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrInProgress
	}
	defer func() {
		if rerr := guard.Release(context.Background(), key); rerr != nil {
			log.Warn().Err(rerr).Str("key", key).Msg("scan lock release failed")
		}
	}()
	return job(ctx)
}
