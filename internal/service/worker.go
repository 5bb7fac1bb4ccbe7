package service

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// TaskError accumulates multiple errors produced by a worker pool run.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	b.WriteString("multiple errors:")
	for _, err := range e.Errors {
		b.WriteString(" " + err.Error() + ";")
	}
	return b.String()
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

const defaultWorkers = 4

// WorkerPool fans indexed tasks out to a fixed number of goroutines.
type WorkerPool struct {
	workers int
}

// NewWorkerPool creates a pool with the provided concurrency.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &WorkerPool{workers: workers}
}

// Workers reports the pool's concurrency.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Run calls fn for every index in [0,total). Task failures are collected
// into a *TaskError; a cancelled context stops dispatch and is returned as is.
func (p *WorkerPool) Run(ctx context.Context, total int, fn func(ctx context.Context, idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := fn(ctx, idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
