package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockResult struct {
	value int
	err   error
}

func (r *mockResult) GetError() error { return r.err }

type mockJob struct {
	value    int
	execFunc func(ctx context.Context) Result
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.execFunc != nil {
		return j.execFunc(ctx)
	}
	return &mockResult{value: j.value}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(4)
	pool.Start()

	var executed atomic.Int32
	for i := 0; i < 10; i++ {
		pool.Submit(&mockJob{execFunc: func(ctx context.Context) Result {
			executed.Add(1)
			return &mockResult{}
		}})
	}

	results := pool.Wait()

	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}
	if executed.Load() != 10 {
		t.Errorf("expected 10 executions, got %d", executed.Load())
	}
}

func TestPool_ClampsWorkerCount(t *testing.T) {
	if p := NewPool(0); p.workers != 1 {
		t.Errorf("expected 1 worker for 0, got %d", p.workers)
	}
	if p := NewPool(-3); p.workers != 1 {
		t.Errorf("expected 1 worker for negative, got %d", p.workers)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(3)
	pool.Start()

	var current atomic.Int32
	for i := 0; i < 10; i++ {
		pool.Submit(&mockJob{execFunc: func(ctx context.Context) Result {
			if c := current.Add(1); c > 3 {
				t.Errorf("expected at most 3 concurrent jobs, got %d", c)
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return &mockResult{}
		}})
	}

	pool.Wait()
}

func TestPool_ResultsCarryErrors(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&mockJob{execFunc: func(ctx context.Context) Result {
		return &mockResult{err: errors.New("job failed")}
	}})
	pool.Submit(&mockJob{value: 1})

	results := pool.Wait()

	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed result, got %d", failed)
	}
}

func TestPool_WaitWithoutJobs(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	if results := pool.Wait(); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool(1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&mockJob{execFunc: func(ctx context.Context) Result {
		close(started)
		select {
		case <-ctx.Done():
			return &mockResult{err: ctx.Err()}
		case <-time.After(5 * time.Second):
			return &mockResult{}
		}
	}})

	<-started
	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}
