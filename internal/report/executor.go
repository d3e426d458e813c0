package report

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"

	"store-monitor-backend/internal/uptime"
)

// Task produces a report.
type Task func(ctx context.Context) (*uptime.Report, error)

// Future is the pending outcome of a submitted Task.
type Future struct {
	done   chan struct{}
	report *uptime.Report
	err    error
}

// Done is closed once the task has finished and its callback has returned.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the task has finished.
func (f *Future) Result() (*uptime.Report, error) {
	<-f.done
	return f.report, f.err
}

// Executor runs tasks in the background.
type Executor interface {
	// Submit starts task and returns immediately. onDone, if not nil, is called
	// with the task's outcome before the returned Future completes.
	Submit(ctx context.Context, task Task, onDone func(*uptime.Report, error)) *Future
}

// GoExecutor runs every task on its own goroutine, without any limit.
type GoExecutor struct {
	wg sync.WaitGroup
}

// NewGoExecutor creates a GoExecutor.
func NewGoExecutor() *GoExecutor {
	return &GoExecutor{}
}

func (e *GoExecutor) Submit(ctx context.Context, task Task, onDone func(*uptime.Report, error)) *Future {
	f := &Future{done: make(chan struct{})}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(f.done)
		f.report, f.err = runTask(ctx, task)
		if onDone != nil {
			onDone(f.report, f.err)
		}
	}()
	return f
}

// Wait blocks until every submitted task has finished.
func (e *GoExecutor) Wait() {
	e.wg.Wait()
}

// runTask turns a panic inside the task into an error.
func runTask(ctx context.Context, task Task) (report *uptime.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("Report task panicked: %v\n%s", p, debug.Stack())
			report, err = nil, fmt.Errorf("report task panicked: %v", p)
		}
	}()
	return task(ctx)
}
