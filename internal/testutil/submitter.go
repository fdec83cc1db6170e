// Package testutil provides deterministic test doubles for the
// generation pipeline: a scripted fake submitter and fixture writers
// for template, chunk and variation documents.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/promptloom/promptloom/internal/driver"
)

// FakeSubmitter is a scripted, synchronous submission capability.
//
// By default every submission succeeds. Individual prompts fail by
// filename via FailFilenames, or everything fails via FailAll. Requests
// are recorded in arrival order for assertions.
//
// Thread-safe: the driver submits from concurrent workers.
type FakeSubmitter struct {
	mu sync.Mutex

	// FailAll makes every submission fail.
	FailAll bool

	// FailFilenames makes submissions for these filenames fail.
	FailFilenames map[string]bool

	// PingErr, when set, makes the connectivity probe fail.
	PingErr error

	requests []driver.Request
}

// NewFakeSubmitter creates a fake that accepts everything.
func NewFakeSubmitter() *FakeSubmitter {
	return &FakeSubmitter{FailFilenames: make(map[string]bool)}
}

// Submit implements driver.Submitter.
func (f *FakeSubmitter) Submit(_ context.Context, req driver.Request) (driver.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)

	if f.FailAll || f.FailFilenames[req.Filename] {
		return "", fmt.Errorf("scripted failure for %s", req.Filename)
	}
	return driver.Handle(fmt.Sprintf("handle-%d", len(f.requests))), nil
}

// Ping implements driver.Pinger.
func (f *FakeSubmitter) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PingErr
}

// Requests returns a copy of all received requests in arrival order.
func (f *FakeSubmitter) Requests() []driver.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]driver.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// AsyncSubmitter wraps scripted asynchronous behavior: Submit always
// accepts, and Poll returns the scripted terminal state after
// PendingPolls intermediate polls per handle.
type AsyncSubmitter struct {
	mu sync.Mutex

	// PendingPolls is how many polls report pending before the terminal
	// state.
	PendingPolls int

	// FailHandles maps handle -> failure detail for handles that end
	// failed; all others succeed.
	FailHandles map[driver.Handle]string

	polls    map[driver.Handle]int
	requests []driver.Request
}

// NewAsyncSubmitter creates an asynchronous fake.
func NewAsyncSubmitter(pendingPolls int) *AsyncSubmitter {
	return &AsyncSubmitter{
		PendingPolls: pendingPolls,
		FailHandles:  make(map[driver.Handle]string),
		polls:        make(map[driver.Handle]int),
	}
}

// Submit implements driver.Submitter.
func (a *AsyncSubmitter) Submit(_ context.Context, req driver.Request) (driver.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	return driver.Handle(req.Filename), nil
}

// Poll implements driver.Poller.
func (a *AsyncSubmitter) Poll(_ context.Context, h driver.Handle) (driver.PollStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.polls[h]++
	if a.polls[h] <= a.PendingPolls {
		return driver.PollStatus{State: driver.StatePending}, nil
	}
	if detail, ok := a.FailHandles[h]; ok {
		return driver.PollStatus{State: driver.StateFailed, Detail: detail}, nil
	}
	return driver.PollStatus{State: driver.StateSucceeded}, nil
}
