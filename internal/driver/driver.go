// Package driver executes one run's resolved prompts against the
// external image-generation service.
//
// The service is an injected capability, not an implementation detail:
// anything with a Submit method drives the batch, and anything that also
// polls is treated as asynchronous. The driver is partial-failure
// tolerant - one failed image never aborts the batch - and observes
// cancellation between dispatches, letting in-flight submissions finish
// or fail on their own.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/promptloom/promptloom/internal/prompt"
	"github.com/promptloom/promptloom/internal/template"
)

// JobState is a job record's submission state.
type JobState string

const (
	// StatePending means the job exists but has not been submitted.
	StatePending JobState = "pending"
	// StateSubmitted means the backend accepted the job; terminal status
	// is still unknown (asynchronous backends only).
	StateSubmitted JobState = "submitted"
	// StateSucceeded is terminal success.
	StateSucceeded JobState = "succeeded"
	// StateFailed is terminal failure; Error holds the detail.
	StateFailed JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Request is one submission to the external service.
type Request struct {
	Prompt         string
	NegativePrompt string
	Seed           int64
	Filename       string
	Parameters     template.Parameters
}

// Handle identifies a submitted job on the external service.
type Handle string

// PollStatus is the externally reported status of an asynchronous job.
type PollStatus struct {
	State  JobState // StatePending, StateSucceeded or StateFailed
	Detail string
}

// Submitter is the external submission capability.
type Submitter interface {
	Submit(ctx context.Context, req Request) (Handle, error)
}

// Poller is implemented by asynchronous submitters. After a successful
// Submit the driver polls until the job reaches a terminal state.
type Poller interface {
	Poll(ctx context.Context, h Handle) (PollStatus, error)
}

// SubmissionError is a per-job failure reported by the external service.
// Recoverable at batch level: it marks the one job failed and the batch
// continues, but it counts toward the manifest's terminal-state decision.
type SubmissionError struct {
	Index  int
	Detail string
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed for job %d: %s", e.Index, e.Detail)
}

// IsSubmissionError reports whether err is a SubmissionError.
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

// JobRecord tracks one resolved prompt through submission. Created when
// the driver begins processing the entry; mutated only by the driver;
// retained for the lifetime of the manifest.
type JobRecord struct {
	ID       string
	Index    int
	Prompt   string
	Seed     int64
	Filename string
	State    JobState
	Error    string
}

// Aggregate is the run-level outcome summary the orchestrator uses to
// decide the manifest's terminal state.
type Aggregate struct {
	Succeeded int
	Failed    int
	Pending   int
}

// AllTerminal reports whether every job reached a terminal state.
func (a Aggregate) AllTerminal() bool { return a.Pending == 0 }

// Options configures the batch driver.
type Options struct {
	// Workers bounds concurrent submissions. The bound respects the
	// external service's admission limits; values < 1 mean 1.
	Workers int

	// PollInterval is the delay between polls of an asynchronous job.
	// Zero means 500ms.
	PollInterval time.Duration

	// Parameters are attached to every request.
	Parameters template.Parameters
}

// Driver runs one batch. Create with New, run once with Run.
type Driver struct {
	submitter Submitter
	opts      Options

	mu      sync.Mutex
	records []JobRecord
	update  func(JobRecord)
}

// New creates a batch driver over the given submission capability.
// The update callback, if non-nil, observes every job record mutation;
// calls are serialized.
func New(submitter Submitter, opts Options, update func(JobRecord)) *Driver {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	return &Driver{
		submitter: submitter,
		opts:      opts,
		update:    update,
	}
}

// Records returns a copy of all job records in index order.
func (d *Driver) Records() []JobRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]JobRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Aggregate returns the current outcome counts.
func (d *Driver) Aggregate() Aggregate {
	d.mu.Lock()
	defer d.mu.Unlock()

	var agg Aggregate
	for _, r := range d.records {
		switch r.State {
		case StateSucceeded:
			agg.Succeeded++
		case StateFailed:
			agg.Failed++
		default:
			agg.Pending++
		}
	}
	return agg
}

// Run processes every resolved prompt in generation order, dispatching
// up to Workers submissions concurrently.
//
// Seed and filename were fixed at generation time, so completion
// reordering here never changes which seed or filename belongs to which
// prompt. Cancellation stops further dispatch; the returned error is
// ctx.Err() in that case, with per-job outcomes still recorded.
func (d *Driver) Run(ctx context.Context, prompts []prompt.Resolved) (Aggregate, error) {
	d.mu.Lock()
	d.records = make([]JobRecord, len(prompts))
	for i, p := range prompts {
		d.records[i] = JobRecord{
			ID:       fmt.Sprintf("job-%04d", p.Index),
			Index:    p.Index,
			Prompt:   p.Prompt,
			Seed:     p.Seed,
			Filename: p.Filename,
			State:    StatePending,
		}
	}
	d.mu.Unlock()

	jobs := make(chan prompt.Resolved)
	var wg sync.WaitGroup

	for w := 0; w < d.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				d.processJob(ctx, p)
			}
		}()
	}

	// Dispatch loop: cancellation is observed here, between dispatches.
	// Workers already holding a job let it finish or fail individually.
	var dispatchErr error
dispatch:
	for _, p := range prompts {
		select {
		case <-ctx.Done():
			dispatchErr = ctx.Err()
			break dispatch
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	return d.Aggregate(), dispatchErr
}

// processJob submits one prompt and resolves its terminal state.
func (d *Driver) processJob(ctx context.Context, p prompt.Resolved) {
	req := Request{
		Prompt:         p.Prompt,
		NegativePrompt: p.NegativePrompt,
		Seed:           p.Seed,
		Filename:       p.Filename,
		Parameters:     d.opts.Parameters,
	}

	// In-flight submissions are allowed to finish even when the run is
	// being cancelled; only new dispatches stop.
	callCtx := context.WithoutCancel(ctx)

	handle, err := d.submitter.Submit(callCtx, req)
	if err != nil {
		d.setState(p.Index, StateFailed, err.Error())
		return
	}

	poller, async := d.submitter.(Poller)
	if !async {
		// Synchronous backend: acceptance is completion.
		d.setState(p.Index, StateSucceeded, "")
		return
	}

	d.setState(p.Index, StateSubmitted, "")
	// Polling respects run cancellation: an abandoned poll marks the job
	// failed rather than holding finalization open.
	d.pollUntilTerminal(ctx, p.Index, poller, handle)
}

// pollUntilTerminal drives an asynchronous job to its terminal state.
func (d *Driver) pollUntilTerminal(ctx context.Context, index int, poller Poller, handle Handle) {
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	for {
		status, err := poller.Poll(ctx, handle)
		if err != nil {
			d.setState(index, StateFailed, fmt.Sprintf("poll: %v", err))
			return
		}
		switch status.State {
		case StateSucceeded:
			d.setState(index, StateSucceeded, "")
			return
		case StateFailed:
			d.setState(index, StateFailed, status.Detail)
			return
		}

		select {
		case <-ctx.Done():
			d.setState(index, StateFailed, fmt.Sprintf("poll abandoned: %v", ctx.Err()))
			return
		case <-ticker.C:
		}
	}
}

// setState serializes a job record mutation and notifies the observer.
func (d *Driver) setState(index int, state JobState, detail string) {
	d.mu.Lock()
	d.records[index].State = state
	d.records[index].Error = detail
	rec := d.records[index]
	update := d.update
	d.mu.Unlock()

	if update != nil {
		update(rec)
	}
}
