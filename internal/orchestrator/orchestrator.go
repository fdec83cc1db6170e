package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/promptloom/promptloom/internal/driver"
	"github.com/promptloom/promptloom/internal/manifest"
	"github.com/promptloom/promptloom/internal/prompt"
	"github.com/promptloom/promptloom/internal/resolve"
	"github.com/promptloom/promptloom/internal/session"
	"github.com/promptloom/promptloom/internal/store"
	"github.com/promptloom/promptloom/internal/template"
)

// Options wires the orchestrator's collaborators. Submitter is the only
// required field.
type Options struct {
	// Submitter is the external submission capability.
	Submitter driver.Submitter

	// Store, when non-nil, records the finalized run for history
	// browsing. Recording failures are logged, never fatal: the
	// manifest is the source of truth.
	Store *store.Store

	// RunIDs generates run identifiers. Nil means UUIDv7.
	RunIDs RunIDGenerator

	// Rand seeds selector randomization and random-mode sampling. Nil
	// means a time-seeded source; tests inject a fixed seed for
	// reproducible output.
	Rand *rand.Rand

	// Observer receives every event as it is emitted, serialized and in
	// Seq order. May be nil; the full log is also returned on the
	// Result. Called under the event log's lock: keep it fast and never
	// run the pipeline from inside it.
	Observer func(Event)

	// Logger receives diagnostics. Nil means slog.Default().
	Logger *slog.Logger

	// DryRun stops after phase 5: prompts are generated and returned,
	// but no manifest is created and nothing is submitted.
	DryRun bool

	// PollInterval overrides the driver's poll interval (tests).
	PollInterval time.Duration
}

// Result is one run's complete outcome.
type Result struct {
	RunID      string
	SessionDir string
	Config     session.Config
	Batch      *prompt.Batch
	Aggregate  driver.Aggregate
	Manifest   *manifest.Manifest
	Events     []Event
}

// Run executes the full pipeline for one template document.
//
// Non-reentrant per call; each invocation owns its run context and
// shares no mutable state with any other run.
func Run(ctx context.Context, templatePath string, overrides session.Overrides, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = UUIDv7Generator{}
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	log := newEventLog(opts.Observer)
	result := &Result{}
	defer func() { result.Events = log.all() }()

	// ---- Phase 1: Configuration -------------------------------------

	log.emit(Event{Kind: EventPhaseStarted, Phase: PhaseConfiguration})
	doc, err := template.Load(templatePath)
	if err != nil {
		return result, &PhaseError{Phase: PhaseConfiguration, Err: err}
	}
	cfg := session.Build(doc, overrides)
	if err := cfg.Validate(); err != nil {
		return result, &PhaseError{Phase: PhaseConfiguration, Err: err}
	}
	result.Config = cfg
	log.emit(Event{Kind: EventPhaseCompleted, Phase: PhaseConfiguration})

	// ---- Phase 2: Validation ----------------------------------------

	log.emit(Event{Kind: EventPhaseStarted, Phase: PhaseValidation})
	if _, verrs := template.ValidateFile(templatePath); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = v
		}
		return result, &PhaseError{Phase: PhaseValidation, Err: joinErrors(errs)}
	}
	log.emit(Event{Kind: EventPhaseCompleted, Phase: PhaseValidation})

	// ---- Phase 3: API connection ------------------------------------
	// Probing before resolution avoids spending combinatorial work on a
	// backend that is down, and guarantees no partially populated
	// manifest can exist for an unreachable service.

	log.emit(Event{Kind: EventPhaseStarted, Phase: PhaseAPIConnection})
	if !opts.DryRun {
		if err := driver.CheckConnectivity(ctx, opts.Submitter); err != nil {
			return result, &PhaseError{Phase: PhaseAPIConnection, Err: err}
		}
	}
	log.emit(Event{Kind: EventPhaseCompleted, Phase: PhaseAPIConnection})

	// ---- Phase 4: Loading & resolution ------------------------------

	log.emit(Event{Kind: EventPhaseStarted, Phase: PhaseResolution})
	reg := resolve.NewRegistry(filepath.Dir(templatePath))
	resolution, err := resolve.Resolve(doc, reg, rng)
	if err != nil {
		return result, &PhaseError{Phase: PhaseResolution, Err: err}
	}
	log.emit(Event{
		Kind:   EventPhaseCompleted,
		Phase:  PhaseResolution,
		Detail: fmt.Sprintf("axes=%d combinations=%d", len(resolution.Axes), resolution.TotalCombinations()),
	})

	// ---- Phase 5: Prompt generation ---------------------------------

	log.emit(Event{Kind: EventPhaseStarted, Phase: PhasePromptGeneration})
	batch, err := prompt.Generate(resolution, promptOptions(cfg), rng)
	if err != nil {
		return result, &PhaseError{Phase: PhasePromptGeneration, Err: err}
	}
	result.Batch = batch
	log.emit(Event{
		Kind:   EventPhaseCompleted,
		Phase:  PhasePromptGeneration,
		Detail: fmt.Sprintf("prompts=%d", batch.Stats.TotalImages),
	})

	if opts.DryRun {
		return result, nil
	}

	// ---- Phase 6: Manifest preparation ------------------------------

	log.emit(Event{Kind: EventPhaseStarted, Phase: PhaseManifestPrep})
	runID := runIDs.Generate()
	result.RunID = runID

	sessionName := cfg.SessionName
	if sessionName == "" {
		sessionName = fmt.Sprintf("%s-%s", doc.Name, shortID(runID))
	}
	sessionDir := filepath.Join(cfg.OutputRoot, sessionName)
	result.SessionDir = sessionDir

	sink, err := manifest.NewFolderSink(sessionDir)
	if err != nil {
		return result, &PhaseError{Phase: PhaseManifestPrep, Err: err}
	}

	snapshot := manifest.Snapshot(cfg)
	snapshot.SessionName = sessionName
	jobs := make([]manifest.JobSummary, len(batch.Prompts))
	for i, p := range batch.Prompts {
		jobs[i] = manifest.JobSummary{
			Index:    p.Index,
			Seed:     p.Seed,
			Values:   p.Values,
			Filename: p.Filename,
			Status:   string(driver.StatePending),
		}
	}

	mgr, err := manifest.NewManager(runID, doc.Name, snapshot, jobs, sink, logger)
	if err != nil {
		return result, &PhaseError{Phase: PhaseManifestPrep, Err: err}
	}

	// From here on the manifest must reach a terminal state exactly
	// once, even if a later phase panics or errors out. The sweep is a
	// no-op when finalization already transitioned it.
	defer func() {
		if !mgr.Status().Terminal() {
			if abortErr := mgr.Abort(); abortErr != nil {
				logger.Error("abort sweep failed", "run_id", runID, "error", abortErr)
			}
		}
		m := mgr.Snapshot()
		result.Manifest = &m
	}()

	log.emit(Event{Kind: EventPhaseCompleted, Phase: PhaseManifestPrep, Detail: fmt.Sprintf("jobs=%d", len(jobs))})

	// ---- Phase 7: Image generation ----------------------------------

	log.emit(Event{Kind: EventPhaseStarted, Phase: PhaseImageGeneration})
	d := driver.New(opts.Submitter, driver.Options{
		Workers:      cfg.Workers,
		PollInterval: opts.PollInterval,
		Parameters:   cfg.Parameters,
	}, func(rec driver.JobRecord) {
		if err := mgr.UpdateJob(rec.Index, string(rec.State), rec.Error); err != nil {
			logger.Error("job update rejected", "run_id", runID, "job_index", rec.Index, "error", err)
		}
		log.emit(Event{
			Kind:     EventJobUpdated,
			Phase:    PhaseImageGeneration,
			JobIndex: rec.Index,
			JobState: string(rec.State),
			Detail:   rec.Error,
		})
	})

	agg, runErr := d.Run(ctx, batch.Prompts)
	result.Aggregate = agg
	log.emit(Event{
		Kind:   EventPhaseCompleted,
		Phase:  PhaseImageGeneration,
		Detail: fmt.Sprintf("succeeded=%d failed=%d pending=%d", agg.Succeeded, agg.Failed, agg.Pending),
	})

	// ---- Phase 8: Finalization --------------------------------------

	log.emit(Event{Kind: EventPhaseStarted, Phase: PhaseFinalization})
	finalErr := finalize(mgr, agg, runErr)

	if opts.Store != nil {
		if recErr := opts.Store.RecordRun(ctx, mgr.Snapshot(), batch.Stats); recErr != nil {
			logger.Error("run history recording failed", "run_id", runID, "error", recErr)
		}
	}

	status := mgr.Status()
	log.emit(Event{Kind: EventPhaseCompleted, Phase: PhaseFinalization, Detail: string(status)})
	log.emit(Event{Kind: EventRunFinished, Detail: string(status)})

	if finalErr != nil {
		return result, finalErr
	}
	return result, nil
}

// finalize decides and applies the manifest's terminal state.
//
// completed: every job terminal and at least one success (or an empty
// batch), no cancellation. aborted: cancellation, stuck jobs, or a
// batch where every job failed (classified fatal).
func finalize(mgr *manifest.Manager, agg driver.Aggregate, runErr error) error {
	switch {
	case runErr != nil:
		if err := mgr.Abort(); err != nil {
			return err
		}
		return &CancellationError{Cause: runErr}

	case !agg.AllTerminal():
		if err := mgr.Abort(); err != nil {
			return err
		}
		return &PhaseError{
			Phase: PhaseFinalization,
			Err:   fmt.Errorf("%d jobs never reached a terminal state", agg.Pending),
		}

	case agg.Failed > 0 && agg.Succeeded == 0:
		if err := mgr.Abort(); err != nil {
			return err
		}
		return &PhaseError{
			Phase: PhaseFinalization,
			Err:   &FatalBatchError{Failed: agg.Failed},
		}

	default:
		return mgr.Complete()
	}
}

// promptOptions converts the frozen session config into generator
// options.
func promptOptions(cfg session.Config) prompt.Options {
	return prompt.Options{
		Mode:              cfg.Mode,
		MaxImages:         cfg.MaxImages,
		WeightedLoop:      cfg.WeightedLoop,
		SeedMode:          cfg.SeedMode,
		Seed:              cfg.Seed,
		BackendRandomSeed: cfg.BackendRandomSeed,
		AttemptBudget:     cfg.AttemptBudget,
		FilenameKeys:      cfg.FilenameKeys,
	}
}

// shortID truncates a run ID for folder names.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// joinErrors folds validation errors into one error value.
func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
