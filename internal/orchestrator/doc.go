// Package orchestrator sequences one generation run through its eight
// pipeline phases: configuration, validation, API connection, loading
// and resolution, prompt generation, manifest preparation, image
// generation, finalization.
//
// The phases execute strictly sequentially; each phase's output is the
// next phase's precondition. All run state lives in one run context
// created at orchestration start - no process-wide singletons.
//
// Failure classification follows the error taxonomy: any phase 1-5
// failure aborts before a manifest exists and surfaces directly to the
// caller; any failure during phases 6-8 still leaves the manifest in a
// terminal state, enforced by a deferred abort sweep.
//
// Status reporting is an explicit, replayable event log (phase-started,
// phase-completed, job-updated, run-finished) stamped with a monotonic
// logical sequence. Any collaborator - CLI, web API - can observe the
// stream without coupling the core to presentation.
package orchestrator
