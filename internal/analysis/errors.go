package analysis

import "errors"

// Stage errors of the analysis pipeline. None of them ever reach the
// callers of AnalyzeVitals/AnalyzeReport: every variant is recovered
// locally by funneling to the rule-based fallback. They exist so the
// orchestrator can log which stage degraded the result.
var (
	// ErrNotConfigured means no AI credential is present; detected
	// eagerly, before any network call.
	ErrNotConfigured = errors.New("ai analysis not configured")

	// ErrNoModelAvailable means every candidate model failed its probe.
	ErrNoModelAvailable = errors.New("no model available")

	// ErrModelInvocationFailed means the resolved model errored or
	// timed out on the real request.
	ErrModelInvocationFailed = errors.New("model invocation failed")

	// ErrUnparsableResponse means the raw model text contained no valid
	// JSON, or a required field was absent in a way defaulting cannot
	// repair.
	ErrUnparsableResponse = errors.New("unparsable model response")

	// ErrAttachmentDownloadFailed means the report file could not be
	// fetched.
	ErrAttachmentDownloadFailed = errors.New("attachment download failed")
)
