package services

import "fmt"

// Error taxonomy for the video analysis pipeline. Handlers map these to HTTP
// status codes; everything else bubbles up as a generic 500.

// ValidationError: the caller's input is structurally or semantically invalid
// and can be corrected client-side.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError: a referenced video/analysis/profile does not exist or is not
// owned by the caller.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// UploadError: the blob store rejected the upload. No partial state exists;
// the caller retries the whole flow.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload failed: %v", e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// FetchError: the scoring client could not retrieve the video bytes. Status
// is the upstream HTTP status, or zero for transport failures.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch video failed: upstream status %d", e.Status)
	}
	return fmt.Sprintf("fetch video failed: %v", e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }

// MalformedResponseError: the model returned text that does not parse into the
// required result shape. Never coerced to defaults.
type MalformedResponseError struct {
	Msg string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("malformed model response: %s", e.Msg)
}
func (e *MalformedResponseError) Unwrap() error { return e.Err }

// AnalysisError wraps a scoring failure with the pipeline stage it came from.
// By the time it surfaces, the video record has already been marked failed.
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string { return fmt.Sprintf("analysis failed at %s: %v", e.Stage, e.Err) }
func (e *AnalysisError) Unwrap() error { return e.Err }

// Distinct read-layer not-found cases, so callers can render "still
// processing" vs "never uploaded".
var (
	ErrNoVideos        = &NotFoundError{Msg: "no videos found for this player"}
	ErrAnalysisPending = &NotFoundError{Msg: "analysis not completed yet"}
)
