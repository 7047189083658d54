package summary

import "errors"

var (
	// ErrNoCandidates means the model returned no candidate or choice.
	ErrNoCandidates = errors.New("no candidates in model response")
	// ErrNoContent means the first candidate had no text part.
	ErrNoContent = errors.New("no content in model response")
	// ErrDecode means the model output did not match the expected schema.
	ErrDecode = errors.New("model output does not match schema")
	// ErrEmptySummary means a README summary decoded to an empty string.
	ErrEmptySummary = errors.New("empty README summary")
)
