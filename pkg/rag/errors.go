package rag

import "errors"

// Sentinel failures of the conversational retrieval engine. Callers check
// these with errors.Is; the concrete cause is wrapped alongside.
var (
	// ErrRetrievalUnavailable means the vector search backend (or the query
	// embedder in front of it) failed or timed out. Distinct from an empty
	// result, which is not an error.
	ErrRetrievalUnavailable = errors.New("retrieval backend unavailable")

	// ErrGenerationUnavailable means the answer model failed or timed out.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")
)
