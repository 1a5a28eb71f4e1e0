package store

// ViewState is the per-user UI state kept in memory between requests: which
// screen the user is on, which prescription chat they focused, and the answer
// language they last picked. It is an explicit store keyed by user id, never
// process-global state.
type ViewState struct {
	UserID         string `json:"user_id"`
	View           string `json:"view"`            // "LIBRARY" | "CHAT"
	PrescriptionID string `json:"prescription_id"` // empty when the global chat is focused
	SessionID      string `json:"session_id"`
	Language       string `json:"language"`
	LastQuery      string `json:"last_query"`
}

const (
	ViewLibrary = "LIBRARY"
	ViewChat    = "CHAT"
)
