package scope

import "github.com/google/uuid"

// Kind says whether a question targets one prescription or all of them.
type Kind string

const (
	KindGlobal Kind = "GLOBAL"
	KindSingle Kind = "SINGLE"
)

// Scope is the retrieval boundary for one chat turn. The user id is always
// present; the prescription id only for single-prescription sessions.
type Scope struct {
	Kind           Kind
	UserID         uuid.UUID
	PrescriptionID *uuid.UUID
}

// Resolve derives the scope from the session binding. It is a pure function:
// a nil prescription id means the session spans all of the user's
// prescriptions, a non-nil one pins the session to that prescription. No
// guessing from the question text.
func Resolve(userID uuid.UUID, prescriptionID *uuid.UUID) Scope {
	if prescriptionID == nil {
		return Scope{Kind: KindGlobal, UserID: userID}
	}
	id := *prescriptionID
	return Scope{Kind: KindSingle, UserID: userID, PrescriptionID: &id}
}
