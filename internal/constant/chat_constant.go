package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// GlobalSessionTitle is the title of the one session that spans all of a
	// user's prescriptions.
	GlobalSessionTitle = "All Prescriptions"

	// ChatErrorAnswer is returned to the caller when a turn aborts. It is
	// never persisted.
	ChatErrorAnswer = "Sorry, something went wrong while answering. Please try again."
)
