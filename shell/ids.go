package shell

import "github.com/google/uuid"

// NewSessionID mints a session id for a new shell tab, in the string-uuid
// form the wire protocol requires for session_id.
func NewSessionID() string {
	return uuid.New().String()
}

// NewRunID mints a fresh id for one Evaluate call; events carrying this run
// id route to the ShellTab that started it.
func NewRunID() string {
	return uuid.New().String()
}
