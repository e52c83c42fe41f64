package session

import "errors"

// Precondition violations: expected, recoverable, surfaced to the caller as
// a notice and never escalated.
var (
	ErrAlreadyActive      = errors.New("user is already waiting or connected")
	ErrNotWaiting         = errors.New("user is not waiting for a connection")
	ErrNotActiveOrWaiting = errors.New("user is neither waiting nor connected")
	ErrNoBinding          = errors.New("staff member has no bound user")
	ErrNotFound           = errors.New("user has no session state")
	ErrNothingToStop      = errors.New("nothing to stop")
	ErrUnknownStaff       = errors.New("staff member is not on the roster")
	ErrBanned             = errors.New("user is banned")
	ErrNotRegistered      = errors.New("user is not registered")
	ErrRestartRequired    = errors.New("user was disconnected by staff and must restart")
)

// Consistency violations: the registry's two halves disagree. The affected
// session is forcibly torn down to restore a consistent state.
var (
	ErrInconsistentBinding      = errors.New("staff binding does not match active session")
	ErrStaffRosterInconsistency = errors.New("active session references staff missing from roster")
)
