package domain

// ConnectionPhase enumerates a user's position in the session lifecycle.
type ConnectionPhase string

const (
	PhaseIdle ConnectionPhase = "IDLE"
	// PhaseWaiting means the user requested a session and no staff member
	// has claimed it yet.
	PhaseWaiting ConnectionPhase = "WAITING"
	// PhaseConnected means a staff member is bound to the user and the
	// relay is open in both directions.
	PhaseConnected ConnectionPhase = "CONNECTED"
	// PhaseDisconnectedByStaff is the absorbing side branch entered when
	// the staff side hangs up. The user may only restart or request a new
	// session; everything else is rejected until then.
	PhaseDisconnectedByStaff ConnectionPhase = "DISCONNECTED_BY_STAFF"
)

// UserState is the per-user sum of phase plus, while connected, the name of
// the staff member bound to the user. Absence of a record means PhaseIdle.
type UserState struct {
	Phase     ConnectionPhase
	StaffName string
}
