package session

import (
	"sort"
	"sync"

	"github.com/spec-kit/support-relay/internal/domain"
)

// ReleaseBranch reports which partition a release tore down, so callers can
// word the resulting notices.
type ReleaseBranch int

const (
	ReleasedWaiting ReleaseBranch = iota
	ReleasedActive
)

// ActiveSession is a snapshot row for listing.
type ActiveSession struct {
	UserID    int64
	StaffName string
}

// Registry is the authoritative map of per-user connection state and
// per-staff assignment. All mutations happen under a single mutex; every
// method is a complete read-modify-write sequence, so the claim race between
// two staff members is resolved by whichever call takes the lock first.
//
// Invariants maintained:
//   - a user is in at most one of waiting/connected;
//   - bindings[staffChatID] == userID iff users[userID] is connected to that
//     staff member; the pair is always updated together.
type Registry struct {
	mu       sync.Mutex
	users    map[int64]domain.UserState
	bindings map[int64]int64 // staff chat id -> user id
	byName   map[string]*domain.StaffMember
	byChat   map[int64]*domain.StaffMember
}

// NewRegistry builds a registry over the fixed staff roster. Roster entries
// start with StaffStatusOpen; members are never added or removed at runtime.
func NewRegistry(roster []domain.StaffMember) *Registry {
	r := &Registry{
		users:    make(map[int64]domain.UserState),
		bindings: make(map[int64]int64),
		byName:   make(map[string]*domain.StaffMember, len(roster)),
		byChat:   make(map[int64]*domain.StaffMember, len(roster)),
	}
	for i := range roster {
		member := roster[i]
		member.Status = domain.StaffStatusOpen
		r.byName[member.Name] = &member
		r.byChat[member.ChatID] = &member
	}
	return r
}

// EnterWaiting moves an idle user into the waiting partition. A user parked
// in the disconnected-by-staff branch may re-enter here; that is one of the
// two actions allowed to clear the branch.
func (r *Registry) EnterWaiting(userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.users[userID].Phase {
	case domain.PhaseWaiting, domain.PhaseConnected:
		return ErrAlreadyActive
	}
	r.users[userID] = domain.UserState{Phase: domain.PhaseWaiting}
	return nil
}

// Claim atomically moves a waiting user to connected, records the reverse
// staff binding and marks the staff member busy. Exactly one of two racing
// claims succeeds; the loser observes ErrNotWaiting.
func (r *Registry) Claim(staffName string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staff, ok := r.byName[staffName]
	if !ok {
		return ErrUnknownStaff
	}
	if r.users[userID].Phase != domain.PhaseWaiting {
		return ErrNotWaiting
	}
	r.users[userID] = domain.UserState{Phase: domain.PhaseConnected, StaffName: staffName}
	r.bindings[staff.ChatID] = userID
	staff.Status = domain.StaffStatusBusy
	return nil
}

// ReleaseByUser tears down the user's session from the user side, reporting
// which partition held it and, for the active branch, the staff member that
// was bound.
func (r *Registry) ReleaseByUser(userID int64) (ReleaseBranch, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.users[userID]
	switch state.Phase {
	case domain.PhaseWaiting:
		delete(r.users, userID)
		return ReleasedWaiting, "", nil
	case domain.PhaseConnected:
		r.teardownActiveLocked(userID, state.StaffName)
		return ReleasedActive, state.StaffName, nil
	default:
		return 0, "", ErrNotActiveOrWaiting
	}
}

// ReleaseByStaff tears down the session bound to staffChatID from the staff
// side and parks the user in the disconnected-by-staff branch. A binding
// whose forward half does not point back at this staff member is surfaced as
// ErrInconsistentBinding, not silently repaired.
func (r *Registry) ReleaseByStaff(staffChatID int64) (int64, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.bindings[staffChatID]
	if !ok {
		return 0, "", ErrNoBinding
	}
	staff, ok := r.byChat[staffChatID]
	if !ok {
		return userID, "", ErrStaffRosterInconsistency
	}
	state := r.users[userID]
	if state.Phase != domain.PhaseConnected || state.StaffName != staff.Name {
		return userID, staff.Name, ErrInconsistentBinding
	}
	delete(r.bindings, staffChatID)
	staff.Status = domain.StaffStatusOpen
	r.users[userID] = domain.UserState{Phase: domain.PhaseDisconnectedByStaff}
	return userID, staff.Name, nil
}

// ForceRelease is the administrative override: it removes the user from
// whichever partition holds them, tearing down any staff binding pointing at
// them. Returns the staff name that was bound, if any.
func (r *Registry) ForceRelease(userID int64) (ReleaseBranch, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.users[userID]
	switch state.Phase {
	case domain.PhaseWaiting:
		delete(r.users, userID)
		return ReleasedWaiting, "", nil
	case domain.PhaseConnected:
		r.teardownActiveLocked(userID, state.StaffName)
		return ReleasedActive, state.StaffName, nil
	case domain.PhaseDisconnectedByStaff:
		delete(r.users, userID)
		return ReleasedWaiting, "", nil
	default:
		return 0, "", ErrNotFound
	}
}

// ClearDisconnected resets the disconnected-by-staff branch, allowing the
// user to act again. No-op for any other phase.
func (r *Registry) ClearDisconnected(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.users[userID].Phase == domain.PhaseDisconnectedByStaff {
		delete(r.users, userID)
	}
}

func (r *Registry) teardownActiveLocked(userID int64, staffName string) {
	delete(r.users, userID)
	if staff, ok := r.byName[staffName]; ok {
		delete(r.bindings, staff.ChatID)
		staff.Status = domain.StaffStatusOpen
	}
}

// Phase reports the user's current connection phase.
func (r *Registry) Phase(userID int64) domain.ConnectionPhase {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.users[userID]
	if !ok {
		return domain.PhaseIdle
	}
	return state.Phase
}

// IsWaiting reports whether the user awaits a claim.
func (r *Registry) IsWaiting(userID int64) bool {
	return r.Phase(userID) == domain.PhaseWaiting
}

// IsActive reports whether the user has an open session.
func (r *Registry) IsActive(userID int64) bool {
	return r.Phase(userID) == domain.PhaseConnected
}

// StaffFor resolves the staff member bound to an active user.
func (r *Registry) StaffFor(userID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.users[userID]
	if state.Phase != domain.PhaseConnected {
		return "", false
	}
	return state.StaffName, true
}

// UserFor resolves the user bound to a staff chat.
func (r *Registry) UserFor(staffChatID int64) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.bindings[staffChatID]
	return userID, ok
}

// StaffByName looks up a roster member by unique name.
func (r *Registry) StaffByName(name string) (domain.StaffMember, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staff, ok := r.byName[name]
	if !ok {
		return domain.StaffMember{}, false
	}
	return *staff, true
}

// StaffByChat looks up a roster member by staff chat id.
func (r *Registry) StaffByChat(chatID int64) (domain.StaffMember, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staff, ok := r.byChat[chatID]
	if !ok {
		return domain.StaffMember{}, false
	}
	return *staff, true
}

// ActiveSessions snapshots the connected partition, ordered by user id.
func (r *Registry) ActiveSessions() []ActiveSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []ActiveSession
	for userID, state := range r.users {
		if state.Phase == domain.PhaseConnected {
			out = append(out, ActiveSession{UserID: userID, StaffName: state.StaffName})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// WaitingUsers snapshots the waiting partition, ordered by user id.
func (r *Registry) WaitingUsers() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []int64
	for userID, state := range r.users {
		if state.Phase == domain.PhaseWaiting {
			out = append(out, userID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
