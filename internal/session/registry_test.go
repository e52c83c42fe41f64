package session

import (
	"sync"
	"testing"

	"github.com/spec-kit/support-relay/internal/domain"
)

func testRoster() []domain.StaffMember {
	return []domain.StaffMember{
		{Name: "Aigerim", ChatID: 100, TopicID: 2},
		{Name: "Daniyar", ChatID: 200, TopicID: 4},
	}
}

func TestEnterWaiting(t *testing.T) {
	r := NewRegistry(testRoster())

	if err := r.EnterWaiting(1); err != nil {
		t.Fatalf("EnterWaiting: %v", err)
	}
	if !r.IsWaiting(1) {
		t.Fatal("user should be waiting")
	}
	if err := r.EnterWaiting(1); err != ErrAlreadyActive {
		t.Fatalf("second EnterWaiting = %v, want ErrAlreadyActive", err)
	}
}

func TestClaimMovesUserToConnected(t *testing.T) {
	r := NewRegistry(testRoster())
	if err := r.EnterWaiting(1); err != nil {
		t.Fatal(err)
	}
	if err := r.Claim("Aigerim", 1); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if !r.IsActive(1) {
		t.Fatal("user should be connected")
	}
	staffName, ok := r.StaffFor(1)
	if !ok || staffName != "Aigerim" {
		t.Fatalf("StaffFor = %q, %v", staffName, ok)
	}
	userID, ok := r.UserFor(100)
	if !ok || userID != 1 {
		t.Fatalf("UserFor = %d, %v", userID, ok)
	}
	staff, _ := r.StaffByName("Aigerim")
	if staff.Status != domain.StaffStatusBusy {
		t.Fatalf("staff status = %s, want BUSY", staff.Status)
	}
}

func TestClaimRejectsNonWaitingUser(t *testing.T) {
	r := NewRegistry(testRoster())

	if err := r.Claim("Aigerim", 1); err != ErrNotWaiting {
		t.Fatalf("Claim on idle user = %v, want ErrNotWaiting", err)
	}
	if err := r.Claim("Nobody", 1); err != ErrUnknownStaff {
		t.Fatalf("Claim by unknown staff = %v, want ErrUnknownStaff", err)
	}
}

func TestOnlyOneOfTwoRacingClaimsWins(t *testing.T) {
	r := NewRegistry(testRoster())
	if err := r.EnterWaiting(1); err != nil {
		t.Fatal(err)
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); errs <- r.Claim("Aigerim", 1) }()
	go func() { defer wg.Done(); errs <- r.Claim("Daniyar", 1) }()
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		switch err {
		case nil:
			wins++
		case ErrNotWaiting:
			losses++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins=%d losses=%d, want exactly one of each", wins, losses)
	}

	staffName, _ := r.StaffFor(1)
	staff, _ := r.StaffByName(staffName)
	userID, ok := r.UserFor(staff.ChatID)
	if !ok || userID != 1 {
		t.Fatalf("binding for winner %q broken: %d, %v", staffName, userID, ok)
	}
}

func TestReleaseByUserWaitingBranch(t *testing.T) {
	r := NewRegistry(testRoster())
	if err := r.EnterWaiting(1); err != nil {
		t.Fatal(err)
	}

	branch, staffName, err := r.ReleaseByUser(1)
	if err != nil {
		t.Fatalf("ReleaseByUser: %v", err)
	}
	if branch != ReleasedWaiting || staffName != "" {
		t.Fatalf("branch=%v staff=%q", branch, staffName)
	}
	if r.Phase(1) != domain.PhaseIdle {
		t.Fatal("user should be idle")
	}
}

func TestReleaseByUserActiveBranch(t *testing.T) {
	r := NewRegistry(testRoster())
	mustConnect(t, r, 1, "Aigerim")

	branch, staffName, err := r.ReleaseByUser(1)
	if err != nil {
		t.Fatalf("ReleaseByUser: %v", err)
	}
	if branch != ReleasedActive || staffName != "Aigerim" {
		t.Fatalf("branch=%v staff=%q", branch, staffName)
	}
	if _, ok := r.UserFor(100); ok {
		t.Fatal("binding should be gone")
	}
	staff, _ := r.StaffByName("Aigerim")
	if staff.Status != domain.StaffStatusOpen {
		t.Fatalf("staff status = %s, want OPEN", staff.Status)
	}
}

func TestReleaseByUserIdle(t *testing.T) {
	r := NewRegistry(testRoster())
	if _, _, err := r.ReleaseByUser(1); err != ErrNotActiveOrWaiting {
		t.Fatalf("ReleaseByUser on idle = %v, want ErrNotActiveOrWaiting", err)
	}
}

func TestReleaseByStaffParksUserDisconnected(t *testing.T) {
	r := NewRegistry(testRoster())
	mustConnect(t, r, 1, "Aigerim")

	userID, staffName, err := r.ReleaseByStaff(100)
	if err != nil {
		t.Fatalf("ReleaseByStaff: %v", err)
	}
	if userID != 1 || staffName != "Aigerim" {
		t.Fatalf("userID=%d staff=%q", userID, staffName)
	}
	if r.Phase(1) != domain.PhaseDisconnectedByStaff {
		t.Fatalf("phase = %s, want DISCONNECTED_BY_STAFF", r.Phase(1))
	}

	// Parked user cannot act until the branch is cleared.
	if err := r.EnterWaiting(1); err != nil {
		t.Fatalf("re-entering waiting should clear the branch: %v", err)
	}
	if !r.IsWaiting(1) {
		t.Fatal("user should be waiting again")
	}
}

func TestReleaseByStaffNoBinding(t *testing.T) {
	r := NewRegistry(testRoster())
	if _, _, err := r.ReleaseByStaff(100); err != ErrNoBinding {
		t.Fatalf("ReleaseByStaff = %v, want ErrNoBinding", err)
	}
}

func TestClearDisconnected(t *testing.T) {
	r := NewRegistry(testRoster())
	mustConnect(t, r, 1, "Aigerim")
	if _, _, err := r.ReleaseByStaff(100); err != nil {
		t.Fatal(err)
	}

	r.ClearDisconnected(1)
	if r.Phase(1) != domain.PhaseIdle {
		t.Fatal("user should be idle after clearing")
	}

	// No-op for other phases.
	if err := r.EnterWaiting(2); err != nil {
		t.Fatal(err)
	}
	r.ClearDisconnected(2)
	if !r.IsWaiting(2) {
		t.Fatal("waiting user must be untouched")
	}
}

func TestForceRelease(t *testing.T) {
	r := NewRegistry(testRoster())

	if _, _, err := r.ForceRelease(1); err != ErrNotFound {
		t.Fatalf("ForceRelease on idle = %v, want ErrNotFound", err)
	}

	if err := r.EnterWaiting(1); err != nil {
		t.Fatal(err)
	}
	if branch, _, err := r.ForceRelease(1); err != nil || branch != ReleasedWaiting {
		t.Fatalf("waiting: branch=%v err=%v", branch, err)
	}

	mustConnect(t, r, 2, "Daniyar")
	branch, staffName, err := r.ForceRelease(2)
	if err != nil || branch != ReleasedActive || staffName != "Daniyar" {
		t.Fatalf("active: branch=%v staff=%q err=%v", branch, staffName, err)
	}
	if _, ok := r.UserFor(200); ok {
		t.Fatal("binding should be gone")
	}

	mustConnect(t, r, 3, "Daniyar")
	if _, _, err := r.ReleaseByStaff(200); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.ForceRelease(3); err != nil {
		t.Fatalf("disconnected: %v", err)
	}
	if r.Phase(3) != domain.PhaseIdle {
		t.Fatal("user should be idle")
	}
}

func TestSnapshotsAreOrdered(t *testing.T) {
	r := NewRegistry(testRoster())
	mustConnect(t, r, 9, "Aigerim")
	mustConnect(t, r, 3, "Daniyar")
	if err := r.EnterWaiting(7); err != nil {
		t.Fatal(err)
	}
	if err := r.EnterWaiting(5); err != nil {
		t.Fatal(err)
	}

	active := r.ActiveSessions()
	if len(active) != 2 || active[0].UserID != 3 || active[1].UserID != 9 {
		t.Fatalf("active snapshot = %+v", active)
	}
	waiting := r.WaitingUsers()
	if len(waiting) != 2 || waiting[0] != 5 || waiting[1] != 7 {
		t.Fatalf("waiting snapshot = %v", waiting)
	}
}

func mustConnect(t *testing.T, r *Registry, userID int64, staffName string) {
	t.Helper()
	if err := r.EnterWaiting(userID); err != nil {
		t.Fatalf("EnterWaiting(%d): %v", userID, err)
	}
	if err := r.Claim(staffName, userID); err != nil {
		t.Fatalf("Claim(%q, %d): %v", staffName, userID, err)
	}
}
