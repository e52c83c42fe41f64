package session

import "sync"

// NotificationEntry pairs a pending connection request with the outbound
// message advertising it, plus the staff name recorded at claim time.
type NotificationEntry struct {
	MessageID int64
	ClaimedBy string
}

// NotificationTracker maps a user's pending connection request to the
// notification message that advertises it, so later transitions can edit or
// close it. Entries are consumed (read once, then deleted) on teardown and
// must not outlive the user's presence in waiting or connected state.
type NotificationTracker struct {
	mu      sync.Mutex
	entries map[int64]NotificationEntry
}

// NewNotificationTracker returns an empty tracker.
func NewNotificationTracker() *NotificationTracker {
	return &NotificationTracker{entries: make(map[int64]NotificationEntry)}
}

// Track records the message id advertising userID's request. Called by the
// transport executor once the notification has actually been posted.
func (t *NotificationTracker) Track(userID, messageID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[userID] = NotificationEntry{MessageID: messageID}
}

// MarkClaimed records which staff member claimed the request.
func (t *NotificationTracker) MarkClaimed(userID int64, staffName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[userID]
	if !ok {
		return
	}
	entry.ClaimedBy = staffName
	t.entries[userID] = entry
}

// Consume removes and returns the entry for userID, if any.
func (t *NotificationTracker) Consume(userID int64) (NotificationEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[userID]
	if ok {
		delete(t.entries, userID)
	}
	return entry, ok
}

// ConsumeIfClaimant removes and returns the entry only when its recorded
// claimant matches staffName. A mismatched entry belongs to a different
// session generation and is left alone.
func (t *NotificationTracker) ConsumeIfClaimant(userID int64, staffName string) (NotificationEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[userID]
	if !ok || entry.ClaimedBy != staffName {
		return NotificationEntry{}, false
	}
	delete(t.entries, userID)
	return entry, true
}

// Peek returns the entry without consuming it.
func (t *NotificationTracker) Peek(userID int64) (NotificationEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[userID]
	return entry, ok
}

// Len reports the number of tracked notifications.
func (t *NotificationTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}
