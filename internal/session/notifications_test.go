package session

import "testing"

func TestTrackerConsumeIsReadOnce(t *testing.T) {
	tr := NewNotificationTracker()
	tr.Track(1, 42)

	entry, ok := tr.Consume(1)
	if !ok || entry.MessageID != 42 {
		t.Fatalf("Consume = %+v, %v", entry, ok)
	}
	if _, ok := tr.Consume(1); ok {
		t.Fatal("second Consume must miss")
	}
	if tr.Len() != 0 {
		t.Fatalf("Len = %d, want 0", tr.Len())
	}
}

func TestTrackerMarkClaimed(t *testing.T) {
	tr := NewNotificationTracker()
	tr.MarkClaimed(1, "Aigerim") // no entry yet, must not create one
	if tr.Len() != 0 {
		t.Fatal("MarkClaimed must not create entries")
	}

	tr.Track(1, 42)
	tr.MarkClaimed(1, "Aigerim")
	entry, ok := tr.Peek(1)
	if !ok || entry.ClaimedBy != "Aigerim" {
		t.Fatalf("Peek = %+v, %v", entry, ok)
	}
}

func TestTrackerConsumeIfClaimant(t *testing.T) {
	tr := NewNotificationTracker()
	tr.Track(1, 42)
	tr.MarkClaimed(1, "Aigerim")

	if _, ok := tr.ConsumeIfClaimant(1, "Daniyar"); ok {
		t.Fatal("mismatched claimant must not consume")
	}
	if tr.Len() != 1 {
		t.Fatal("entry must survive a mismatched consume")
	}

	entry, ok := tr.ConsumeIfClaimant(1, "Aigerim")
	if !ok || entry.MessageID != 42 {
		t.Fatalf("ConsumeIfClaimant = %+v, %v", entry, ok)
	}
	if tr.Len() != 0 {
		t.Fatal("entry must be gone")
	}
}

func TestTrackerRetrackOverwrites(t *testing.T) {
	tr := NewNotificationTracker()
	tr.Track(1, 42)
	tr.MarkClaimed(1, "Aigerim")
	tr.Track(1, 77)

	entry, _ := tr.Peek(1)
	if entry.MessageID != 77 || entry.ClaimedBy != "" {
		t.Fatalf("retrack must reset the entry, got %+v", entry)
	}
}
