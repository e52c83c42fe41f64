package relay

import (
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/domain"
	"github.com/spec-kit/support-relay/internal/session"
	"github.com/spec-kit/support-relay/internal/transport"
)

func newTestRelay(t *testing.T) (*Relay, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry([]domain.StaffMember{
		{Name: "Aigerim", ChatID: 100, TopicID: 2},
		{Name: "Daniyar", ChatID: 200, TopicID: 4},
	})
	return New(registry, zap.NewNop()), registry
}

func connect(t *testing.T, registry *session.Registry, userID int64, staffName string) {
	t.Helper()
	if err := registry.EnterWaiting(userID); err != nil {
		t.Fatal(err)
	}
	if err := registry.Claim(staffName, userID); err != nil {
		t.Fatal(err)
	}
}

func TestRelayUserToStaff(t *testing.T) {
	r, registry := newTestRelay(t)
	connect(t, registry, 1, "Aigerim")

	content := domain.Content{Kind: domain.ContentImage, FileID: "photo-1", Caption: "см. скрин"}
	instruction, err := r.Relay(RoleUser, 1, content)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	deliver, ok := instruction.(transport.DeliverToStaffTopic)
	if !ok {
		t.Fatalf("instruction = %T", instruction)
	}
	if deliver.TopicID != 2 {
		t.Fatalf("topic = %d, want 2", deliver.TopicID)
	}
	if deliver.Content != content {
		t.Fatalf("content altered: %+v", deliver.Content)
	}
}

func TestRelayStaffToUser(t *testing.T) {
	r, registry := newTestRelay(t)
	connect(t, registry, 1, "Daniyar")

	content := domain.TextContent("Здравствуйте!")
	instruction, err := r.Relay(RoleStaff, 200, content)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	deliver, ok := instruction.(transport.DeliverToUser)
	if !ok {
		t.Fatalf("instruction = %T", instruction)
	}
	if deliver.UserID != 1 || deliver.Content != content {
		t.Fatalf("deliver = %+v", deliver)
	}
}

func TestRelayUserRejections(t *testing.T) {
	r, registry := newTestRelay(t)

	if _, err := r.Relay(RoleUser, 1, domain.TextContent("hi")); err != session.ErrNotActiveOrWaiting {
		t.Fatalf("idle user: %v, want ErrNotActiveOrWaiting", err)
	}

	if err := registry.EnterWaiting(1); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Relay(RoleUser, 1, domain.TextContent("hi")); err != session.ErrNotWaiting {
		t.Fatalf("waiting user: %v, want ErrNotWaiting", err)
	}

	connect(t, registry, 2, "Aigerim")
	if _, _, err := registry.ReleaseByStaff(100); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Relay(RoleUser, 2, domain.TextContent("hi")); err != session.ErrRestartRequired {
		t.Fatalf("parked user: %v, want ErrRestartRequired", err)
	}
}

func TestRelayStaffWithoutBinding(t *testing.T) {
	r, _ := newTestRelay(t)
	if _, err := r.Relay(RoleStaff, 100, domain.TextContent("hi")); err != session.ErrNoBinding {
		t.Fatalf("unbound staff: %v, want ErrNoBinding", err)
	}
}
