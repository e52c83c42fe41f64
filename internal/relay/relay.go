// Package relay implements the bidirectional forwarder between a user and
// the staff member bound to them. The relay resolves the destination through
// the session registry and passes content through unmodified; it routes by
// content kind only and never inspects payload bytes.
package relay

import (
	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/domain"
	"github.com/spec-kit/support-relay/internal/session"
	"github.com/spec-kit/support-relay/internal/transport"
)

// Role identifies the sending side of a relayed message.
type Role int

const (
	RoleUser Role = iota
	RoleStaff
)

// Relay resolves delivery destinations for inbound messages.
type Relay struct {
	registry *session.Registry
	logger   *zap.Logger
}

// New creates a relay over the registry.
func New(registry *session.Registry, logger *zap.Logger) *Relay {
	return &Relay{registry: registry, logger: logger}
}

// Relay produces the delivery instruction for content sent by senderID in
// the given role.
//
// User side: requires an active session; a waiting user is rejected with
// ErrNotWaiting's counterpart (session.ErrNotActiveOrWaiting is not used
// here — the caller words the notice), and a user parked in the
// disconnected-by-staff branch may only restart. A staff name missing from
// the roster is a consistency violation: the caller must tear the session
// down and inform the user.
//
// Staff side: requires a binding for the sender's staff chat; a message from
// an unbound staff chat yields session.ErrNoBinding and is dropped by the
// caller, tolerating stray chatter. A binding whose forward half disagrees
// yields session.ErrInconsistentBinding.
func (r *Relay) Relay(role Role, senderID int64, content domain.Content) (transport.Instruction, error) {
	switch role {
	case RoleUser:
		return r.fromUser(senderID, content)
	case RoleStaff:
		return r.fromStaff(senderID, content)
	default:
		return nil, session.ErrNotFound
	}
}

func (r *Relay) fromUser(userID int64, content domain.Content) (transport.Instruction, error) {
	switch r.registry.Phase(userID) {
	case domain.PhaseWaiting:
		return nil, session.ErrNotWaiting
	case domain.PhaseDisconnectedByStaff:
		return nil, session.ErrRestartRequired
	case domain.PhaseConnected:
	default:
		return nil, session.ErrNotActiveOrWaiting
	}

	staffName, ok := r.registry.StaffFor(userID)
	if !ok {
		return nil, session.ErrNotActiveOrWaiting
	}
	staff, ok := r.registry.StaffByName(staffName)
	if !ok {
		r.logger.Error("active session references unknown staff",
			zap.Int64("user_id", userID),
			zap.String("staff", staffName))
		return nil, session.ErrStaffRosterInconsistency
	}

	r.logger.Debug("relaying user message",
		zap.Int64("user_id", userID),
		zap.String("staff", staffName),
		zap.String("kind", string(content.Kind)))
	return transport.DeliverToStaffTopic{TopicID: staff.TopicID, Content: content}, nil
}

func (r *Relay) fromStaff(staffChatID int64, content domain.Content) (transport.Instruction, error) {
	userID, ok := r.registry.UserFor(staffChatID)
	if !ok {
		return nil, session.ErrNoBinding
	}

	staff, ok := r.registry.StaffByChat(staffChatID)
	if !ok {
		return nil, session.ErrStaffRosterInconsistency
	}
	staffName, ok := r.registry.StaffFor(userID)
	if !ok || staffName != staff.Name {
		r.logger.Error("staff binding does not agree with active session",
			zap.Int64("user_id", userID),
			zap.Int64("staff_chat_id", staffChatID))
		return nil, session.ErrInconsistentBinding
	}

	r.logger.Debug("relaying staff message",
		zap.Int64("user_id", userID),
		zap.String("staff", staffName),
		zap.String("kind", string(content.Kind)))
	return transport.DeliverToUser{UserID: userID, Content: content}, nil
}
