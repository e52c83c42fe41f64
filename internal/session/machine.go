package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/domain"
	"github.com/spec-kit/support-relay/internal/text"
	"github.com/spec-kit/support-relay/internal/transport"
)

// ProfileStore is the user-profile collaborator consumed by the core.
type ProfileStore interface {
	Get(ctx context.Context, userID int64) (*domain.Profile, error)
	IsRegistered(ctx context.Context, userID int64) (bool, error)
}

// BanList is the ban collaborator consumed by the core.
type BanList interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

// Notification and topic status markers.
const (
	markerOpen   = "🟢"
	markerBusy   = "🟡"
	markerClosed = "🔴"
)

// StateMachine implements the connection lifecycle transitions. Each
// transition validates registry invariants and returns side-effect
// instructions as data; it performs no I/O of its own beyond collaborator
// reads, so nothing blocks while the registry lock is held.
type StateMachine struct {
	registry *Registry
	tracker  *NotificationTracker
	profiles ProfileStore
	bans     BanList
	logger   *zap.Logger
}

// Dependencies bundles the state machine collaborators.
type Dependencies struct {
	Registry *Registry
	Tracker  *NotificationTracker
	Profiles ProfileStore
	Bans     BanList
	Logger   *zap.Logger
}

// NewStateMachine creates the machine.
func NewStateMachine(deps Dependencies) *StateMachine {
	return &StateMachine{
		registry: deps.Registry,
		tracker:  deps.Tracker,
		profiles: deps.Profiles,
		bans:     deps.Bans,
		logger:   deps.Logger,
	}
}

// StartWaiting moves an idle user into the waiting partition and advertises
// the pending request to the staff side.
func (m *StateMachine) StartWaiting(ctx context.Context, userID int64) ([]transport.Instruction, error) {
	if banned, err := m.bans.IsBanned(ctx, userID); err == nil && banned {
		return nil, ErrBanned
	}
	registered, err := m.profiles.IsRegistered(ctx, userID)
	if err != nil {
		m.logger.Warn("registration check failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	if !registered {
		return nil, ErrNotRegistered
	}

	// Starting a chat is one of the two actions that clears the
	// disconnected-by-staff branch.
	m.registry.ClearDisconnected(userID)

	if err := m.registry.EnterWaiting(userID); err != nil {
		return nil, err
	}

	profile := m.profileOf(ctx, userID)
	m.logger.Info("session requested",
		zap.Int64("user_id", userID))

	return []transport.Instruction{
		transport.NotifyUser{UserID: userID, Text: text.Get(text.KeyWaitingForStaff, profile.Language)},
		transport.CreateNotification{
			UserID: userID,
			Text:   notificationText(profile, markerOpen+"|open"),
			Action: fmt.Sprintf("connect_%d", userID),
		},
	}, nil
}

// Claim binds a staff member to a waiting user. A claim for a user who is no
// longer waiting is a soft failure: the claim affordance was stale, the
// claimant is informed and nothing crashes. When the stale request was
// abandoned (no newer session claimed it), the lingering notification is
// closed.
func (m *StateMachine) Claim(ctx context.Context, staffChatID, userID int64) ([]transport.Instruction, error) {
	staff, ok := m.registry.StaffByChat(staffChatID)
	if !ok {
		return nil, ErrUnknownStaff
	}

	if err := m.registry.Claim(staff.Name, userID); err != nil {
		if !errors.Is(err, ErrNotWaiting) {
			return nil, err
		}
		m.logger.Info("stale claim",
			zap.Int64("user_id", userID),
			zap.String("staff", staff.Name))
		// Another staff member may have won the race; their claimed
		// notification must stay visible.
		if m.registry.IsActive(userID) {
			return nil, ErrNotWaiting
		}
		entry, tracked := m.tracker.Consume(userID)
		if !tracked {
			return nil, ErrNotWaiting
		}
		return []transport.Instruction{
			transport.CloseNotification{
				UserID:    userID,
				MessageID: entry.MessageID,
				Text:      notificationText(m.profileOf(ctx, userID), markerClosed+"|closed"),
			},
		}, ErrNotWaiting
	}

	m.tracker.MarkClaimed(userID, staff.Name)
	profile := m.profileOf(ctx, userID)
	m.logger.Info("session claimed",
		zap.Int64("user_id", userID),
		zap.String("staff", staff.Name))

	instructions := []transport.Instruction{
		transport.RenameTopic{TopicID: staff.TopicID, Title: markerBusy + "|" + staff.Name},
		transport.NotifyUser{
			UserID: userID,
			Text:   fmt.Sprintf(text.Get(text.KeyStaffConnected, profile.Language), staff.Name),
		},
		transport.NotifyStaff{
			TopicID: staff.TopicID,
			Text:    profileCard(profile) + "\nYou are connected. Type /stop to end the session.",
		},
	}
	if entry, ok := m.tracker.Peek(userID); ok {
		instructions = append([]transport.Instruction{
			transport.UpdateNotification{
				UserID:    userID,
				MessageID: entry.MessageID,
				Text:      notificationText(profile, markerBusy+"|"+staff.Name),
			},
		}, instructions...)
	}
	return instructions, nil
}

// UserDisconnect tears down the user's session from the user side.
func (m *StateMachine) UserDisconnect(ctx context.Context, userID int64) ([]transport.Instruction, error) {
	branch, staffName, err := m.registry.ReleaseByUser(userID)
	if err != nil {
		return nil, ErrNothingToStop
	}

	profile := m.profileOf(ctx, userID)
	instructions := []transport.Instruction{
		transport.NotifyUser{UserID: userID, Text: text.Get(text.KeyStoppedByUser, profile.Language)},
	}

	if branch == ReleasedWaiting {
		m.logger.Info("session cancelled while waiting", zap.Int64("user_id", userID))
		if entry, ok := m.tracker.Consume(userID); ok {
			instructions = append(instructions, transport.CloseNotification{
				UserID:    userID,
				MessageID: entry.MessageID,
				Text:      notificationText(profile, markerClosed+"|closed"),
			})
		}
		return instructions, nil
	}

	m.logger.Info("session ended by user",
		zap.Int64("user_id", userID),
		zap.String("staff", staffName))
	if staff, ok := m.registry.StaffByName(staffName); ok {
		instructions = append(instructions,
			transport.NotifyStaff{TopicID: staff.TopicID, Text: "Connection terminated by the user."},
			transport.RenameTopic{TopicID: staff.TopicID, Title: markerOpen + "|" + staff.Name},
		)
	}
	if entry, ok := m.tracker.ConsumeIfClaimant(userID, staffName); ok {
		instructions = append(instructions, transport.CloseNotification{
			UserID:    userID,
			MessageID: entry.MessageID,
			Text:      notificationText(profile, markerClosed+"|closed"),
		})
	}
	return instructions, nil
}

// StaffDisconnect tears down the session bound to staffChatID from the staff
// side and parks the user in the disconnected-by-staff branch. A missing
// binding is reported as ErrNoBinding so the caller can drop the event
// silently; an inconsistent binding is logged, the session is forcibly torn
// down and both parties are told the link broke.
func (m *StateMachine) StaffDisconnect(ctx context.Context, staffChatID int64) ([]transport.Instruction, error) {
	userID, staffName, err := m.registry.ReleaseByStaff(staffChatID)
	if err != nil {
		if errors.Is(err, ErrInconsistentBinding) || errors.Is(err, ErrStaffRosterInconsistency) {
			return m.healBrokenLink(ctx, userID, staffName, err), err
		}
		return nil, err
	}

	profile := m.profileOf(ctx, userID)
	m.logger.Info("session ended by staff",
		zap.Int64("user_id", userID),
		zap.String("staff", staffName))

	instructions := []transport.Instruction{
		transport.NotifyUser{UserID: userID, Text: text.Get(text.KeyStoppedByStaff, profile.Language)},
	}
	if staff, ok := m.registry.StaffByName(staffName); ok {
		instructions = append(instructions,
			transport.NotifyStaff{TopicID: staff.TopicID, Text: "Connection terminated by you."},
			transport.RenameTopic{TopicID: staff.TopicID, Title: markerOpen + "|" + staff.Name},
		)
	}
	if entry, ok := m.tracker.ConsumeIfClaimant(userID, staffName); ok {
		instructions = append(instructions, transport.CloseNotification{
			UserID:    userID,
			MessageID: entry.MessageID,
			Text:      notificationText(profile, markerClosed+"|closed"),
		})
	}
	return instructions, nil
}

// ForceDisconnect is the administrative override, usable regardless of the
// partition holding the user.
func (m *StateMachine) ForceDisconnect(ctx context.Context, userID int64) ([]transport.Instruction, error) {
	branch, staffName, err := m.registry.ForceRelease(userID)
	if err != nil {
		return nil, err
	}

	profile := m.profileOf(ctx, userID)
	m.logger.Info("session force-released",
		zap.Int64("user_id", userID),
		zap.String("staff", staffName),
		zap.Bool("was_active", branch == ReleasedActive))

	instructions := []transport.Instruction{
		transport.NotifyUser{UserID: userID, Text: text.Get(text.KeyStoppedForcibly, profile.Language)},
	}
	if staffName != "" {
		if staff, ok := m.registry.StaffByName(staffName); ok {
			instructions = append(instructions,
				transport.NotifyStaff{TopicID: staff.TopicID, Text: "Connection was forcibly closed."},
				transport.RenameTopic{TopicID: staff.TopicID, Title: markerOpen + "|" + staff.Name},
			)
		}
	}
	if entry, ok := m.tracker.Consume(userID); ok {
		instructions = append(instructions, transport.CloseNotification{
			UserID:    userID,
			MessageID: entry.MessageID,
			Text:      notificationText(profile, markerClosed+"|closed"),
		})
	}
	return instructions, nil
}

// Teardown forcibly releases a session after a consistency violation
// surfaced outside the machine, notifying both parties.
func (m *StateMachine) Teardown(ctx context.Context, userID int64, cause error) []transport.Instruction {
	staffName, _ := m.registry.StaffFor(userID)
	return m.healBrokenLink(ctx, userID, staffName, cause)
}

func (m *StateMachine) healBrokenLink(ctx context.Context, userID int64, staffName string, cause error) []transport.Instruction {
	m.logger.Error("registry inconsistency, tearing session down",
		zap.Int64("user_id", userID),
		zap.String("staff", staffName),
		zap.Error(cause))

	_, forcedStaff, err := m.registry.ForceRelease(userID)
	if err == nil && staffName == "" {
		staffName = forcedStaff
	}

	profile := m.profileOf(ctx, userID)
	instructions := []transport.Instruction{
		transport.NotifyUser{UserID: userID, Text: text.Get(text.KeyLinkBroken, profile.Language)},
	}
	if staff, ok := m.registry.StaffByName(staffName); ok {
		instructions = append(instructions,
			transport.NotifyStaff{TopicID: staff.TopicID, Text: "The link was broken and the session has been closed."},
			transport.RenameTopic{TopicID: staff.TopicID, Title: markerOpen + "|" + staff.Name},
		)
	}
	if entry, ok := m.tracker.Consume(userID); ok {
		instructions = append(instructions, transport.CloseNotification{
			UserID:    userID,
			MessageID: entry.MessageID,
			Text:      notificationText(profile, markerClosed+"|closed"),
		})
	}
	return instructions
}

// Restart clears the disconnected-by-staff branch; the other allowed action
// is StartWaiting itself.
func (m *StateMachine) Restart(userID int64) {
	m.registry.ClearDisconnected(userID)
}

func (m *StateMachine) profileOf(ctx context.Context, userID int64) domain.Profile {
	profile, err := m.profiles.Get(ctx, userID)
	if err != nil || profile == nil {
		return domain.Profile{UserID: userID, Language: domain.LanguageRU}
	}
	if profile.Language == "" {
		profile.Language = domain.LanguageRU
	}
	return *profile
}

func profileCard(profile domain.Profile) string {
	return fmt.Sprintf("From: %s\nCourse: %s\nFaculty: %s\nGroup: %s\n",
		profile.FullName, profile.Course, profile.Faculty, profile.Group)
}

func notificationText(profile domain.Profile, status string) string {
	return "Someone is trying to connect\n" + profileCard(profile) + "\n" + status
}
