package transport

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/domain"
)

// Messenger is the delivery collaborator the executor drives. Sending
// dispatches on the content kind to the matching delivery primitive.
// Implementations live outside the core; tests use in-memory fakes.
type Messenger interface {
	SendToUser(ctx context.Context, userID int64, content domain.Content) error
	SendToTopic(ctx context.Context, topicID int64, content domain.Content) error
	PostToTopic(ctx context.Context, topicID int64, text, action string) (int64, error)
	EditMessage(ctx context.Context, messageID int64, text string) error
	EditMessageNoPreview(ctx context.Context, messageID int64, text string) error
	RenameTopic(ctx context.Context, topicID int64, title string) error
}

// Tracker records which notification message advertises a user's pending
// connection request. Satisfied by session.NotificationTracker.
type Tracker interface {
	Track(userID, messageID int64)
}

// Executor performs instructions outside the core's critical sections.
// Notification edits are retried through the documented fallback path
// (edit, edit without preview, fresh message) and then logged as non-fatal:
// the core's committed state is never rolled back because delivery failed.
type Executor struct {
	messenger           Messenger
	tracker             Tracker
	notificationTopicID int64
	logger              *zap.Logger
}

// NewExecutor creates the executor. The notification topic receives session
// notifications and fallback reposts.
func NewExecutor(messenger Messenger, tracker Tracker, notificationTopicID int64, logger *zap.Logger) *Executor {
	return &Executor{
		messenger:           messenger,
		tracker:             tracker,
		notificationTopicID: notificationTopicID,
		logger:              logger,
	}
}

// Execute performs each instruction in order. Failures degrade to a logged
// notice; the caller's state is already committed.
func (e *Executor) Execute(ctx context.Context, instructions []Instruction) {
	for _, instruction := range instructions {
		e.execute(ctx, instruction)
	}
}

func (e *Executor) execute(ctx context.Context, instruction Instruction) {
	switch in := instruction.(type) {
	case DeliverToUser:
		if err := e.messenger.SendToUser(ctx, in.UserID, in.Content); err != nil {
			e.logger.Error("deliver to user failed", zap.Int64("user_id", in.UserID), zap.Error(err))
		}
	case DeliverToStaffTopic:
		if err := e.messenger.SendToTopic(ctx, in.TopicID, in.Content); err != nil {
			e.logger.Error("deliver to staff topic failed", zap.Int64("topic_id", in.TopicID), zap.Error(err))
		}
	case CreateNotification:
		messageID, err := e.messenger.PostToTopic(ctx, e.notificationTopicID, in.Text, in.Action)
		if err != nil {
			e.logger.Error("create notification failed", zap.Int64("user_id", in.UserID), zap.Error(err))
			return
		}
		e.tracker.Track(in.UserID, messageID)
	case UpdateNotification:
		e.editWithFallback(ctx, in.UserID, in.MessageID, in.Text)
	case CloseNotification:
		if in.MessageID == 0 {
			if _, err := e.messenger.PostToTopic(ctx, e.notificationTopicID, in.Text, ""); err != nil {
				e.logger.Error("close notification repost failed", zap.Int64("user_id", in.UserID), zap.Error(err))
			}
			return
		}
		e.editWithFallback(ctx, in.UserID, in.MessageID, in.Text)
	case RenameTopic:
		if err := e.messenger.RenameTopic(ctx, in.TopicID, in.Title); err != nil {
			e.logger.Error("rename topic failed", zap.Int64("topic_id", in.TopicID), zap.Error(err))
		}
	case NotifyStaff:
		if _, err := e.messenger.PostToTopic(ctx, in.TopicID, in.Text, in.Action); err != nil {
			e.logger.Error("notify staff failed", zap.Int64("topic_id", in.TopicID), zap.Error(err))
		}
	case NotifyUser:
		if err := e.messenger.SendToUser(ctx, in.UserID, domain.TextContent(in.Text)); err != nil {
			e.logger.Error("notify user failed", zap.Int64("user_id", in.UserID), zap.Error(err))
		}
	}
}

// editWithFallback walks the delivery fallback chain: plain edit, edit with
// the preview disabled, then a fresh message in the notification topic.
func (e *Executor) editWithFallback(ctx context.Context, userID, messageID int64, text string) {
	err := e.messenger.EditMessage(ctx, messageID, text)
	if err == nil {
		return
	}
	e.logger.Warn("notification edit failed, retrying without preview",
		zap.Int64("message_id", messageID), zap.Error(err))

	err = e.messenger.EditMessageNoPreview(ctx, messageID, text)
	if err == nil {
		return
	}
	e.logger.Warn("notification edit retry failed, posting fresh message",
		zap.Int64("message_id", messageID), zap.Error(err))

	if _, err := e.messenger.PostToTopic(ctx, e.notificationTopicID, "NOTIFICATION UPDATED: "+text, ""); err != nil {
		e.logger.Error("notification fallback post failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}
