package transport

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/domain"
)

// LoggingMessenger is a stand-in delivery collaborator that logs every
// primitive instead of talking to a real messaging platform. It lets the
// relay run end to end before a transport integration is plugged in.
type LoggingMessenger struct {
	logger *zap.Logger
	nextID atomic.Int64
}

// NewLoggingMessenger creates the stub.
func NewLoggingMessenger(logger *zap.Logger) *LoggingMessenger {
	return &LoggingMessenger{logger: logger}
}

func (m *LoggingMessenger) SendToUser(ctx context.Context, userID int64, content domain.Content) error {
	m.logger.Info("send to user",
		zap.Int64("user_id", userID),
		zap.String("kind", string(content.Kind)),
		zap.String("text", content.Text))
	return nil
}

func (m *LoggingMessenger) SendToTopic(ctx context.Context, topicID int64, content domain.Content) error {
	m.logger.Info("send to topic",
		zap.Int64("topic_id", topicID),
		zap.String("kind", string(content.Kind)))
	return nil
}

func (m *LoggingMessenger) PostToTopic(ctx context.Context, topicID int64, text, action string) (int64, error) {
	id := m.nextID.Add(1)
	m.logger.Info("post to topic",
		zap.Int64("topic_id", topicID),
		zap.Int64("message_id", id),
		zap.String("action", action))
	return id, nil
}

func (m *LoggingMessenger) EditMessage(ctx context.Context, messageID int64, text string) error {
	m.logger.Info("edit message", zap.Int64("message_id", messageID))
	return nil
}

func (m *LoggingMessenger) EditMessageNoPreview(ctx context.Context, messageID int64, text string) error {
	m.logger.Info("edit message without preview", zap.Int64("message_id", messageID))
	return nil
}

func (m *LoggingMessenger) RenameTopic(ctx context.Context, topicID int64, title string) error {
	m.logger.Info("rename topic", zap.Int64("topic_id", topicID), zap.String("title", title))
	return nil
}
