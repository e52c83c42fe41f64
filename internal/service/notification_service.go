package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/config"
	"github.com/spec-kit/support-relay/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSessionRequested, n.handleSessionRequested)
	n.dispatcher.Subscribe(events.EventSessionClaimed, n.handleSessionClaimed)
	n.dispatcher.Subscribe(events.EventSessionEnded, n.handleSessionEnded)
	n.dispatcher.Subscribe(events.EventQuestionAsked, n.handleQuestionAsked)
	n.dispatcher.Subscribe(events.EventQuestionAnswered, n.handleQuestionAnswered)
}

func (n *NotificationService) handleSessionRequested(ctx context.Context, event events.Event) error {
	n.logger.Info("SessionRequested", zap.Int64("user_id", event.UserID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSessionClaimed(ctx context.Context, event events.Event) error {
	n.logger.Info("SessionClaimed", zap.Int64("user_id", event.UserID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSessionEnded(ctx context.Context, event events.Event) error {
	n.logger.Info("SessionEnded", zap.Int64("user_id", event.UserID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleQuestionAsked(ctx context.Context, event events.Event) error {
	n.logger.Info("QuestionAsked", zap.Int64("user_id", event.UserID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleQuestionAnswered(ctx context.Context, event events.Event) error {
	n.logger.Info("QuestionAnswered", zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
