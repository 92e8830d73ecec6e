package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/isp-workboard/internal/config"
	"github.com/spec-kit/isp-workboard/internal/events"
	"github.com/spec-kit/isp-workboard/internal/observability"
)

// NotificationService logs committed ticket events and forwards escalations
// to the supervisor mailbox stub.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || !n.cfg.Enabled {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleTicketEscalated)
	n.dispatcher.SubscribeAll(n.handleAudit)
}

func (n *NotificationService) handleAudit(_ context.Context, event events.Event) error {
	n.metrics.RecordAction(string(event.Type))
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	n.sendSupervisorEmailStub(ctx, event)
	return nil
}

func (n *NotificationService) sendSupervisorEmailStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.SupervisorEmail) == "" {
		return
	}
	n.logger.Debug("sendSupervisorEmailStub",
		zap.String("to", n.cfg.SupervisorEmail),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
