package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/complaintdesk/complaint-desk/internal/events"
)

// NotificationService logs lifecycle events for operators.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintSubmitted, n.handleInfo)
	n.dispatcher.Subscribe(events.EventQCAssigned, n.handleInfo)
	n.dispatcher.Subscribe(events.EventQCVerdictRecorded, n.handleInfo)
	n.dispatcher.Subscribe(events.EventQCVerdictRejected, n.handleInfo)
	n.dispatcher.Subscribe(events.EventThreadClosed, n.handleInfo)
	n.dispatcher.Subscribe(events.EventThreadReopened, n.handleInfo)
	n.dispatcher.Subscribe(events.EventEntryAdded, n.handleDebug)
	n.dispatcher.Subscribe(events.EventStageAdvanced, n.handleDebug)
	n.dispatcher.Subscribe(events.EventThreadStatusChanged, n.handleDebug)
	n.dispatcher.Subscribe(events.EventMaintenanceCompleted, n.handleDebug)
}

func (n *NotificationService) handleInfo(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), eventFields(event)...)
	return nil
}

func (n *NotificationService) handleDebug(_ context.Context, event events.Event) error {
	n.logger.Debug(string(event.Type), eventFields(event)...)
	return nil
}

func eventFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Any("payload", event.Payload),
	}
	if event.ThreadNumber != "" {
		fields = append(fields, zap.String("thread_number", event.ThreadNumber))
	}
	if event.Actor.UserID != nil {
		fields = append(fields, zap.Int64("user_id", *event.Actor.UserID))
	}
	return fields
}
