package worker

import (
	"github.com/complaintdesk/complaint-desk/internal/events"
	"github.com/complaintdesk/complaint-desk/internal/service"
)

// StartEventSubscribers registers the in-process event consumers. A nil
// publisher means Kafka forwarding is disabled.
func StartEventSubscribers(dispatcher events.Dispatcher, notificationService *service.NotificationService, publisher *events.KafkaPublisher) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	publisher.Register(dispatcher)
}
