package publisher

import (
	log "github.com/sirupsen/logrus"

	"social-service/events"
	natsClient "social-service/nats"
)

type EventPublisher struct {
	nats *natsClient.Client
}

func NewEventPublisher(nats *natsClient.Client) *EventPublisher {
	return &EventPublisher{nats: nats}
}

func (p *EventPublisher) PublishNotificationCreated(event events.NotificationCreatedEvent) error {
	subject := events.NotificationSubject(event.Notification.To)
	if err := p.nats.Publish(subject, event); err != nil {
		return err
	}

	log.Debugf("Published event: %s for notification %s", subject, event.Notification.ID)
	return nil
}

// NopPublisher drops every event. Used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishNotificationCreated(events.NotificationCreatedEvent) error {
	return nil
}
