package subscriber

import (
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"social-service/events"
	natsClient "social-service/nats"
)

// NotificationFeed hands each recipient's notification events to a callback.
type NotificationFeed struct {
	natsClient *natsClient.Client
}

func NewNotificationFeed(natsClient *natsClient.Client) *NotificationFeed {
	return &NotificationFeed{natsClient: natsClient}
}

// SubscribeUser delivers the raw event payloads addressed to userID until the
// returned cancel function is called.
func (f *NotificationFeed) SubscribeUser(userID uuid.UUID, deliver func(data []byte)) (func() error, error) {
	sub, err := f.natsClient.Subscribe(events.NotificationSubject(userID), func(msg *nats.Msg) {
		deliver(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}
