package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"social-service/middleware"
	"social-service/monitoring"
	"social-service/pkg/apperror"
	"social-service/pkg/respond"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamBuffer     = 16
)

// NotificationFeed delivers the raw notification events addressed to a user.
type NotificationFeed interface {
	SubscribeUser(userID uuid.UUID, deliver func(data []byte)) (func() error, error)
}

// StreamHandler pushes each new notification to the recipient's open
// websocket as the event JSON.
type StreamHandler struct {
	feed     NotificationFeed
	upgrader websocket.Upgrader
}

// NewStreamHandler returns a handler for feed. A nil feed means live delivery
// is turned off and the route answers with an error.
func NewStreamHandler(feed NotificationFeed) *StreamHandler {
	return &StreamHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if h.feed == nil {
		respond.Error(w, r, apperror.Dependency("Live notifications are not available", nil))
		return
	}

	// Events that arrive while the client is slow are dropped; the list
	// endpoint still has them.
	messages := make(chan []byte, streamBuffer)
	unsubscribe, err := h.feed.SubscribeUser(user.ID, func(data []byte) {
		select {
		case messages <- data:
		default:
			log.Warnf("Dropping notification event for slow client %s", user.ID)
		}
	})
	if err != nil {
		respond.Error(w, r, apperror.Dependency("Failed to subscribe to notifications", err))
		return
	}
	defer func() {
		if err := unsubscribe(); err != nil {
			log.Warnf("Failed to unsubscribe notification stream for %s: %v", user.ID, err)
		}
	}()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		log.Warnf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	monitoring.StreamClients.Inc()
	defer monitoring.StreamClients.Dec()

	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-messages:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and closes done when the connection goes away.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
