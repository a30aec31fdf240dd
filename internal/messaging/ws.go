package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/repository"
)

const (
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxFrameSize   = 64 << 10
	sendBufferSize = 64
)

type wsEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// relayedMessage is what clients attach to send_message.
type relayedMessage struct {
	ID     string `json:"id"`
	RoomID string `json:"roomId"`
}

// Hub groups connections into two-party rooms. It is a delivery hint only;
// clients re-fetch history over REST after any gap.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}

	broker   Broker
	retry    func(ctx context.Context) backoff.BackOff
	messages repository.MessageRepository
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewHub(messages repository.MessageRepository, allowedOrigin string, m *metrics.Metrics, log *zap.Logger) *Hub {
	h := &Hub{
		rooms:    make(map[string]map[*client]struct{}),
		messages: messages,
		metrics:  m,
		log:      log.Named("relay"),
		retry:    resubscribeBackOff,
	}
	h.broker = &localBroker{deliver: h.deliver}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
		},
	}
	return h
}

// UseBroker routes publishes through b, e.g. Redis for multi-process fan-out.
func (h *Hub) UseBroker(b Broker) {
	h.broker = b
}

// resubscribeBackOff never gives up; the relay lives as long as the process.
func resubscribeBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithContext(b, ctx)
}

var errSubscriptionClosed = errors.New("relay subscription closed")

// Run consumes the broker until ctx ends, subscribing again whenever the
// subscription fails or drops.
func (h *Hub) Run(ctx context.Context) error {
	subscribe := func() error {
		err := h.broker.Subscribe(ctx, h.deliver)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err == nil {
			err = errSubscriptionClosed
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		h.log.Warn("relay subscription lost, resubscribing", zap.Duration("retry_in", next), zap.Error(err))
	}
	err := backoff.RetryNotify(subscribe, h.retry(ctx), notify)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// BroadcastMessage pushes receive_message to the pair's room.
func (h *Hub) BroadcastMessage(ctx context.Context, msg *models.Message) {
	frame, err := json.Marshal(outEvent{Event: EventReceiveMessage, Data: msg})
	if err != nil {
		h.log.Error("encode message frame", zap.Error(err))
		return
	}
	room := RoomID(msg.SenderID, msg.ReceiverID)
	if err := h.broker.Publish(ctx, room, frame); err != nil {
		h.log.Warn("relay publish failed", zap.String("room", room), zap.String("message_id", msg.ID), zap.Error(err))
	}
}

func (h *Hub) deliver(room string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		c.enqueue(frame)
	}
}

func (h *Hub) join(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) leave(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) unregister(c *client) {
	c.unregisterOnce.Do(func() { h.removeClient(c) })
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	for room := range h.rooms {
		h.leaveLocked(c, room)
	}
	h.mu.Unlock()
	c.close()
	h.metrics.RelayClients.Dec()
}

// RoomSize returns the number of local connections in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ServeWS upgrades an authenticated request at GET /api/ws.
func (h *Hub) ServeWS(c echo.Context) error {
	userID := middleware.UserID(c)
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}

	cl := &client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
	h.metrics.RelayClients.Inc()
	h.log.Debug("relay client connected", zap.String("user_id", userID))

	go cl.writePump()
	cl.readPump(c.Request().Context())
	return nil
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte

	closeOnce      sync.Once
	unregisterOnce sync.Once
	done           chan struct{}
}

// enqueue never blocks the hub; a client that cannot keep up is dropped.
func (c *client) enqueue(frame []byte) {
	select {
	case <-c.done:
	case c.send <- frame:
	default:
		c.hub.log.Warn("relay client too slow, disconnecting", zap.String("user_id", c.userID))
		go c.hub.unregister(c)
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) readPump(ctx context.Context) {
	defer c.hub.unregister(c)

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var evt wsEvent
		if err := c.conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("relay read failed", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		c.handle(ctx, evt)
	}
}

func (c *client) handle(ctx context.Context, evt wsEvent) {
	switch evt.Event {
	case EventJoinRoom, EventLeaveRoom:
		var room string
		if err := json.Unmarshal(evt.Data, &room); err != nil || !canJoin(room, c.userID) {
			return
		}
		if evt.Event == EventJoinRoom {
			c.hub.join(c, room)
		} else {
			c.hub.leave(c, room)
		}
	case EventSendMessage:
		var rm relayedMessage
		if err := json.Unmarshal(evt.Data, &rm); err != nil || rm.ID == "" {
			return
		}
		msg, err := c.hub.messages.Get(ctx, rm.ID)
		if err != nil || msg.SenderID != c.userID {
			return
		}
		if rm.RoomID != "" && rm.RoomID != RoomID(msg.SenderID, msg.ReceiverID) {
			return
		}
		c.hub.BroadcastMessage(ctx, msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
