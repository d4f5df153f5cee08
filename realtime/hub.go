package realtime

import (
	"context"
	"encoding/json"
	"log"
	"storefront/constants"
	"storefront/model"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/redis/go-redis/v9"
)

const writeWait = 5 * time.Second

type conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Message struct {
	Event string                 `json:"event"`
	Data  model.OrderPlacedEvent `json:"data"`
}

// Hub fans order-placed events out to connected admin dashboards. With a
// redis client every instance publishes to, and relays from, one channel.
type Hub struct {
	rdb     *redis.Client
	channel string

	mu    sync.Mutex
	conns map[conn]bool

	// writeMu serializes Broadcast; a socket allows one writer at a time.
	writeMu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		rdb:     rdb,
		channel: constants.REDIS_CHANNEL_ORDERS,
		conns:   make(map[conn]bool),
		ready:   make(chan struct{}),
	}
}

func (h *Hub) NotifyOrderPlaced(ctx context.Context, event model.OrderPlacedEvent) error {
	payload, err := json.Marshal(Message{Event: constants.EVENT_ORDER_PLACED, Data: event})
	if err != nil {
		return err
	}
	if h.rdb == nil {
		h.Broadcast(payload)
		return nil
	}
	return h.rdb.Publish(ctx, h.channel, payload).Err()
}

// Run relays channel messages to local connections until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb == nil {
		h.markReady()
		<-ctx.Done()
		return nil
	}

	pubsub := h.rdb.Subscribe(ctx, h.channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	h.markReady()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.Broadcast([]byte(msg.Payload))
		}
	}
}

// Ready is closed once Run is subscribed.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

func (h *Hub) markReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}

// Broadcast writes payload to every connection. Each write is bounded by
// writeWait and runs outside the registry lock; failed sockets are dropped.
func (h *Hub) Broadcast(payload []byte) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	for _, c := range h.snapshot() {
		if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err == nil {
			err = c.WriteMessage(websocket.TextMessage, payload)
			if err == nil {
				continue
			}
		}
		h.unregister(c)
		c.Close()
	}
}

func (h *Hub) snapshot() []conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	return conns
}

func (h *Hub) register(c conn) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = true
	return len(h.conns)
}

func (h *Hub) unregister(c conn) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
	return len(h.conns)
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Serve keeps an admin socket registered until the client goes away.
func (h *Hub) Serve(c *websocket.Conn) {
	total := h.register(c)
	log.Printf("New admin order feed connection. Total connections: %d", total)

	defer func() {
		remaining := h.unregister(c)
		c.Close()
		log.Printf("Admin order feed connection closed. Total remaining: %d", remaining)
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
