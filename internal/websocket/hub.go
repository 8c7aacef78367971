package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"namaz-tracker/internal/services"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type tokenParser interface {
	ParseUserID(tokenStr string) (uuid.UUID, error)
}

// subscription is the part of *redis.PubSub the hub relays from.
type subscription interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// conn serializes writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws  *websocket.Conn
	sub subscription
	mu  sync.Mutex
}

func (c *conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Hub relays each user's Redis channel to that user's sockets. Every socket
// has its own subscription, confirmed by Redis before the upgrade, so an
// event published once the handshake completes is never missed.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*conn
	redisClient *redis.Client
	tokens      tokenParser
	subscribe   func(ctx context.Context, userID uuid.UUID) (subscription, error)
}

func NewHub(redisClient *redis.Client, tokens tokenParser) *Hub {
	h := &Hub{
		connections: make(map[uuid.UUID][]*conn),
		redisClient: redisClient,
		tokens:      tokens,
	}
	h.subscribe = h.subscribeRedis
	return h
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := h.tokens.ParseUserID(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sub, err := h.subscribe(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("pubsub subscribe failed")
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &conn{ws: ws, sub: sub}
	h.registerConnection(userID, c)
	go h.relay(userID, c)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(userID, c)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// Close drops every socket and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.connections {
		for _, c := range conns {
			c.ws.Close()
			c.sub.Close()
		}
	}
	h.connections = make(map[uuid.UUID][]*conn)
}

func (h *Hub) registerConnection(userID uuid.UUID, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[userID] = append(h.connections[userID], c)
	log.Debug().Str("user_id", userID.String()).Int("total", len(h.connections[userID])).Msg("websocket connected")
}

func (h *Hub) unregisterConnection(userID uuid.UUID, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.ws.Close()
	c.sub.Close()

	conns := h.connections[userID]
	for i, existing := range conns {
		if existing == c {
			h.connections[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
	}

	log.Debug().Str("user_id", userID.String()).Msg("websocket disconnected")
}

// subscribeRedis subscribes to the user's channel and waits for Redis to
// confirm before returning.
func (h *Hub) subscribeRedis(ctx context.Context, userID uuid.UUID) (subscription, error) {
	pubsub := h.redisClient.Subscribe(ctx, services.UserChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}
	return pubsub, nil
}

// relay forwards the subscription to the socket until the subscription is
// closed.
func (h *Hub) relay(userID uuid.UUID, c *conn) {
	for msg := range c.sub.Channel() {
		if err := c.write([]byte(msg.Payload)); err != nil {
			log.Debug().Err(err).Str("user_id", userID.String()).Msg("websocket write failed")
		}
	}
}
