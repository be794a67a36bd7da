// Package chat relays chat messages between homepage visitors over websockets.
package chat

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/khauni/homepage/pkg/logger"
)

const (
	maxNameLength      = 32
	defaultMaxMessage  = 500
	clientSendBuffer   = 64
	nameSetPrefix      = "Your name has been set to: "
	invalidFrameNotice = "Invalid message format."
	loginFailedNotice  = "Login failed: invalid name or password."
	hashFailedNotice   = "Login failed: saved login is no longer valid, please log in again."
	reservedNotice     = "That name belongs to a registered user."
)

// Config tunes the hub.
type Config struct {
	MaxMessageLength int
	// HistorySize is the number of recent chat messages replayed to new clients.
	HistorySize    int
	AllowedOrigins []string
	// PingInterval spaces the keepalive frames; zero uses the default.
	PingInterval time.Duration
	// Accounts are the names that can be claimed with login or login_hash.
	Accounts []Account
}

// Hub owns the set of connected clients. Only Run mutates it.
type Hub struct {
	cfg        Config
	logg       *logger.Logger
	upgrader   websocket.Upgrader
	register   chan *Client
	unregister chan *Client
	broadcast  chan Outbound
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]struct{}
	history []Outbound

	guestName func() string
}

func NewHub(cfg Config, logg *logger.Logger) *Hub {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = defaultMaxMessage
	}
	// Replayed history must fit in a fresh client's buffer next to the greeting.
	cfg.HistorySize = max(0, min(cfg.HistorySize, clientSendBuffer-1))
	if cfg.PingInterval <= 0 || cfg.PingInterval > pingPeriod {
		cfg.PingInterval = pingPeriod
	}
	if logg == nil {
		logg = logger.Nop()
	}
	h := &Hub{
		cfg:        cfg,
		logg:       logg,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Outbound, 256),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		guestName: func() string {
			return fmt.Sprintf("Guest%d", rand.IntN(900000)+100000)
		},
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run processes registrations and broadcasts until ctx is canceled.
func (h *Hub) Run(ctx context.Context) error {
	ctx = h.logg.WithComponent(ctx, "chat-hub")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			count := h.ClientCount()
			h.closeAll()
			h.logg.Info(h.logg.WithField(ctx, "clients_closed", count), "chat hub stopped")
			return ctx.Err()

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			backlog := slices.Clone(h.history)
			h.mu.Unlock()
			client.enqueue(systemMessage(nameSetPrefix + client.name))
			for _, msg := range backlog {
				client.enqueue(msg)
			}
			h.logg.Info(h.logg.WithField(ctx, "total_clients", h.ClientCount()), "chat client connected")

		case client := <-h.unregister:
			h.remove(client)
			h.logg.Info(h.logg.WithField(ctx, "total_clients", h.ClientCount()), "chat client disconnected")

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and attaches a new client to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		h.logg.Warn(h.logg.WithField(r.Context(), "error", err.Error()), "chat upgrade failed")
		return
	}
	name := h.guestName()
	ctx := h.logg.WithFields(context.WithoutCancel(r.Context()), map[string]any{
		"component": "chat-client",
		"chat_name": name,
	})
	client := newClient(ctx, h, conn, name)
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}
	client.start()
}

// Broadcast queues msg for every client. Safe to call from any goroutine.
func (h *Hub) Broadcast(msg Outbound) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) deliver(msg Outbound) {
	h.mu.Lock()
	if msg.Type == TypeChat && h.cfg.HistorySize > 0 {
		h.history = append(h.history, msg)
		if over := len(h.history) - h.cfg.HistorySize; over > 0 {
			h.history = slices.Delete(h.history, 0, over)
		}
	}
	var slow []*Client
	for client := range h.clients {
		if !client.enqueue(msg) {
			slow = append(slow, client)
		}
	}
	h.mu.Unlock()

	for _, client := range slow {
		h.remove(client)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// checkOrigin accepts same-host requests and the configured CORS origins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return true
		}
	}
	return false
}
