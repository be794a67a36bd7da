package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client is one websocket connection. name and account are owned by readPump.
type Client struct {
	ctx     context.Context
	hub     *Hub
	conn    *websocket.Conn
	send    chan Outbound
	name    string
	account string
}

func newClient(ctx context.Context, hub *Hub, conn *websocket.Conn, name string) *Client {
	return &Client{
		ctx:  ctx,
		hub:  hub,
		conn: conn,
		send: make(chan Outbound, clientSendBuffer),
		name: name,
	}
}

func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}

// enqueue reports false when the client's buffer is full. Callers hold hub.mu
// or run on the hub goroutine, so send is never closed underneath them.
func (c *Client) enqueue(msg Outbound) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) reply(msg Outbound) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; ok {
		c.enqueue(msg)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.hub.logg.Warn(c.hub.logg.WithField(c.ctx, "error", err.Error()), "chat connection closed unexpectedly")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var in Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			c.reply(systemMessage(invalidFrameNotice))
			continue
		}
		c.handle(in)
	}
}

func (c *Client) handle(in Inbound) {
	switch in.Type {
	case TypeChat:
		text := clip(in.Message, c.hub.cfg.MaxMessageLength)
		if text == "" {
			return
		}
		c.hub.Broadcast(Outbound{Type: TypeChat, Name: c.name, Message: text})
	case TypeSetName:
		name := clip(in.Name, maxNameLength)
		if name == "" {
			c.reply(systemMessage("Name cannot be empty."))
			return
		}
		if acct, ok := c.hub.accountByName(name); ok && !strings.EqualFold(acct.Name, c.account) {
			c.reply(systemMessage(reservedNotice))
			return
		}
		c.name = name
		c.reply(systemMessage(nameSetPrefix + name))
	case TypeLogin:
		acct, ok := c.hub.checkPassword(clip(in.Name, maxNameLength), in.Password)
		if !ok {
			c.hub.logg.Warn(c.ctx, "chat login rejected")
			c.reply(systemMessage(loginFailedNotice))
			return
		}
		c.login(acct)
	case TypeLoginHash:
		acct, ok := c.hub.accountByHash(strings.TrimSpace(in.Hash))
		if !ok {
			c.reply(systemMessage(hashFailedNotice))
			return
		}
		c.login(acct)
	case TypePing:
		c.reply(Outbound{Type: TypePong, Timestamp: in.Timestamp})
	case TypePong:
		// Any frame already pushed the read deadline forward.
		var sent int64
		if err := json.Unmarshal(in.Timestamp, &sent); err == nil && sent > 0 {
			rtt := time.Since(time.UnixMilli(sent))
			c.hub.logg.Debug(c.hub.logg.WithField(c.ctx, "rtt_ms", rtt.Milliseconds()), "chat pong")
		}
	default:
		c.reply(systemMessage("Unknown message type."))
	}
}

func (c *Client) login(acct Account) {
	c.account = acct.Name
	c.name = acct.Name
	c.hub.logg.Info(c.hub.logg.WithField(c.ctx, "account", acct.Name), "chat login")
	c.reply(Outbound{Type: TypeLoginSuccess, Name: acct.Name, HashedPassword: acct.Hash})
	c.reply(systemMessage(nameSetPrefix + acct.Name))
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			raw, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			// Browsers cannot see control frames, so the page also gets a JSON ping to answer.
			raw, err := json.Marshal(pingMessage(time.Now()))
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		}
	}
}

// clip trims whitespace and caps text at max runes.
func clip(text string, max int) string {
	text = strings.TrimSpace(text)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	if utf8.RuneCountInString(text) > max {
		text = string([]rune(text)[:max])
	}
	return text
}
