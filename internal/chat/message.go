package chat

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const (
	TypeChat    = "chat"
	TypeSetName = "set_name"
	TypeSystem  = "system"
	TypePing    = "ping"
	TypePong    = "pong"

	TypeLogin        = "login"
	TypeLoginHash    = "login_hash"
	TypeLoginSuccess = "login_success"
)

// Inbound is a frame sent by a browser.
type Inbound struct {
	Type      string          `json:"type"`
	Message   string          `json:"message,omitempty"`
	Name      string          `json:"name,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Password  string          `json:"password,omitempty"`
	Hash      string          `json:"hash,omitempty"`
}

// Outbound is a frame sent to browsers.
type Outbound struct {
	Type      string          `json:"type"`
	Name      string          `json:"name,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	// HashedPassword is only set on login_success.
	HashedPassword string `json:"hashedPassword,omitempty"`
}

func systemMessage(text string) Outbound {
	return Outbound{Type: TypeSystem, Message: text}
}

func pingMessage(now time.Time) Outbound {
	return Outbound{Type: TypePing, Timestamp: json.RawMessage(strconv.FormatInt(now.UnixMilli(), 10))}
}
