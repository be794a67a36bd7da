package api

import (
	"net/http"
	"time"

	"github.com/khauni/homepage/pkg/config"
)

// NewServer wraps handler in an http.Server bound to the configured port.
// Websocket upgrades clear the connection deadlines, so the timeouts only
// bound ordinary requests.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
