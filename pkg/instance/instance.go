package instance

import (
	"os"

	"github.com/khauni/homepage/pkg/env"
)

// GetID identifies this process in logs: an explicit instance id, the dyno
// name on hosted platforms, then the hostname.
func GetID() string {
	if id := env.First("", "HOMEPAGE_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
