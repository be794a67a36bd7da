package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/khauni/homepage/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded to [min, max].
// Errors name the parameter and echo the rejected value.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key, "value": raw})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "value": value, "min": min, "max": max})
	}
	return value, nil
}
