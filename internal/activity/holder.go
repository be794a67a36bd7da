// Package activity keeps the owner's "currently doing" line shown on the homepage.
package activity

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/khauni/homepage/pkg/errors"
)

// MaxTextLength bounds the status line in runes.
const MaxTextLength = 280

// Status is the current activity line.
type Status struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateInput is the body of PUT /api/activity.
type UpdateInput struct {
	Text string `json:"text" validate:"required,max=280"`
}

// Holder is an injected, concurrency-safe activity state.
type Holder struct {
	mu     sync.RWMutex
	status Status
	clock  func() time.Time
}

func NewHolder(initial string, clock func() time.Time) *Holder {
	if clock == nil {
		clock = time.Now
	}
	return &Holder{
		status: Status{Text: strings.TrimSpace(initial), UpdatedAt: clock().UTC()},
		clock:  clock,
	}
}

func (h *Holder) Get() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Set replaces the activity line.
func (h *Holder) Set(text string) (Status, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Status{}, pkgerrors.New(pkgerrors.CodeValidation, "text is required").WithDetails(map[string]string{"text": "is required"})
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return Status{}, pkgerrors.New(pkgerrors.CodeValidation, "text is too long").WithDetails(map[string]string{"text": "must be at most 280"})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = Status{Text: text, UpdatedAt: h.clock().UTC()}
	return h.status, nil
}
