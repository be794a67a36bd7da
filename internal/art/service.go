// Package art stores the "art of the month" feature as a single JSON document.
package art

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/khauni/homepage/pkg/errors"
	"github.com/khauni/homepage/pkg/jsonfile"
	"github.com/khauni/homepage/pkg/logger"
)

// Piece is the featured artwork. Empty fields mean "not set".
type Piece struct {
	ImageURL    string     `json:"imageUrl"`
	ArtistName  string     `json:"artistName"`
	ArtistLink  string     `json:"artistLink"`
	Description string     `json:"description"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// UpdateInput is the body of PUT /api/art; it replaces the whole document.
type UpdateInput struct {
	ImageURL    string `json:"imageUrl" validate:"omitempty,url,max=2048"`
	ArtistName  string `json:"artistName" validate:"max=200"`
	ArtistLink  string `json:"artistLink" validate:"omitempty,url,max=2048"`
	Description string `json:"description" validate:"max=2000"`
}

// Service reads and replaces the art document.
type Service struct {
	mu    sync.RWMutex
	path  string
	logg  *logger.Logger
	clock func() time.Time
}

func NewService(path string, logg *logger.Logger, clock func() time.Time) (*Service, error) {
	if strings.TrimSpace(path) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "art document path is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{path: path, logg: logg, clock: clock}, nil
}

// Current returns the stored piece, or an empty one when nothing was set or the
// document cannot be read.
func (s *Service) Current(ctx context.Context) Piece {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var piece Piece
	err := jsonfile.Read(s.path, &piece)
	switch {
	case err == nil:
		return piece
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, jsonfile.ErrEmpty):
		return Piece{}
	default:
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"component": "art", "error": err.Error()}), "art document unreadable; serving empty piece")
		return Piece{}
	}
}

// Replace overwrites the document with input.
func (s *Service) Replace(ctx context.Context, input UpdateInput) (Piece, error) {
	now := s.clock().UTC().Truncate(time.Second)
	piece := Piece{
		ImageURL:    strings.TrimSpace(input.ImageURL),
		ArtistName:  strings.TrimSpace(input.ArtistName),
		ArtistLink:  strings.TrimSpace(input.ArtistLink),
		Description: input.Description,
		UpdatedAt:   &now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := jsonfile.Write(s.path, piece); err != nil {
		return Piece{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "write art document")
	}
	s.logg.Info(s.logg.WithField(ctx, "component", "art"), "art of the month replaced")
	return piece, nil
}
