package client

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/khauni/homepage/internal/wishlist"
)

type snapshot struct {
	mu        sync.RWMutex
	items     []wishlist.Item
	fetchedAt time.Time
}

func (s *snapshot) set(items []wishlist.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.fetchedAt = time.Now()
}

func (s *snapshot) get() []wishlist.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *snapshot) age() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// PublicView is a read-only copy of the wishlist, newest first.
type PublicView struct {
	client *Client
	snap   snapshot
}

func NewPublicView(c *Client) *PublicView {
	return &PublicView{client: c}
}

// Refresh replaces the snapshot with the server's current list.
func (v *PublicView) Refresh(ctx context.Context) error {
	items, err := v.client.List(ctx, wishlist.OrderNewestFirst)
	if err != nil {
		return err
	}
	v.snap.set(items)
	return nil
}

// Items returns a copy of the last fetched list.
func (v *PublicView) Items() []wishlist.Item {
	return v.snap.get()
}

// AdminView issues mutations and reloads the full list after each one, so the
// snapshot always mirrors what the server persisted.
type AdminView struct {
	client *Client
	snap   snapshot
}

func NewAdminView(c *Client) *AdminView {
	return &AdminView{client: c}
}

func (v *AdminView) Refresh(ctx context.Context) error {
	items, err := v.client.List(ctx, wishlist.OrderNewestFirst)
	if err != nil {
		return err
	}
	v.snap.set(items)
	return nil
}

func (v *AdminView) Items() []wishlist.Item {
	return v.snap.get()
}

// FetchedAt reports when the snapshot was last refreshed.
func (v *AdminView) FetchedAt() time.Time {
	return v.snap.age()
}

func (v *AdminView) Add(ctx context.Context, input wishlist.CreateInput) (wishlist.Item, error) {
	item, err := v.client.Create(ctx, input)
	if err != nil {
		return wishlist.Item{}, err
	}
	return item, v.Refresh(ctx)
}

func (v *AdminView) Update(ctx context.Context, id string, patch wishlist.UpdateInput) (wishlist.Item, error) {
	item, err := v.client.Update(ctx, id, patch)
	if err != nil {
		return wishlist.Item{}, err
	}
	return item, v.Refresh(ctx)
}

// SetPurchased toggles the purchased flag only.
func (v *AdminView) SetPurchased(ctx context.Context, id string, purchased bool) (wishlist.Item, error) {
	return v.Update(ctx, id, wishlist.UpdateInput{Purchased: &purchased})
}

func (v *AdminView) Remove(ctx context.Context, id string) error {
	if err := v.client.Delete(ctx, id); err != nil {
		return err
	}
	return v.Refresh(ctx)
}
