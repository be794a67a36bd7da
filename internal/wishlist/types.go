package wishlist

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// TimestampLayout always carries three fractional digits so stored documents
// and API payloads keep a fixed-width addedAt.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Item is a single desired-product record.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Price       string    `json:"price"`
	Link        string    `json:"link"`
	Purchased   bool      `json:"purchased"`
	AddedAt     time.Time `json:"addedAt"`
}

// MarshalJSON writes AddedAt in UTC with millisecond precision.
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		ImageURL    string `json:"imageUrl"`
		Price       string `json:"price"`
		Link        string `json:"link"`
		Purchased   bool   `json:"purchased"`
		AddedAt     string `json:"addedAt"`
	}{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		ImageURL:    i.ImageURL,
		Price:       i.Price,
		Link:        i.Link,
		Purchased:   i.Purchased,
		AddedAt:     i.AddedAt.UTC().Format(TimestampLayout),
	})
}

// CreateInput carries the client-supplied fields of a new item.
type CreateInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,max=2048"`
	Price       string `json:"price" validate:"max=64"`
	Link        string `json:"link" validate:"required,max=2048"`
}

// UpdateInput is a partial patch: nil fields are left untouched, non-nil fields
// overwrite even when they hold the zero value.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=2048"`
	Price       *string `json:"price" validate:"omitempty,max=64"`
	Link        *string `json:"link" validate:"omitempty,max=2048"`
	Purchased   *bool   `json:"purchased"`
}

// UnmarshalJSON rejects explicit nulls: a field is either omitted (kept) or
// set to a concrete value.
func (u *UpdateInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var nulls []string
	for name, raw := range fields {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			nulls = append(nulls, name)
		}
	}
	if len(nulls) > 0 {
		sort.Strings(nulls)
		return fmt.Errorf("%w: %s", ErrNullField, strings.Join(nulls, ", "))
	}

	type plain UpdateInput
	var out plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return err
	}
	*u = UpdateInput(out)
	return nil
}

// ErrNullField is returned when a patch sets a field to null.
var ErrNullField = errors.New("null is not a valid value")

// IsEmpty reports whether the patch carries no fields.
func (u UpdateInput) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.ImageURL == nil &&
		u.Price == nil && u.Link == nil && u.Purchased == nil
}

func (u UpdateInput) apply(item Item) Item {
	if u.Name != nil {
		item.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.ImageURL != nil {
		item.ImageURL = *u.ImageURL
	}
	if u.Price != nil {
		item.Price = *u.Price
	}
	if u.Link != nil {
		item.Link = strings.TrimSpace(*u.Link)
	}
	if u.Purchased != nil {
		item.Purchased = *u.Purchased
	}
	return item
}

// Order selects the presentation order of List.
type Order string

const (
	OrderNewestFirst Order = "newest"
	OrderInsertion   Order = "insertion"
)

// ParseOrder maps a query value to an Order; empty selects newest first.
func ParseOrder(value string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(value))) {
	case "", OrderNewestFirst:
		return OrderNewestFirst, nil
	case OrderInsertion:
		return OrderInsertion, nil
	}
	return "", fmt.Errorf("unknown order %q", value)
}

// ListOptions tunes List.
type ListOptions struct {
	Order Order
}
