package wishlist

import (
	"time"

	"github.com/khauni/homepage/pkg/jsonfile"
)

// Repository persists the whole item collection as one JSON array document.
type Repository struct {
	path string
}

// NewRepository binds the repository to the document at path.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the document location.
func (r *Repository) Path() string {
	return r.path
}

// Load reads every item in insertion order. The jsonfile sentinel errors and
// fs.ErrNotExist are returned untouched so callers can decide how to recover.
func (r *Repository) Load() ([]Item, error) {
	var items []Item
	if err := jsonfile.Read(r.path, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Save replaces the document with items.
func (r *Repository) Save(items []Item) error {
	if items == nil {
		items = []Item{}
	}
	return jsonfile.Write(r.path, items)
}

// Reset moves an unreadable document aside and writes an empty collection in its place.
// It returns the backup location, or "" when there was nothing to move.
func (r *Repository) Reset(corrupt bool, now time.Time) (string, error) {
	backup := ""
	if corrupt {
		moved, err := jsonfile.MoveAside(r.path, now)
		if err != nil {
			return "", err
		}
		backup = moved
	}
	return backup, r.Save([]Item{})
}
