package wishlist

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/khauni/homepage/pkg/errors"
	"github.com/khauni/homepage/pkg/jsonfile"
	"github.com/khauni/homepage/pkg/logger"
	"github.com/khauni/homepage/pkg/metrics"
)

const (
	idBytes         = 16
	maxIDAttempts   = 8
	opList          = "list"
	opGet           = "get"
	opCreate        = "create"
	opUpdate        = "update"
	opDelete        = "delete"
	opPing          = "ping"
	errItemNotFound = "wishlist item not found"
)

// Store is the sole authority over the persisted wishlist.
type Store interface {
	List(ctx context.Context, opts ListOptions) ([]Item, error)
	Get(ctx context.Context, id string) (Item, error)
	Create(ctx context.Context, input CreateInput) (Item, error)
	Update(ctx context.Context, id string, patch UpdateInput) (Item, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// ServiceParams groups dependencies for the file-backed store.
type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
	// Metrics may be nil.
	Metrics *metrics.OperationMetrics
	// FailSoftList makes List return an empty collection instead of a storage error.
	FailSoftList bool
	Clock        func() time.Time
	NewID        func() (string, error)
}

// FileStore implements Store over a Repository. Every read-modify-write cycle
// runs under the write lock so concurrent mutations never lose updates.
type FileStore struct {
	mu           sync.RWMutex
	repo         *Repository
	logg         *logger.Logger
	metrics      *metrics.OperationMetrics
	failSoftList bool
	clock        func() time.Time
	newID        func() (string, error)
}

var _ Store = (*FileStore)(nil)

// NewStore builds a FileStore with the required dependencies.
func NewStore(params ServiceParams) (*FileStore, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wishlist repo is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := params.NewID
	if newID == nil {
		newID = NewID
	}
	return &FileStore{
		repo:         params.Repo,
		logg:         logg,
		metrics:      params.Metrics,
		failSoftList: params.FailSoftList,
		clock:        clock,
		newID:        newID,
	}, nil
}

// NewID returns 128 random bits, hex encoded.
func NewID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Bootstrap makes sure the document exists and parses. A missing or blank
// document becomes an empty array; an unparseable one is moved aside first.
func (s *FileStore) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = s.logg.WithFields(ctx, map[string]any{"component": "wishlist", "path": s.repo.Path()})
	items, err := s.repo.Load()
	switch {
	case err == nil:
		s.logg.Info(s.logg.WithField(ctx, "items", len(items)), "wishlist document loaded")
		return nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, jsonfile.ErrEmpty):
		if _, err := s.repo.Reset(false, s.clock()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "initialize wishlist document")
		}
		s.logg.Info(ctx, "wishlist document initialized")
		return nil
	case errors.Is(err, jsonfile.ErrCorrupt):
		backup, resetErr := s.repo.Reset(true, s.clock())
		if resetErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, resetErr, "reset corrupt wishlist document")
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"backup": backup, "error": err.Error()}), "wishlist document was unreadable and has been reset")
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read wishlist document")
	}
}

// List returns every item. Read failures degrade to an empty collection when
// the store is configured to fail soft.
func (s *FileStore) List(ctx context.Context, opts ListOptions) ([]Item, error) {
	start := time.Now()
	s.mu.RLock()
	items, err := s.load()
	s.mu.RUnlock()
	s.metrics.Track(opList, start, err)

	if err != nil {
		if !s.failSoftList {
			return nil, err
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"component": "wishlist", "error": err.Error()}), "wishlist read failed; serving empty list")
		return []Item{}, nil
	}

	if opts.Order != OrderInsertion {
		slices.SortStableFunc(items, func(a, b Item) int {
			return b.AddedAt.Compare(a.AddedAt)
		})
	}
	return items, nil
}

// Get returns the item with id.
func (s *FileStore) Get(ctx context.Context, id string) (item Item, err error) {
	start := time.Now()
	defer func() { s.metrics.Track(opGet, start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.load()
	if err != nil {
		return Item{}, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return Item{}, pkgerrors.New(pkgerrors.CodeNotFound, errItemNotFound)
	}
	return items[idx], nil
}

// Create validates input, allocates an id and appends the new item.
func (s *FileStore) Create(ctx context.Context, input CreateInput) (item Item, err error) {
	start := time.Now()
	defer func() { s.metrics.Track(opCreate, start, err) }()

	input.Name = strings.TrimSpace(input.Name)
	input.Link = strings.TrimSpace(input.Link)
	if details := requiredFields(input.Name, input.Link); details != nil {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "name and link are required").WithDetails(details)
	}
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return Item{}, err
	}
	id, err := s.allocateID(items)
	if err != nil {
		return Item{}, err
	}

	item = Item{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Price:       input.Price,
		Link:        input.Link,
		Purchased:   false,
		AddedAt:     s.now(),
	}
	if err := s.save(append(items, item)); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Update applies patch to the item with id.
func (s *FileStore) Update(ctx context.Context, id string, patch UpdateInput) (item Item, err error) {
	start := time.Now()
	defer func() { s.metrics.Track(opUpdate, start, err) }()

	details := map[string]string{}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		details["name"] = "must not be empty"
	}
	if patch.Link != nil && strings.TrimSpace(*patch.Link) == "" {
		details["link"] = "must not be empty"
	}
	if len(details) > 0 {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "name and link must not be empty").WithDetails(details)
	}
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return Item{}, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return Item{}, pkgerrors.New(pkgerrors.CodeNotFound, errItemNotFound)
	}
	if patch.IsEmpty() {
		return items[idx], nil
	}

	items[idx] = patch.apply(items[idx])
	if err := s.save(items); err != nil {
		return Item{}, err
	}
	return items[idx], nil
}

// Delete removes the item with id.
func (s *FileStore) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.metrics.Track(opDelete, start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(slices.Clone(items), func(item Item) bool {
		return item.ID == id
	})
	if len(remaining) == len(items) {
		return pkgerrors.New(pkgerrors.CodeNotFound, errItemNotFound)
	}
	if err := s.save(remaining); err != nil {
		return err
	}
	return nil
}

// Ping verifies the document is readable.
func (s *FileStore) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.metrics.Track(opPing, start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err = s.load()
	return err
}

// load reads the collection. A missing or blank document counts as empty.
func (s *FileStore) load() ([]Item, error) {
	items, err := s.repo.Load()
	switch {
	case err == nil:
		return items, nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, jsonfile.ErrEmpty):
		return []Item{}, nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read wishlist")
	}
}

func (s *FileStore) save(items []Item) error {
	if err := s.repo.Save(items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "write wishlist")
	}
	return nil
}

func (s *FileStore) allocateID(items []Item) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate item id")
		}
		if id != "" && indexOf(items, id) < 0 {
			return id, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique item id")
}

// now truncates to milliseconds so the persisted timestamp round-trips exactly.
func (s *FileStore) now() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}

func indexOf(items []Item, id string) int {
	return slices.IndexFunc(items, func(item Item) bool {
		return item.ID == id
	})
}

func requiredFields(name, link string) map[string]string {
	details := map[string]string{}
	if name == "" {
		details["name"] = "is required"
	}
	if link == "" {
		details["link"] = "is required"
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
