package art

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgerrors "github.com/khauni/homepage/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "art.json")
	clock := func() time.Time { return time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC) }
	svc, err := NewService(path, nil, clock)
	require.NoError(t, err)
	return svc, path
}

func TestCurrentEmptyWhenUnset(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, Piece{}, svc.Current(context.Background()))
}

func TestReplaceThenCurrent(t *testing.T) {
	svc, path := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Replace(ctx, UpdateInput{
		ImageURL:    " https://example.com/art.png ",
		ArtistName:  "Ada",
		ArtistLink:  "https://example.com/ada",
		Description: "ink on paper",
	})
	require.NoError(t, err)
	require.NotNil(t, saved.UpdatedAt)
	assert.Equal(t, "https://example.com/art.png", saved.ImageURL)

	assert.Equal(t, saved, svc.Current(ctx))
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestCurrentFailsSoftOnCorruptDocument(t *testing.T) {
	svc, path := newTestService(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	assert.Equal(t, Piece{}, svc.Current(context.Background()))
}

func TestReplaceStorageFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	svc, err := NewService(filepath.Join(blocker, "art.json"), nil, nil)
	require.NoError(t, err)
	_, err = svc.Replace(context.Background(), UpdateInput{ArtistName: "Ada"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStorage), "got %v", err)
}

func TestNewServiceRequiresPath(t *testing.T) {
	_, err := NewService(" ", nil, nil)
	assert.Error(t, err)
}
