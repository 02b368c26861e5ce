package notes_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echonote/internal/logging"
	"echonote/internal/notes"
	"echonote/internal/services"
)

func openRegistry(t *testing.T) *notes.Registry {
	t.Helper()
	registry, err := notes.Open(filepath.Join(t.TempDir(), "notes.db"), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })
	return registry
}

func TestCreateAndGet(t *testing.T) {
	registry := openRegistry(t)
	ctx := context.Background()

	created, err := registry.Create(ctx, "meeting", "notes/meeting.md")
	require.NoError(t, err)
	assert.Equal(t, "meeting", created.Title)
	assert.Equal(t, "notes/meeting.md", created.NotePath)
	assert.Empty(t, created.TranscribedText)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	fetched, err := registry.Get(ctx, "meeting")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestGetMissingNote(t *testing.T) {
	registry := openRegistry(t)

	_, err := registry.Get(context.Background(), "absent")
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestDuplicateTitleLeavesFirstRowUnchanged(t *testing.T) {
	registry := openRegistry(t)
	ctx := context.Background()

	first, err := registry.Create(ctx, "meeting", "notes/a.md")
	require.NoError(t, err)

	_, err = registry.Create(ctx, "meeting", "notes/b.md")
	assert.True(t, errors.Is(err, services.ErrDuplicateKey))
	assert.Contains(t, err.Error(), "title")

	fetched, err := registry.Get(ctx, "meeting")
	require.NoError(t, err)
	assert.Equal(t, first.NotePath, fetched.NotePath)
}

func TestDuplicateNotePath(t *testing.T) {
	registry := openRegistry(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "first", "notes/shared.md")
	require.NoError(t, err)

	_, err = registry.Create(ctx, "second", "notes/shared.md")
	assert.True(t, errors.Is(err, services.ErrDuplicateKey))
	assert.Contains(t, err.Error(), "path")
}

func TestUpdateStageColumn(t *testing.T) {
	registry := openRegistry(t)
	ctx := context.Background()

	created, err := registry.Create(ctx, "meeting", "notes/meeting.md")
	require.NoError(t, err)

	require.NoError(t, registry.Update(ctx, "meeting", notes.ColumnTranscribedText, "hello world"))

	fetched, err := registry.Get(ctx, "meeting")
	require.NoError(t, err)
	assert.Equal(t, "hello world", fetched.TranscribedText)
	assert.False(t, fetched.UpdatedAt.Before(created.UpdatedAt))
}

func TestUpdateRejectsUnknownColumn(t *testing.T) {
	registry := openRegistry(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "meeting", "notes/meeting.md")
	require.NoError(t, err)

	err = registry.Update(ctx, "meeting", "title", "hijacked")
	require.Error(t, err)

	err = registry.Update(ctx, "meeting", "created_at; DROP TABLE notes", "x")
	require.Error(t, err)
}

func TestUpdateMissingNote(t *testing.T) {
	registry := openRegistry(t)

	err := registry.Update(context.Background(), "absent", notes.ColumnRevisedText, "text")
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestUpdatedAtCannotBeBackdated(t *testing.T) {
	registry := openRegistry(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "meeting", "notes/meeting.md")
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, registry.Update(ctx, "meeting", notes.ColumnUpdatedAt, "2000-01-01T00:00:00Z"))

	fetched, err := registry.Get(ctx, "meeting")
	require.NoError(t, err)
	assert.True(t, fetched.UpdatedAt.After(before), "updated_at %v should be current, not the supplied value", fetched.UpdatedAt)
}

func TestDelete(t *testing.T) {
	registry := openRegistry(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "meeting", "notes/meeting.md")
	require.NoError(t, err)

	require.NoError(t, registry.Delete(ctx, "meeting"))

	_, err = registry.Get(ctx, "meeting")
	assert.True(t, errors.Is(err, services.ErrNotFound))

	err = registry.Delete(ctx, "meeting")
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestListOrderedByCreation(t *testing.T) {
	registry := openRegistry(t)
	ctx := context.Background()

	for _, title := range []string{"alpha", "beta", "gamma"} {
		_, err := registry.Create(ctx, title, "notes/"+title+".md")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	listed, err := registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "alpha", listed[0].Title)
	assert.Equal(t, "gamma", listed[2].Title)
}

func TestClosedRegistryReturnsStoreUnavailable(t *testing.T) {
	registry := openRegistry(t)
	require.NoError(t, registry.Close())

	_, err := registry.Get(context.Background(), "meeting")
	assert.True(t, errors.Is(err, services.ErrStoreUnavailable))

	err = registry.Update(context.Background(), "meeting", notes.ColumnRevisedText, "x")
	assert.True(t, errors.Is(err, services.ErrStoreUnavailable))
}
