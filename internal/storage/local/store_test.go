package local_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/fact-poller/internal/fact"
	"github.com/JakeFAU/fact-poller/internal/id/uuid"
	"github.com/JakeFAU/fact-poller/internal/storage/local"
)

var sample = fact.Fact{
	Source:    "user",
	Type:      "cat",
	ID:        "58e008780aac31001185ed05",
	Revision:  0,
	Text:      "Owning a cat can reduce the risk of stroke and heart attack by a third.",
	UpdatedAt: "2020-08-23T20:20:01.611Z",
	CreatedAt: "2018-03-29T20:20:03.844Z",
	Status:    fact.Status{Verified: true, SentCount: 1},
	User:      "58e007480aac31001185ecef",
}

type fixedIDs struct {
	id  string
	err error
}

func (f fixedIDs) NewID() (string, error) { return f.id, f.err }

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()}, uuid.New())
		require.NoError(t, err)
		assert.NotNil(t, store)
		assert.Equal(t, "local", store.Name())
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "data")
		_, err := local.New(local.Config{BaseDir: dir}, uuid.New())
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{}, uuid.New())
		assert.Error(t, err)
	})

	t.Run("MissingIDGenerator", func(t *testing.T) {
		_, err := local.New(local.Config{BaseDir: t.TempDir()}, nil)
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file}, uuid.New())
		assert.Error(t, err)
	})

	t.Run("BaseDirNotWritable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		dir := t.TempDir()
		// #nosec G302 -- directory permissions adjusted intentionally for test coverage.
		require.NoError(t, os.Chmod(dir, 0o500))
		t.Cleanup(func() {
			// #nosec G302 -- reverting permissions to allow cleanup in the test environment.
			_ = os.Chmod(dir, 0o700)
		})
		_, err := local.New(local.Config{BaseDir: dir}, uuid.New())
		assert.Error(t, err)
	})
}

func TestSaveWritesOneFilePerRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir}, uuid.New())
	require.NoError(t, err)

	other := sample
	other.ID = "5887e1d85c873e0011036889"
	other.Text = "Cats make about 100 different sounds."

	key1, err := store.Save(context.Background(), sample)
	require.NoError(t, err)
	key2, err := store.Save(context.Background(), other)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// #nosec G304 -- test reads from the controlled temp directory.
	data, err := os.ReadFile(store.Path(key1))
	require.NoError(t, err)
	decoded, err := fact.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sample, decoded)
	assert.Contains(t, string(data), "\n  \"_id\": ")
}

func TestSaveFailuresLeaveNoFile(t *testing.T) {
	t.Parallel()

	t.Run("KeyGenerationFails", func(t *testing.T) {
		dir := t.TempDir()
		store, err := local.New(local.Config{BaseDir: dir}, fixedIDs{err: errors.New("entropy")})
		require.NoError(t, err)

		_, err = store.Save(context.Background(), sample)
		require.Error(t, err)
		assertEmpty(t, dir)
	})

	t.Run("KeyCollision", func(t *testing.T) {
		dir := t.TempDir()
		store, err := local.New(local.Config{BaseDir: dir}, fixedIDs{id: "same"})
		require.NoError(t, err)

		_, err = store.Save(context.Background(), sample)
		require.NoError(t, err)
		_, err = store.Save(context.Background(), sample)
		require.Error(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("ContextCanceled", func(t *testing.T) {
		dir := t.TempDir()
		store, err := local.New(local.Config{BaseDir: dir}, uuid.New())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = store.Save(ctx, sample)
		require.ErrorIs(t, err, context.Canceled)
		assertEmpty(t, dir)
	})
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
