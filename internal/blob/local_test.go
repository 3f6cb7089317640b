package blob_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abatilo/triage/internal/blob"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := blob.NewLocal(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	exists, err := b.Exists(ctx, "tasks/a.md")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Write(ctx, "tasks/b.md", []byte("bee")))
	require.NoError(t, b.Write(ctx, "tasks/a.md", []byte("ay")))
	require.NoError(t, b.Write(ctx, "writer.json", []byte("{}")))

	data, err := b.Read(ctx, "tasks/a.md")
	require.NoError(t, err)
	assert.Equal(t, "ay", string(data))

	paths, err := b.List(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks/a.md", "tasks/b.md"}, paths)

	require.NoError(t, b.Delete(ctx, "tasks/a.md"))
	_, err = b.Read(ctx, "tasks/a.md")
	assert.True(t, errors.Is(err, blob.ErrNotFound))
	assert.True(t, errors.Is(b.Delete(ctx, "tasks/a.md"), blob.ErrNotFound))
}

func TestLocalListMissingPrefix(t *testing.T) {
	b, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	paths, err := b.List(context.Background(), "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLocalPathsStayInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	b, err := blob.NewLocal(filepath.Join(base, "root"))
	require.NoError(t, err)

	require.NoError(t, b.Write(ctx, "../escape.md", []byte("x")))
	exists, err := b.Exists(ctx, "escape.md")
	require.NoError(t, err)
	assert.True(t, exists, "parent segments are clamped to the base path")
}

func TestLocalCreate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := blob.NewLocal(dir)
	require.NoError(t, err)

	require.NoError(t, b.Create(ctx, "writer.json", []byte("first")))
	err = b.Create(ctx, "writer.json", []byte("second"))
	assert.True(t, errors.Is(err, blob.ErrExists), "got %v", err)

	data, err := b.Read(ctx, "writer.json")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalCreateRace(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	const writers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		start = make(chan struct{})
	)
	for i := range writers {
		// Separate instances share no mutex, like separate processes.
		b, err := blob.NewLocal(dir)
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := b.Create(ctx, "writer.json", []byte{byte('a' + i)})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, blob.ErrExists), "got %v", err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestLocalConcurrentWritesSamePath(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var wg sync.WaitGroup
	for i := range 8 {
		b, err := blob.NewLocal(dir)
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Write(ctx, "tasks/a.md", []byte{byte('a' + i)}))
		}()
	}
	wg.Wait()

	b, err := blob.NewLocal(dir)
	require.NoError(t, err)
	data, err := b.Read(ctx, "tasks/a.md")
	require.NoError(t, err)
	assert.Len(t, data, 1)

	entries, err := os.ReadDir(filepath.Join(dir, "tasks"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
