package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/chunk"
)

func seedStore(t *testing.T, n int) *chunk.Store {
	t.Helper()
	s := chunk.NewStore(zap.NewNop())
	var chunks []chunk.Chunk
	for i := 0; i < n; i++ {
		chunks = append(chunks, chunk.Chunk{
			ID:         string(rune('a' + i)),
			DocumentID: "doc-1",
			ProjectID:  "proj-1",
			Content:    "stored content",
			Index:      0,
			Total:      1,
			WordCount:  2,
			Importance: 5,
			Timestamp:  time.Now().UTC(),
		})
	}
	if n > 0 {
		_, err := s.Append(context.Background(), chunks)
		require.NoError(t, err)
	}
	return s
}

// recordingReindexer captures chunks passed to Add.
type recordingReindexer struct {
	added []chunk.Chunk
	err   error
}

func (r *recordingReindexer) Add(ctx context.Context, chunks []chunk.Chunk) error {
	r.added = append(r.added, chunks...)
	return r.err
}

func TestNewAdapter(t *testing.T) {
	t.Run("creates the directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "snapshots")
		_, err := NewAdapter(dir, zap.NewNop())
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects an empty directory", func(t *testing.T) {
		_, err := NewAdapter("", zap.NewNop())
		assert.Error(t, err)
	})
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAdapter(dir, zap.NewNop())
	require.NoError(t, err)

	src := seedStore(t, 3)
	require.NoError(t, a.Snapshot(src))

	dst := chunk.NewStore(zap.NewNop())
	rx := &recordingReindexer{}
	n, err := a.Restore(context.Background(), dst, rx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, dst.Len())
	assert.Len(t, rx.added, 3, "restored chunks re-registered with the index")

	got := dst.ByProject("proj-1")
	require.Len(t, got, 3)
	assert.Equal(t, "stored content", got[0].Content)
}

func TestSnapshotBacksUpExistingBlob(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAdapter(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, a.Snapshot(seedStore(t, 1)))
	require.NoError(t, a.Snapshot(seedStore(t, 2)))

	backups, err := filepath.Glob(filepath.Join(dir, "chunks.json.bak.*"))
	require.NoError(t, err)
	assert.NotEmpty(t, backups, "previous blob backed up before overwrite")
}

func TestRestoreDegradedCases(t *testing.T) {
	newAdapter := func(t *testing.T) (*Adapter, string) {
		t.Helper()
		dir := t.TempDir()
		a, err := NewAdapter(dir, zap.NewNop())
		require.NoError(t, err)
		return a, dir
	}

	t.Run("missing snapshot starts empty", func(t *testing.T) {
		a, _ := newAdapter(t)
		dst := chunk.NewStore(zap.NewNop())

		n, err := a.Restore(context.Background(), dst, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, dst.Len())
	})

	t.Run("corrupt snapshot starts empty", func(t *testing.T) {
		a, dir := newAdapter(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), []byte("{not json"), 0o600))

		n, err := a.Restore(context.Background(), chunk.NewStore(zap.NewNop()), nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("version mismatch starts empty", func(t *testing.T) {
		a, dir := newAdapter(t)
		blob := `{"version": 99, "saved_at": "2026-01-01T00:00:00Z", "chunks": []}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), []byte(blob), 0o600))

		n, err := a.Restore(context.Background(), chunk.NewStore(zap.NewNop()), nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("invalid chunks start empty", func(t *testing.T) {
		a, dir := newAdapter(t)
		blob := `{"version": 1, "saved_at": "2026-01-01T00:00:00Z", "chunks": [{"id": "x", "content": "", "project_id": "p", "chunk_index": 0, "total_chunks": 1, "importance": 5}]}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), []byte(blob), 0o600))

		dst := chunk.NewStore(zap.NewNop())
		n, err := a.Restore(context.Background(), dst, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, dst.Len())
	})

	t.Run("reindexer failure does not fail the restore", func(t *testing.T) {
		a, _ := newAdapter(t)
		require.NoError(t, a.Snapshot(seedStore(t, 2)))

		dst := chunk.NewStore(zap.NewNop())
		rx := &recordingReindexer{err: assert.AnError}
		n, err := a.Restore(context.Background(), dst, rx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 2, dst.Len())
	})
}
