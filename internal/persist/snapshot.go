// Package persist snapshots the chunk store to a versioned durable blob and
// reloads it at startup. A restore failure is logged and treated as "start
// empty", never fatal: the engine must come up even with a corrupt snapshot
// on disk.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/chunk"
)

// SnapshotVersion identifies the blob format.
const SnapshotVersion = 1

// snapshotFile is the blob name inside the configured directory.
const snapshotFile = "chunks.json"

// ErrVersionMismatch indicates a blob written by an incompatible format.
var ErrVersionMismatch = errors.New("snapshot version mismatch")

// snapshotBlob is the on-disk format.
type snapshotBlob struct {
	Version int           `json:"version"`
	SavedAt time.Time     `json:"saved_at"`
	Chunks  []chunk.Chunk `json:"chunks"`
}

// Reindexer re-registers restored chunks with the vector index. Implemented
// by retrieval.Index; nil when no embedder is configured.
type Reindexer interface {
	Add(ctx context.Context, chunks []chunk.Chunk) error
}

// Adapter persists the chunk store. Snapshot and Restore serialize against
// each other; a snapshot works from a point-in-time copy of the store taken
// under the store's read lock.
type Adapter struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

// NewAdapter creates a persistence adapter rooted at dir.
func NewAdapter(dir string, logger *zap.Logger) (*Adapter, error) {
	if dir == "" {
		return nil, fmt.Errorf("persistence directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating persistence directory: %w", err)
	}
	return &Adapter{dir: dir, logger: logger}, nil
}

// Snapshot serializes all chunks to the versioned blob. Any existing blob is
// first copied to a timestamped backup; the blob is never overwritten
// without one.
func (a *Adapter) Snapshot(store *chunk.Store) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	chunks := store.All()
	blob := snapshotBlob{
		Version: SnapshotVersion,
		SavedAt: time.Now().UTC(),
		Chunks:  chunks,
	}

	path := filepath.Join(a.dir, snapshotFile)
	if err := a.backupExisting(path); err != nil {
		return fmt.Errorf("backing up snapshot: %w", err)
	}

	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}

	a.logger.Info("snapshot written",
		zap.String("path", path),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

// Restore loads the blob, rebuilds the store's project index via Append, and
// re-registers chunks with the vector index when one is configured. It
// returns the number of restored chunks; a missing or unreadable blob
// restores nothing and returns no error.
func (a *Adapter) Restore(ctx context.Context, store *chunk.Store, reindexer Reindexer) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := filepath.Join(a.dir, snapshotFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			a.logger.Info("no snapshot found, starting empty", zap.String("path", path))
			return 0, nil
		}
		a.logger.Warn("snapshot unreadable, starting empty", zap.Error(err))
		return 0, nil
	}

	var blob snapshotBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		a.logger.Warn("snapshot corrupt, starting empty", zap.Error(err))
		return 0, nil
	}
	if blob.Version != SnapshotVersion {
		a.logger.Warn("snapshot version unsupported, starting empty",
			zap.Int("found", blob.Version),
			zap.Int("want", SnapshotVersion),
		)
		return 0, nil
	}

	if _, err := store.Append(ctx, blob.Chunks); err != nil {
		a.logger.Warn("snapshot contains invalid chunks, starting empty", zap.Error(err))
		return 0, nil
	}

	if reindexer != nil {
		if err := reindexer.Add(ctx, blob.Chunks); err != nil {
			// Chunks stay searchable on the lexical path.
			a.logger.Warn("re-registering restored chunks with index failed", zap.Error(err))
		}
	}

	a.logger.Info("snapshot restored",
		zap.Int("chunks", len(blob.Chunks)),
		zap.Time("saved_at", blob.SavedAt),
	)
	return len(blob.Chunks), nil
}

// backupExisting copies the current blob to a timestamped sibling.
func (a *Adapter) backupExisting(path string) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	backup := fmt.Sprintf("%s.bak.%d", path, time.Now().Unix())
	dst, err := os.Create(backup)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	a.logger.Debug("snapshot backup created", zap.String("path", backup))
	return nil
}
