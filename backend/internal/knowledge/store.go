package knowledge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"fundrag/backend/internal/metrics"
	apperrors "fundrag/backend/pkg/errors"
	"fundrag/backend/pkg/logger"
	"go.uber.org/zap"
)

// Loader reads the seven knowledge base tables from some backing source
type Loader interface {
	// Name identifies the source in logs and metrics (csv, yaml, neo4j)
	Name() string
	Load(ctx context.Context) (*Tables, error)
}

// Store holds the live snapshot. Reload replaces it with a single atomic
// pointer swap; readers call Current once per query and keep that handle.
type Store struct {
	current atomic.Pointer[Snapshot]
	logger  *zap.Logger
}

// NewStore creates a store with no snapshot loaded
func NewStore() *Store {
	return &Store{logger: logger.Named("knowledge")}
}

// NewStoreWith creates a store already holding snap
func NewStoreWith(snap *Snapshot) *Store {
	st := NewStore()
	st.Swap(snap)
	return st
}

// Current returns the live snapshot, or nil if none has been loaded
func (st *Store) Current() *Snapshot {
	return st.current.Load()
}

// Swap installs snap and returns the previous snapshot
func (st *Store) Swap(snap *Snapshot) *Snapshot {
	old := st.current.Swap(snap)
	if snap != nil {
		for table, n := range snap.Counts() {
			metrics.SnapshotRows.WithLabelValues(table).Set(float64(n))
		}
	}
	return old
}

// Reload loads all tables from loader, builds a snapshot and swaps it in. On
// any failure, or when the loaded snapshot is empty, the previous snapshot
// stays live and an error is returned.
func (st *Store) Reload(ctx context.Context, loader Loader) (*Snapshot, error) {
	start := time.Now()
	source := loader.Name()

	tables, err := loader.Load(ctx)
	if err != nil {
		metrics.SnapshotReloads.WithLabelValues(source, "error").Inc()
		st.logger.Error("Knowledge base load failed",
			zap.String("source", source),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	snap := Build(tables, source)
	if snap.Empty() {
		metrics.SnapshotReloads.WithLabelValues(source, "empty").Inc()
		st.logger.Warn("Loaded knowledge base is empty, keeping previous snapshot",
			zap.String("source", source),
		)
		return nil, apperrors.NewLoadFailed(source, "*", apperrors.ErrSnapshotUnavailable)
	}

	st.Swap(snap)
	metrics.SnapshotReloads.WithLabelValues(source, "success").Inc()
	st.logger.Info("Knowledge base loaded",
		zap.String("source", source),
		zap.Any("counts", snap.Counts()),
		zap.Int("dropped_links", snap.DroppedLinks()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snap, nil
}
