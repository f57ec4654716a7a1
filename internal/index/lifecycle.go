package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"legalrag/internal/domain"
)

// RecordSource produces the article records to index. It returns
// domain.ErrMissingCorpus when there is no corpus to read.
type RecordSource func(ctx context.Context) ([]domain.ArticleRecord, error)

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Dir      string
	Embedder domain.Embedder
	Records  RecordSource
	Build    BuildOptions
	Logger   *slog.Logger
}

// Manager loads or builds the index once per process and caches it.
// A lock file next to the index directory serializes builds across processes.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	mu sync.Mutex
	ix *Index
}

// NewManager creates a Manager; nothing is loaded until Open.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Build.Logger == nil {
		cfg.Build.Logger = logger
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Open returns the cached index, loading or building it on first use.
func (m *Manager) Open(ctx context.Context) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ix != nil {
		return m.ix, nil
	}
	ix, err := m.open(ctx, false)
	if err != nil {
		return nil, err
	}
	m.ix = ix
	return ix, nil
}

// Rebuild discards any persisted index and builds a fresh one from the corpus.
func (m *Manager) Rebuild(ctx context.Context) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ix, err := m.open(ctx, true)
	if err != nil {
		return nil, err
	}
	m.ix = ix
	return ix, nil
}

func (m *Manager) open(ctx context.Context, force bool) (*Index, error) {
	if m.cfg.Dir == "" {
		return nil, domain.E(domain.KindInvalidInput, "index open", "index dir is required", nil)
	}
	if m.cfg.Embedder == nil || m.cfg.Records == nil {
		return nil, domain.E(domain.KindInvalidInput, "index open", "embedder and record source are required", nil)
	}
	modelID := m.cfg.Embedder.ModelID()

	var loadErr error
	if !force {
		ix, err := m.tryLoad(modelID)
		if ix != nil {
			return ix, nil
		}
		loadErr = err
	}

	if err := os.MkdirAll(filepath.Dir(m.cfg.Dir), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create index parent: %w", err)
	}
	lock := flock.New(m.cfg.Dir + ".lock")
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire index lock: %s is held", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	// Another process may have finished the build while we waited.
	if !force {
		ix, err := m.tryLoad(modelID)
		if ix != nil {
			return ix, nil
		}
		loadErr = err
	}

	records, err := m.cfg.Records(ctx)
	if errors.Is(err, domain.ErrMissingCorpus) {
		if loadErr != nil {
			return nil, loadErr
		}
		// a forced rebuild keeps the persisted index authoritative
		if force && Exists(m.cfg.Dir) {
			return nil, fmt.Errorf("rebuild %s: %w", m.cfg.Dir, err)
		}
		m.logger.Warn("corpus missing, serving an empty index", "dir", m.cfg.Dir, "error", err)
		return Empty(modelID, m.cfg.Build.SourceLabel), nil
	}
	if err != nil {
		return nil, err
	}
	if loadErr != nil {
		m.logger.Warn("rebuilding index from corpus", "dir", m.cfg.Dir, "error", loadErr)
	}

	ix, err := Build(ctx, records, m.cfg.Embedder, m.cfg.Build)
	if err != nil {
		return nil, err
	}
	if ix.Len() == 0 {
		m.logger.Warn("corpus produced no articles, index not persisted", "dir", m.cfg.Dir)
		return ix, nil
	}
	if err := Persist(ix, m.cfg.Dir); err != nil {
		return nil, err
	}
	m.logger.Info("index persisted", "dir", m.cfg.Dir, "records", ix.Len())
	return ix, nil
}

// tryLoad returns (nil, nil) when no index is persisted, (ix, nil) on
// success, and (nil, ErrCorruptIndex) when a persisted index is unusable.
func (m *Manager) tryLoad(modelID string) (*Index, error) {
	if !Exists(m.cfg.Dir) {
		if _, err := os.Stat(m.cfg.Dir); err == nil {
			return nil, domain.E(domain.KindCorruptIndex, "index load", "manifest missing in "+m.cfg.Dir, nil)
		}
		return nil, nil
	}
	ix, err := Load(m.cfg.Dir, modelID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("index loaded", "dir", m.cfg.Dir, "records", ix.Len(), "model", ix.ModelID())
	return ix, nil
}
