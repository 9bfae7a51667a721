package corpus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/keyword"
	"github.com/goel7054/swagger-bot/internal/models"
	"github.com/goel7054/swagger-bot/internal/specdoc"
)

// ErrNoLoader is returned by Reload on a store created without a loader.
var ErrNoLoader = errors.New("corpus store has no loader")

// Snapshot is one immutable build of the corpus. Readers take a snapshot and
// use it for the whole request; later reloads publish new snapshots without
// touching old ones.
type Snapshot struct {
	BuildID   string
	BuiltAt   time.Time
	Corpus    *models.Corpus
	Documents []*specdoc.Document
	Keyword   keyword.Index
	Report    *specdoc.Report
}

// NewSnapshot builds the corpus and keyword index for docs.
func NewSnapshot(docs []*specdoc.Document, report *specdoc.Report) (*Snapshot, error) {
	c := Build(docs)
	idx, err := keyword.NewBleveIndex(c.Entries)
	if err != nil {
		return nil, fmt.Errorf("build keyword index: %w", err)
	}
	if report == nil {
		report = &specdoc.Report{Sources: len(docs), Loaded: len(docs)}
	}
	return &Snapshot{
		BuildID:   uuid.New().String(),
		BuiltAt:   time.Now().UTC(),
		Corpus:    c,
		Documents: docs,
		Keyword:   idx,
		Report:    report,
	}, nil
}

// Document returns the loaded document with the given source ID.
func (s *Snapshot) Document(sourceID string) (*specdoc.Document, bool) {
	for _, d := range s.Documents {
		if d.SourceID == sourceID {
			return d, true
		}
	}
	return nil, false
}

// Store holds the current snapshot. Reads are lock-free; reloads are
// serialized and swap the pointer only after a complete build succeeds.
type Store struct {
	loader  *specdoc.Loader
	paths   []string
	current atomic.Pointer[Snapshot]
	reload  sync.Mutex
	onSwap  []func(*Snapshot)
	logger  *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithOnSwap registers fn to run after each new snapshot is published.
func WithOnSwap(fn func(*Snapshot)) StoreOption {
	return func(s *Store) { s.onSwap = append(s.onSwap, fn) }
}

// NewStore creates a store that loads paths with loader. The store starts
// with an empty snapshot; call Reload to load the documents.
func NewStore(loader *specdoc.Loader, paths []string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		loader: loader,
		paths:  append([]string(nil), paths...),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	empty, err := NewSnapshot(nil, &specdoc.Report{})
	if err != nil {
		return nil, err
	}
	s.current.Store(empty)
	return s, nil
}

// NewStaticStore returns a store that serves the given documents and cannot
// reload.
func NewStaticStore(docs []*specdoc.Document, opts ...StoreOption) (*Store, error) {
	s, err := NewStore(nil, nil, opts...)
	if err != nil {
		return nil, err
	}
	snap, err := NewSnapshot(docs, nil)
	if err != nil {
		return nil, err
	}
	s.publish(snap)
	return s, nil
}

// Snapshot returns the current snapshot. It never returns nil.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Corpus returns the current snapshot's corpus.
func (s *Store) Corpus() *models.Corpus {
	return s.Snapshot().Corpus
}

// Paths returns the configured spec paths.
func (s *Store) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Reload loads every configured path and publishes the result. On failure
// the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	if s.loader == nil {
		return nil, ErrNoLoader
	}
	s.reload.Lock()
	defer s.reload.Unlock()

	start := time.Now()
	res, err := s.loader.Load(ctx, s.paths)
	if err != nil {
		return nil, fmt.Errorf("reload corpus: %w", err)
	}
	snap, err := NewSnapshot(res.Documents, res.Report)
	if err != nil {
		return nil, fmt.Errorf("reload corpus: %w", err)
	}
	s.publish(snap)

	s.logger.Info("corpus loaded",
		zap.String("build_id", snap.BuildID),
		zap.Int("documents", len(snap.Documents)),
		zap.Int("operations", len(snap.Corpus.Entries)),
		zap.Int("failed", snap.Report.Failed()),
		zap.Duration("took", time.Since(start)))
	return snap, nil
}

// publish swaps in snap. The previous snapshot's index is not closed because
// in-flight requests may still be reading it; in-memory indexes are released
// by the garbage collector.
func (s *Store) publish(snap *Snapshot) {
	s.current.Store(snap)
	for _, fn := range s.onSwap {
		fn(snap)
	}
}
