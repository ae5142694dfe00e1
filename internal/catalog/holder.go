package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pricelist/internal/obs"
)

// ErrLoading is returned while the first catalog load is in flight.
var ErrLoading = errors.New("catalog: loading")

// State describes the lifecycle of the installed catalog.
type State string

const (
	// StateLoading is the state before the first load completes.
	StateLoading State = "loading"
	// StateReady means a snapshot from the provider is installed.
	StateReady State = "ready"
	// StateError means the last load failed and an empty catalog is installed.
	StateError State = "error"
)

// Snapshot is an immutable catalog view. Records and Index must not be modified.
type Snapshot struct {
	Records  []ProductRecord
	Index    []Category
	LoadedAt time.Time
}

// Status is the externally visible holder state.
type Status struct {
	State    State      `json:"state"`
	Source   string     `json:"source"`
	Records  int        `json:"records"`
	Error    string     `json:"error,omitempty"`
	LoadedAt *time.Time `json:"loadedAt,omitempty"`
}

// HolderConfig configures a Holder.
type HolderConfig struct {
	Provider Provider
	// Source labels metrics and status, e.g. "static" or "http".
	Source string
	Now    func() time.Time
}

// Holder owns the current catalog snapshot. Readers never block on a load.
type Holder struct {
	provider Provider
	source   string
	now      func() time.Time

	snap atomic.Pointer[Snapshot]

	mu      sync.RWMutex
	state   State
	loadErr error
}

// NewHolder constructs a Holder in the loading state.
func NewHolder(cfg HolderConfig) *Holder {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	source := cfg.Source
	if source == "" {
		source = "custom"
	}
	return &Holder{provider: cfg.Provider, source: source, now: now, state: StateLoading}
}

// NewLoadedHolder returns a ready Holder serving records.
func NewLoadedHolder(records []ProductRecord) *Holder {
	h := NewHolder(HolderConfig{Provider: StaticProvider{Records: records}, Source: "static"})
	h.install(records, nil)
	return h
}

// Load fetches the catalog once and installs it. On failure an empty catalog
// is installed, the holder enters the error state and the error is returned.
// Load does not retry.
func (h *Holder) Load(ctx context.Context) error {
	return h.load(ctx, false)
}

// Reload refetches the catalog after startup. A failed reload keeps a ready
// snapshot in place instead of replacing it with an empty catalog.
func (h *Holder) Reload(ctx context.Context) error {
	return h.load(ctx, true)
}

func (h *Holder) load(ctx context.Context, keepReady bool) error {
	if h == nil {
		return errors.New("catalog: holder not configured")
	}
	logger := zerolog.Ctx(ctx)
	if h.provider == nil {
		err := errors.New("catalog: no provider configured")
		h.install(nil, err)
		return err
	}
	start := h.now()
	records, err := h.provider.Fetch(ctx)
	if err != nil {
		err = fmt.Errorf("load catalog: %w", err)
		obs.RecordCatalogLoad(h.source, err, 0)
		if keepReady && h.Ready(ctx) == nil {
			logger.Warn().Err(err).Str("source", h.source).Msg("catalog_reload_failed")
			return err
		}
		h.install(nil, err)
		logger.Error().Err(err).Str("source", h.source).Msg("catalog_load_failed")
		return err
	}
	h.install(records, nil)
	obs.RecordCatalogLoad(h.source, nil, len(records))
	logger.Info().
		Str("source", h.source).
		Int("records", len(records)).
		Dur("duration", h.now().Sub(start)).
		Msg("catalog_loaded")
	return nil
}

func (h *Holder) install(records []ProductRecord, loadErr error) {
	if records == nil {
		records = []ProductRecord{}
	}
	h.snap.Store(&Snapshot{
		Records:  records,
		Index:    BuildIndex(records),
		LoadedAt: h.now().UTC(),
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	if loadErr != nil {
		h.state = StateError
	} else {
		h.state = StateReady
	}
	h.loadErr = loadErr
}

// Snapshot returns the installed snapshot, or ErrLoading before the first
// load completes. After a failed load it returns the empty snapshot.
func (h *Holder) Snapshot() (*Snapshot, error) {
	if h == nil {
		return nil, ErrLoading
	}
	snap := h.snap.Load()
	if snap == nil {
		return nil, ErrLoading
	}
	return snap, nil
}

// Records returns the installed records, or nil while loading.
func (h *Holder) Records() []ProductRecord {
	snap, err := h.Snapshot()
	if err != nil {
		return nil
	}
	return snap.Records
}

// Status reports the holder state for the status endpoint.
func (h *Holder) Status() Status {
	if h == nil {
		return Status{State: StateLoading}
	}
	h.mu.RLock()
	status := Status{State: h.state, Source: h.source}
	if h.loadErr != nil {
		status.Error = h.loadErr.Error()
	}
	h.mu.RUnlock()
	if snap := h.snap.Load(); snap != nil {
		loadedAt := snap.LoadedAt
		status.Records = len(snap.Records)
		status.LoadedAt = &loadedAt
	}
	return status
}

// Ready returns nil once a catalog is served, ErrLoading while loading, and
// the load error after a failed load.
func (h *Holder) Ready(context.Context) error {
	if h == nil {
		return ErrLoading
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	switch h.state {
	case StateReady:
		return nil
	case StateError:
		return h.loadErr
	default:
		return ErrLoading
	}
}
