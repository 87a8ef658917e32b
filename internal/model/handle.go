package model

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Loader builds a model on first use.
type Loader[T io.Closer] func(ctx context.Context) (T, error)

// Handle is a lazily loaded, process wide model. The first Ensure runs the
// loader under the handle mutex; concurrent callers wait and then observe the
// cached value. A failed load leaves the handle empty so the next call retries.
type Handle[T io.Closer] struct {
	load   Loader[T]
	wrap   func(T) T
	notify func(Kind, bool)

	mu      sync.Mutex
	current atomic.Pointer[T]

	infoMu sync.RWMutex
	info   ModelInstance
}

func newHandle[T io.Closer](info ModelInstance, load Loader[T], wrap func(T) T, notify func(Kind, bool)) *Handle[T] {
	info.Status = ModelStatusUnloaded
	return &Handle[T]{
		load:   load,
		wrap:   wrap,
		notify: notify,
		info:   info,
	}
}

// Ensure returns the cached model, loading it first if needed.
func (h *Handle[T]) Ensure(ctx context.Context) (T, error) {
	if p := h.current.Load(); p != nil {
		return *p, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if p := h.current.Load(); p != nil {
		return *p, nil
	}

	var zero T
	info := h.Instance()
	if h.load == nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, info.Kind, ErrNotConfigured)
	}

	h.setStatus(ModelStatusLoading, nil)
	slog.Info("Loading model", "kind", info.Kind, "id", info.ID, "provider", info.Provider)

	start := time.Now()
	v, err := h.load(ctx)
	if err != nil {
		h.setStatus(ModelStatusFailed, err)
		slog.Error("Model failed to load", "kind", info.Kind, "id", info.ID, "error", err)
		return zero, fmt.Errorf("%w: %s model %q: %w", ErrModelUnavailable, info.Kind, info.ID, err)
	}

	if h.wrap != nil {
		v = h.wrap(v)
	}
	h.current.Store(&v)
	h.setStatus(ModelStatusLoaded, nil)

	slog.Info("Model loaded", "kind", info.Kind, "id", info.ID, "duration", time.Since(start))
	if h.notify != nil {
		h.notify(info.Kind, true)
	}
	return v, nil
}

// Ready reports whether the model is loaded. It never blocks.
func (h *Handle[T]) Ready() bool {
	return h.current.Load() != nil
}

// Instance returns a copy of the handle's status record.
func (h *Handle[T]) Instance() ModelInstance {
	h.infoMu.RLock()
	defer h.infoMu.RUnlock()

	return h.info
}

func (h *Handle[T]) setStatus(status ModelStatus, err error) {
	h.infoMu.Lock()
	defer h.infoMu.Unlock()

	if err != nil {
		h.info.SetError(err)
		return
	}
	h.info.SetStatus(status)
}

// Close closes the loaded model and resets the handle.
func (h *Handle[T]) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Unpublish before closing so the lock-free path never sees a closed model.
	p := h.current.Swap(nil)
	if p == nil {
		return nil
	}

	err := (*p).Close()
	h.setStatus(ModelStatusUnloaded, nil)

	if h.notify != nil {
		h.notify(h.Instance().Kind, false)
	}
	return err
}
