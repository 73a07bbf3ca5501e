package annotator

import (
	"context"
	"sync"
	"time"

	"pdf-layout-annotator/internal/domain"
	apperrors "pdf-layout-annotator/pkg/errors"
)

// Default persistence timings.
const (
	DefaultSaveDebounce  = 100 * time.Millisecond
	DefaultUnloadTimeout = 2 * time.Second
)

// Timer is a pending debounce callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through
// SystemAfterFunc; tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

// SystemAfterFunc schedules with the runtime timer.
func SystemAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Saver persists a document's annotation set.
type Saver interface {
	SaveAnnotations(ctx context.Context, ref domain.DocumentRef, annotations domain.PdfAnnotations) error
}

// SaveSource hands out the current set with its version and accepts the
// confirmation that a version was persisted.
type SaveSource interface {
	Snapshot() (domain.PdfAnnotations, uint64)
	MarkSaved(version uint64)
}

// SaveCoordinatorConfig configures a SaveCoordinator.
type SaveCoordinatorConfig struct {
	Ref           domain.DocumentRef
	Saver         Saver
	Source        SaveSource
	Notifier      Notifier
	Logger        domain.Logger
	Debounce      time.Duration
	UnloadTimeout time.Duration
	AfterFunc     AfterFunc
}

// SaveCoordinator coalesces edits into debounced saves of the full set.
// Only the latest state is sent; a failed save leaves the set dirty and is
// not retried until the next edit or the final flush.
type SaveCoordinator struct {
	mu      sync.Mutex
	cfg     SaveCoordinatorConfig
	timer   Timer
	gen     uint64
	stopped bool
}

// NewSaveCoordinator fills defaults for zero durations and a nil AfterFunc.
func NewSaveCoordinator(cfg SaveCoordinatorConfig) *SaveCoordinator {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultSaveDebounce
	}
	if cfg.UnloadTimeout <= 0 {
		cfg.UnloadTimeout = DefaultUnloadTimeout
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = SystemAfterFunc
	}
	return &SaveCoordinator{cfg: cfg}
}

// Changed arms the debounce timer, replacing any pending one.
func (c *SaveCoordinator) Changed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.cfg.AfterFunc(c.cfg.Debounce, func() { c.fire(gen) })
}

// fire runs the debounced save for timer generation gen. A callback that was
// already running when Changed re-armed leaves the newer timer in place.
func (c *SaveCoordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	stopped := c.stopped
	c.mu.Unlock()
	if stopped {
		return
	}
	_ = c.save(context.Background())
}

// Flush cancels the pending timer and makes one bounded save attempt. It is
// the unload path: failures are reported and returned, never retried.
func (c *SaveCoordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.UnloadTimeout)
	defer cancel()
	return c.save(ctx)
}

// Stop cancels the pending timer and ignores later changes.
func (c *SaveCoordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *SaveCoordinator) save(ctx context.Context) error {
	set, version := c.cfg.Source.Snapshot()
	if !set.UnsavedChanges {
		return nil
	}

	if err := c.cfg.Saver.SaveAnnotations(ctx, c.cfg.Ref, set); err != nil {
		saveErr := apperrors.NewPersistenceError("saving annotations failed", err)
		c.cfg.Logger.Error("Failed to save annotations", err, "document", c.cfg.Ref.String(), "annotations", set.Len())
		if c.cfg.Notifier != nil {
			c.cfg.Notifier.Notify(saveErr)
		}
		return saveErr
	}

	c.cfg.Source.MarkSaved(version)
	c.cfg.Logger.Debug("Annotations saved", "document", c.cfg.Ref.String(), "annotations", set.Len(), "version", version)
	return nil
}
