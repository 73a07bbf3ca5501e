package annotator

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/image/draw"

	"pdf-layout-annotator/internal/domain"
	apperrors "pdf-layout-annotator/pkg/errors"
)

// PageRenderer keeps at most one render in flight for a page. Starting a
// render cancels the previous one first; the cancelled task's failure is
// swallowed and any other failure goes to onError.
type PageRenderer struct {
	mu      sync.Mutex
	page    PageSource
	current RenderTask
	scale   float64
	onError func(error)
	logger  domain.Logger
}

// NewPageRenderer creates a renderer for page.
func NewPageRenderer(page PageSource, onError func(error), logger domain.Logger) *PageRenderer {
	return &PageRenderer{page: page, onError: onError, logger: logger}
}

// Render cancels the in-flight render, if any, and renders at scale. The
// returned channel yields the surfaced error (nil on success or cancel) and
// is then closed.
func (r *PageRenderer) Render(ctx context.Context, scale float64, surface draw.Image) <-chan error {
	r.mu.Lock()
	if r.current != nil {
		r.current.Cancel()
	}
	task := r.page.Render(ctx, scale, surface)
	r.current = task
	r.scale = scale
	r.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := task.Wait()

		r.mu.Lock()
		if r.current == task {
			r.current = nil
		}
		r.mu.Unlock()

		if err == nil || isCancellation(err) {
			done <- nil
			return
		}
		renderErr := apperrors.NewRenderError("page render failed", err)
		if r.logger != nil {
			r.logger.Error("Render failed", err, "scale", scale)
		}
		if r.onError != nil {
			r.onError(renderErr)
		}
		done <- renderErr
	}()
	return done
}

// Cancel requests cancellation of the in-flight render.
func (r *PageRenderer) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Cancel()
	}
}

// Scale returns the scale of the most recent render request.
func (r *PageRenderer) Scale() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scale
}

func isCancellation(err error) bool {
	return errors.Is(err, domain.ErrRenderCancelled) || errors.Is(err, context.Canceled)
}
