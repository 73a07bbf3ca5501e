package annotator

import (
	"context"

	"golang.org/x/image/draw"
)

// RenderTask is an in-flight page render. Cancel only requests
// cancellation; Wait reports domain.ErrRenderCancelled for a cancelled task.
type RenderTask interface {
	Cancel()
	Wait() error
}

// PageSource is one page of a loaded document.
type PageSource interface {
	// Size is the intrinsic page size in logical units.
	Size() (width, height float64)
	// Render draws the page at scale into surface.
	Render(ctx context.Context, scale float64, surface draw.Image) RenderTask
}

// Document is a loaded document handed out by a DocumentLoader.
type Document interface {
	NumPages() int
	Page(index int) (PageSource, error)
	Close() error
}

// ProgressFunc receives load progress as completed and total units.
type ProgressFunc func(loaded, total int)

// DocumentLoader opens a document from its raw bytes.
type DocumentLoader interface {
	Load(ctx context.Context, data []byte, progress ProgressFunc) (Document, error)
}
