package render

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"pdf-layout-annotator/internal/annotator"
	"pdf-layout-annotator/internal/domain"
)

// baseDPI is the resolution at which page bounds are reported in points.
const baseDPI = 72.0

// rasterizer is the subset of *fitz.Document used here.
type rasterizer interface {
	NumPage() int
	Bound(pageNumber int) (image.Rectangle, error)
	ImageDPI(pageNumber int, dpi float64) (*image.RGBA, error)
	Close() error
}

// Loader opens PDF documents with MuPDF.
type Loader struct {
	logger domain.Logger
	open   func(data []byte) (rasterizer, error)
}

// NewLoader creates a MuPDF backed loader.
func NewLoader(logger domain.Logger) *Loader {
	return &Loader{
		logger: logger,
		open: func(data []byte) (rasterizer, error) {
			return fitz.NewFromMemory(data)
		},
	}
}

// Load opens data and measures every page, reporting progress per page.
func (l *Loader) Load(ctx context.Context, data []byte, progress annotator.ProgressFunc) (annotator.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	r, err := l.open(data)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	doc, err := newDocument(ctx, r, progress)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	l.logger.Debug("Document loaded", "pages", len(doc.sizes))
	return doc, nil
}

// Document is a loaded PDF. MuPDF contexts are not shared between
// goroutines, so rasterization is serialized per document.
type Document struct {
	mu     sync.Mutex
	r      rasterizer
	sizes  []image.Rectangle
	closed bool

	// paint guards gens and every copy onto a caller surface.
	paint sync.Mutex
	gens  []uint64
}

func newDocument(ctx context.Context, r rasterizer, progress annotator.ProgressFunc) (*Document, error) {
	n := r.NumPage()
	d := &Document{r: r, sizes: make([]image.Rectangle, 0, n), gens: make([]uint64, n)}
	if progress != nil {
		progress(0, n)
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := r.Bound(i)
		if err != nil {
			return nil, fmt.Errorf("measure page %d: %w", i, err)
		}
		d.sizes = append(d.sizes, b)
		if progress != nil {
			progress(i+1, n)
		}
	}
	return d, nil
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return len(d.sizes)
}

// Page returns page index.
func (d *Document) Page(index int) (annotator.PageSource, error) {
	if index < 0 || index >= len(d.sizes) {
		return nil, fmt.Errorf("page %d out of range [0,%d)", index, len(d.sizes))
	}
	return &Page{doc: d, index: index}, nil
}

// Close releases the MuPDF document.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.r.Close()
}

func (d *Document) rasterize(index int, scale float64) (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("document closed")
	}
	return d.r.ImageDPI(index, baseDPI*scale)
}

// Page is one page of a Document.
type Page struct {
	doc   *Document
	index int
}

// Size returns the page size in points.
func (p *Page) Size() (float64, float64) {
	b := p.doc.sizes[p.index]
	return float64(b.Dx()), float64(b.Dy())
}

// Render rasterizes the page at scale and scales the raster onto surface.
// Only the most recent Render of a page reaches the surface; an older one
// that finishes later reports ErrRenderCancelled instead.
func (p *Page) Render(ctx context.Context, scale float64, surface draw.Image) annotator.RenderTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}

	p.doc.paint.Lock()
	p.doc.gens[p.index]++
	gen := p.doc.gens[p.index]
	p.doc.paint.Unlock()

	go func() {
		defer close(t.done)
		defer cancel()
		t.err = p.render(ctx, gen, scale, surface)
	}()
	return t
}

func (p *Page) render(ctx context.Context, gen uint64, scale float64, surface draw.Image) error {
	if ctx.Err() != nil {
		return domain.ErrRenderCancelled
	}
	img, err := p.doc.rasterize(p.index, scale)
	if err != nil {
		return fmt.Errorf("rasterize page %d: %w", p.index, err)
	}
	if ctx.Err() != nil {
		return domain.ErrRenderCancelled
	}
	if surface == nil {
		return nil
	}

	bounds := surface.Bounds()
	buf := image.NewRGBA(bounds)
	draw.CatmullRom.Scale(buf, bounds, img, img.Bounds(), draw.Src, nil)

	p.doc.paint.Lock()
	defer p.doc.paint.Unlock()
	if ctx.Err() != nil || p.doc.gens[p.index] != gen {
		return domain.ErrRenderCancelled
	}
	draw.Draw(surface, bounds, buf, bounds.Min, draw.Src)
	return nil
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (t *task) Cancel() {
	t.cancel()
}

func (t *task) Wait() error {
	<-t.done
	return t.err
}
