package annotator

import (
	"context"
	"sync"

	"golang.org/x/image/draw"

	"pdf-layout-annotator/internal/domain"
	apperrors "pdf-layout-annotator/pkg/errors"
)

// DragState is the pointer interaction state of a page.
type DragState int

const (
	Idle DragState = iota
	Dragging
	Resolving
)

func (s DragState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resolving:
		return "resolving"
	default:
		return "idle"
	}
}

// Interaction exposes the session state a page needs to interpret a drag.
type Interaction interface {
	ActiveLabel() (domain.Label, bool)
	Mode() Mode
	Options() Options
}

// PageControllerConfig wires a PageController.
type PageControllerConfig struct {
	Page        int
	Width       float64
	Height      float64
	Tokens      *TokenIndex
	Store       Store
	Interaction Interaction
	Selection   *Selection
	Assigner    *ReadingOrderAssigner
	Renderer    *PageRenderer
	OnError     func(error)
	Logger      domain.Logger
}

// PageController turns pointer input on one page into annotation edits.
// Pointer coordinates are in the same screen space as the page placement.
type PageController struct {
	mu        sync.Mutex
	cfg       PageControllerConfig
	placement domain.Bounds
	placed    bool
	state     DragState
	drag      domain.Bounds
}

// NewPageController creates a controller in the Idle state. The page has
// no placement until Resize is called.
func NewPageController(cfg PageControllerConfig) *PageController {
	return &PageController{cfg: cfg}
}

// Page returns the 0-based page index.
func (c *PageController) Page() int {
	return c.cfg.Page
}

// State returns the current drag state.
func (c *PageController) State() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Size returns the intrinsic page size.
func (c *PageController) Size() (float64, float64) {
	return c.cfg.Width, c.cfg.Height
}

// Placement returns the on-screen page rectangle.
func (c *PageController) Placement() (domain.Bounds, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placement, c.placed
}

// Transform returns the logical-to-screen transform for the current
// placement.
func (c *PageController) Transform() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewTransform(c.placement, c.cfg.Width)
}

// Resize records a new placement. When a renderer and surface are given the
// page is re-rendered at the new scale, cancelling any render in flight.
func (c *PageController) Resize(ctx context.Context, placement domain.Bounds, surface draw.Image) <-chan error {
	placement = placement.Normalize()
	c.mu.Lock()
	c.placement = placement
	c.placed = true
	c.mu.Unlock()

	if c.cfg.Renderer == nil || surface == nil {
		done := make(chan error)
		close(done)
		return done
	}
	return c.cfg.Renderer.Render(ctx, NewTransform(placement, c.cfg.Width).Scale, surface)
}

// PointerDown starts a candidate rectangle. Without a known placement the
// drag cannot be interpreted and a geometry error is reported.
func (c *PageController) PointerDown(x, y float64) error {
	c.mu.Lock()
	if !c.placed {
		c.mu.Unlock()
		err := apperrors.NewGeometryError("page placement unknown at drag start")
		c.reportError(err)
		return err
	}
	if c.state != Idle {
		c.mu.Unlock()
		return nil
	}
	c.state = Dragging
	c.drag = domain.Bounds{Left: x, Top: y, Right: x, Bottom: y}
	c.mu.Unlock()
	return nil
}

// PointerMove updates the far corner of the candidate rectangle.
func (c *PageController) PointerMove(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Dragging {
		return
	}
	c.drag.Right = x
	c.drag.Bottom = y
}

// Candidate returns the live drag rectangle in screen coordinates, possibly
// inverted, and the tokens it currently covers.
func (c *PageController) Candidate() (domain.Bounds, []domain.TokenID, bool) {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return domain.Bounds{}, nil, false
	}
	drag := c.drag
	t := NewTransform(c.placement, c.cfg.Width)
	c.mu.Unlock()

	if c.cfg.Tokens == nil {
		return drag, nil, true
	}
	return drag, c.cfg.Tokens.TokensUnder(c.cfg.Page, t.ToLogical(drag.Normalize())), true
}

// PointerUp finishes the drag: the rectangle is normalized, converted to
// logical units and resolved according to the session mode. Resolution
// conditions such as a missing active label discard the drag silently.
func (c *PageController) PointerUp(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return nil
	}
	c.state = Resolving
	logical := NewTransform(c.placement, c.cfg.Width).ToLogical(c.drag.Normalize())
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = Idle
		c.drag = domain.Bounds{}
		c.mu.Unlock()
	}()

	if c.cfg.Interaction.Mode() == ModeReadingOrder {
		return c.resolveReadingOrder(ctx, logical)
	}
	c.resolveLabel(logical)
	return nil
}

func (c *PageController) resolve(logical domain.Bounds) ([]domain.TokenID, domain.Bounds) {
	if c.cfg.Tokens == nil {
		return []domain.TokenID{}, logical
	}
	return c.cfg.Tokens.Resolve(c.cfg.Page, logical)
}

func (c *PageController) resolveLabel(logical domain.Bounds) {
	label, ok := c.cfg.Interaction.ActiveLabel()
	if !ok {
		c.debug("Drag discarded", "reason", "no active label")
		return
	}

	var a domain.Annotation
	if c.cfg.Interaction.Options().Freeform {
		a = domain.NewAnnotation(logical, c.cfg.Page, label, nil)
	} else {
		tokens, bounds := c.resolve(logical)
		a = domain.NewAnnotation(bounds, c.cfg.Page, label, tokens)
	}
	c.cfg.Store.Apply(func(p domain.PdfAnnotations) domain.PdfAnnotations {
		return p.WithNewAnnotation(a)
	})
}

func (c *PageController) resolveReadingOrder(ctx context.Context, logical domain.Bounds) error {
	tokens, bounds := c.resolve(logical)
	if len(tokens) == 0 || c.cfg.Assigner == nil {
		c.debug("Drag discarded", "reason", "no tokens for reading order")
		return nil
	}

	candidate := domain.NewAnnotation(bounds, c.cfg.Page, domain.Label{Color: ReadingOrderCandidateColor}, tokens)
	if len(tokens) == 1 {
		c.cfg.Assigner.Interactive(candidate)
		return nil
	}
	return c.cfg.Assigner.Auto(ctx, candidate)
}

// ShiftClick toggles the topmost editable annotation under the point in the
// ephemeral selection. The annotation set is not touched.
func (c *PageController) ShiftClick(x, y float64) (domain.Annotation, bool) {
	if c.cfg.Selection == nil {
		return domain.Annotation{}, false
	}
	t := c.Transform()
	point := domain.Bounds{Left: x, Top: y, Right: x, Bottom: y}
	annotations := c.cfg.Store.Current().ForPage(c.cfg.Page)
	for i := len(annotations) - 1; i >= 0; i-- {
		a := annotations[i]
		if !a.Editable() || !containsPoint(t.ToScreen(a.Bounds).Normalize(), point) {
			continue
		}
		c.cfg.Selection.Toggle(a)
		return a, true
	}
	return domain.Annotation{}, false
}

func containsPoint(b, p domain.Bounds) bool {
	return p.Left >= b.Left && p.Left <= b.Right && p.Top >= b.Top && p.Top <= b.Bottom
}

// Overlay is one rectangle to draw over the page.
type Overlay struct {
	Annotation  domain.Annotation
	Screen      domain.Bounds
	Color       string
	BorderWidth int
	ShowLabel   bool
	Selected    bool
}

// Visible reports whether the placement intersects viewport.
func (c *PageController) Visible(viewport domain.Bounds) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placed && c.placement.Overlaps(viewport.Normalize())
}

// Overlays builds the drawable overlays of the page. Nothing is built while
// the page is outside viewport; the annotation set itself is never filtered.
func (c *PageController) Overlays(viewport domain.Bounds) []Overlay {
	if !c.Visible(viewport) {
		return nil
	}
	t := c.Transform()
	opts := c.cfg.Interaction.Options()
	out := make([]Overlay, 0)

	if opts.ShowTokens && c.cfg.Tokens != nil {
		if page, ok := c.cfg.Tokens.Page(c.cfg.Page); ok {
			for i, tok := range page.Tokens {
				out = append(out, c.overlay(domain.NewTokenPreview(tok, c.cfg.Page, i), t, opts))
			}
		}
	}
	for _, a := range c.cfg.Store.Current().ForPage(c.cfg.Page) {
		out = append(out, c.overlay(a, t, opts))
	}
	return out
}

func (c *PageController) overlay(a domain.Annotation, t Transform, opts Options) Overlay {
	selected := c.cfg.Selection != nil && a.Editable() && c.cfg.Selection.Contains(a.ID)
	return Overlay{
		Annotation:  a,
		Screen:      t.ToScreen(a.Bounds),
		Color:       a.Color(),
		BorderWidth: a.Bounds.BorderWidth(),
		ShowLabel:   !a.HideLabel && !opts.HideLabels,
		Selected:    selected,
	}
}

func (c *PageController) reportError(err error) {
	if c.cfg.OnError != nil {
		c.cfg.OnError(err)
	}
}

func (c *PageController) debug(msg string, fields ...interface{}) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Debug(msg, append([]interface{}{"page", c.cfg.Page}, fields...)...)
	}
}
