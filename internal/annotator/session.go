package annotator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pdf-layout-annotator/internal/domain"
	apperrors "pdf-layout-annotator/pkg/errors"
)

// ViewState is the display state of an open document.
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewLoaded
	ViewNotFound
	ViewError
)

func (v ViewState) String() string {
	switch v {
	case ViewLoaded:
		return "loaded"
	case ViewNotFound:
		return "not_found"
	case ViewError:
		return "error"
	default:
		return "loading"
	}
}

// SessionConfig wires a document session.
type SessionConfig struct {
	Ref      domain.DocumentRef
	Backend  Backend
	Logger   domain.Logger
	Notifier Notifier

	// Loader and Source are optional. Without them pages are laid out from
	// the token payload at scale 1.
	Loader DocumentLoader
	Source []byte

	Mode          Mode
	SaveDebounce  time.Duration
	UnloadTimeout time.Duration
	AfterFunc     AfterFunc
}

// Session owns the annotation set of one open document. It is the single
// writer: page controllers and the reading-order assigner change the set
// only through its Store methods.
type Session struct {
	mu sync.Mutex

	ref      domain.DocumentRef
	backend  Backend
	logger   domain.Logger
	notifier Notifier

	set     domain.PdfAnnotations
	version uint64

	labels      []domain.Label
	activeLabel int
	mode        Mode
	options     Options

	view      ViewState
	viewErr   error
	loaded    int
	total     int
	tokens    *TokenIndex
	document  Document
	pages     []*PageController
	selection *Selection
	assigner  *ReadingOrderAssigner
	saver     *SaveCoordinator
	closed    bool
}

// Open creates a session and hydrates it with one fetch of annotations,
// tokens and labels. An unknown document yields a session in ViewNotFound
// and no error; other failures yield ViewError and the error.
func Open(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if err := cfg.Ref.Validate(); err != nil {
		return nil, err
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(cfg.Logger)
	}

	s := &Session{
		ref:         cfg.Ref,
		backend:     cfg.Backend,
		logger:      cfg.Logger,
		notifier:    notifier,
		set:         domain.NewPdfAnnotations(nil),
		activeLabel: -1,
		mode:        cfg.Mode,
		view:        ViewLoading,
		tokens:      NewTokenIndex(domain.PagesTokens{}),
		selection:   NewSelection(),
	}
	s.assigner = NewReadingOrderAssigner(cfg.Ref, cfg.Backend, s, s.selection, notifier, cfg.Logger)
	s.saver = NewSaveCoordinator(SaveCoordinatorConfig{
		Ref:           cfg.Ref,
		Saver:         cfg.Backend,
		Source:        s,
		Notifier:      notifier,
		Logger:        cfg.Logger,
		Debounce:      cfg.SaveDebounce,
		UnloadTimeout: cfg.UnloadTimeout,
		AfterFunc:     cfg.AfterFunc,
	})

	if err := s.hydrate(ctx, cfg); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			s.setView(ViewNotFound, nil)
			s.logger.Warn("Document not found", "document", cfg.Ref.String())
			return s, nil
		}
		s.setView(ViewError, err)
		s.logger.Error("Failed to open document", err, "document", cfg.Ref.String())
		return s, err
	}

	s.setView(ViewLoaded, nil)
	s.logger.Info("Document opened", "document", cfg.Ref.String(), "annotations", s.Current().Len(), "pages", len(s.pages))
	return s, nil
}

func (s *Session) hydrate(ctx context.Context, cfg SessionConfig) error {
	var (
		annotations domain.PdfAnnotations
		pagesTokens domain.PagesTokens
		labels      []domain.Label
		document    Document
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		annotations, err = cfg.Backend.Annotations(gctx, cfg.Ref)
		if err != nil {
			return fmt.Errorf("fetch annotations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		pagesTokens, err = cfg.Backend.Tokens(gctx, cfg.Ref.Name)
		if errors.Is(err, domain.ErrTokensNotFound) {
			s.logger.Warn("Document has no tokens", "document", cfg.Ref.String())
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch tokens: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		labels, err = cfg.Backend.Labels(gctx, cfg.Ref.Task)
		if err != nil {
			return fmt.Errorf("fetch labels: %w", err)
		}
		return nil
	})
	if cfg.Loader != nil {
		g.Go(func() error {
			var err error
			document, err = cfg.Loader.Load(gctx, cfg.Source, s.setProgress)
			if err != nil {
				return apperrors.NewRenderError("loading document failed", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if document != nil {
			_ = document.Close()
		}
		return err
	}

	if len(labels) == 0 {
		labels = domain.DefaultLabels
	}

	s.mu.Lock()
	s.set = domain.NewPdfAnnotations(annotations.Annotations)
	s.version++
	s.tokens = NewTokenIndex(pagesTokens)
	s.labels = labels
	s.activeLabel = 0
	s.document = document
	s.mu.Unlock()

	return s.buildPages()
}

func (s *Session) buildPages() error {
	pages := make([]*PageController, 0)
	if s.document != nil {
		for i := 0; i < s.document.NumPages(); i++ {
			src, err := s.document.Page(i)
			if err != nil {
				return apperrors.NewRenderError(fmt.Sprintf("opening page %d failed", i), err)
			}
			w, h := src.Size()
			renderer := NewPageRenderer(src, s.ReportError, s.logger)
			pages = append(pages, s.newPage(i, w, h, renderer))
		}
	} else {
		for _, p := range s.tokens.Pages() {
			pages = append(pages, s.newPage(p.Index, p.Width, p.Height, nil))
		}
	}

	s.mu.Lock()
	s.pages = pages
	s.mu.Unlock()
	return nil
}

func (s *Session) newPage(index int, width, height float64, renderer *PageRenderer) *PageController {
	c := NewPageController(PageControllerConfig{
		Page:        index,
		Width:       width,
		Height:      height,
		Tokens:      s.tokens,
		Store:       s,
		Interaction: s,
		Selection:   s.selection,
		Assigner:    s.assigner,
		Renderer:    renderer,
		OnError:     s.ReportError,
		Logger:      s.logger,
	})
	if renderer == nil {
		c.Resize(context.Background(), domain.Bounds{Right: width, Bottom: height}, nil)
	}
	return c
}

func (s *Session) setProgress(loaded, total int) {
	s.mu.Lock()
	s.loaded, s.total = loaded, total
	s.mu.Unlock()
}

func (s *Session) setView(v ViewState, err error) {
	s.mu.Lock()
	s.view, s.viewErr = v, err
	s.mu.Unlock()
}

// Ref returns the open document.
func (s *Session) Ref() domain.DocumentRef {
	return s.ref
}

// View returns the display state and, for ViewError, its cause.
func (s *Session) View() (ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.viewErr
}

// Progress returns document load progress.
func (s *Session) Progress() (loaded, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded, s.total
}

// ReportError is the page-level error handler. Fatal errors move the view
// to ViewError; everything else becomes a notification.
func (s *Session) ReportError(err error) {
	if err == nil {
		return
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Fatal() {
		s.setView(ViewError, err)
		s.logger.Error("Page error", err, "document", s.ref.String())
		return
	}
	s.notifier.Notify(err)
}

// Pages returns the page controllers in page order.
func (s *Session) Pages() []*PageController {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*PageController(nil), s.pages...)
}

// Page returns the controller of a 0-based page index.
func (s *Session) Page(index int) (*PageController, bool) {
	for _, p := range s.Pages() {
		if p.Page() == index {
			return p, true
		}
	}
	return nil, false
}

// Tokens returns the token index.
func (s *Session) Tokens() *TokenIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// Selection returns the ephemeral shift-click selection.
func (s *Session) Selection() *Selection {
	return s.selection
}

// ReadingOrder returns the reading-order assigner.
func (s *Session) ReadingOrder() *ReadingOrderAssigner {
	return s.assigner
}

// Current implements Store.
func (s *Session) Current() domain.PdfAnnotations {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Apply implements Store. The update runs against the newest set under the
// session lock, so it never starts from a stale copy.
func (s *Session) Apply(update func(domain.PdfAnnotations) domain.PdfAnnotations) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.set = update(s.set)
	s.version++
	dirty := s.set.UnsavedChanges
	s.mu.Unlock()

	if dirty {
		s.saver.Changed()
	}
}

// Install implements Store. Installed sets come from the backend and are
// already persisted.
func (s *Session) Install(annotations domain.PdfAnnotations) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.set = domain.NewPdfAnnotations(annotations.Annotations)
	s.version++
}

// Snapshot implements SaveSource.
func (s *Session) Snapshot() (domain.PdfAnnotations, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set, s.version
}

// MarkSaved implements SaveSource. A confirmation for an older version is
// ignored so newer edits stay dirty.
func (s *Session) MarkSaved(version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version != s.version {
		return
	}
	s.set = s.set.MarkSaved()
}

// AddAnnotation inserts a evicting overlapping annotations on its page.
func (s *Session) AddAnnotation(a domain.Annotation) {
	s.Apply(func(p domain.PdfAnnotations) domain.PdfAnnotations {
		return p.WithNewAnnotation(a)
	})
}

// DeleteAnnotation removes the annotation with id.
func (s *Session) DeleteAnnotation(id string) {
	s.Apply(func(p domain.PdfAnnotations) domain.PdfAnnotations {
		return p.DeleteAnnotation(id)
	})
}

// Undo removes the most recently added annotation.
func (s *Session) Undo() {
	s.Apply(func(p domain.PdfAnnotations) domain.PdfAnnotations {
		return p.Undo()
	})
}

// Relabel replaces the label of annotation id, keeping its id and tokens.
func (s *Session) Relabel(id string, label domain.Label) error {
	if _, ok := s.Current().Find(id); !ok {
		return fmt.Errorf("relabel %s: %w", id, domain.ErrAnnotationMissing)
	}
	s.Apply(func(p domain.PdfAnnotations) domain.PdfAnnotations {
		a, ok := p.Find(id)
		if !ok {
			return p
		}
		return p.DeleteAnnotation(id).WithNewAnnotation(a.Update(domain.AnnotationDelta{Label: &label}))
	})
	return nil
}

// Summary returns the display text of an annotation.
func (s *Session) Summary(a domain.Annotation) string {
	return s.Tokens().Summary(a)
}

// Labels returns the label palette.
func (s *Session) Labels() []domain.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Label(nil), s.labels...)
}

// ActiveLabel implements Interaction.
func (s *Session) ActiveLabel() (domain.Label, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeLabel < 0 || s.activeLabel >= len(s.labels) {
		return domain.Label{}, false
	}
	return s.labels[s.activeLabel], true
}

// SetActiveLabel activates the label with name. An empty name clears it.
func (s *Session) SetActiveLabel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		s.activeLabel = -1
		return true
	}
	for i, l := range s.labels {
		if l.Name == name {
			s.activeLabel = i
			return true
		}
	}
	return false
}

// Mode implements Interaction.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches between label and reading-order interaction.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// Options implements Interaction.
func (s *Session) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// SetOptions replaces the sidebar toggles.
func (s *Session) SetOptions(o Options) {
	s.mu.Lock()
	s.options = o
	s.mu.Unlock()
}

// KeyEvent is one key press.
type KeyEvent struct {
	Key  string
	Ctrl bool
	Meta bool
}

// Key dispatches a key press. An open position prompt takes every key;
// otherwise Control toggles label captions, Meta/Ctrl+z undoes, and the
// digit, arrow, "a" and "d" keys pick the active label.
func (s *Session) Key(ctx context.Context, e KeyEvent) error {
	if s.assigner.Picker() != nil {
		return s.assigner.Key(ctx, e.Key)
	}

	switch {
	case e.Key == "Control":
		s.mu.Lock()
		s.options.HideLabels = !s.options.HideLabels
		s.mu.Unlock()
	case (e.Meta || e.Ctrl) && e.Key == "z":
		s.Undo()
	default:
		s.labelKey(e.Key)
	}
	return nil
}

func (s *Session) labelKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.labels)
	if n == 0 {
		return
	}

	switch key {
	case "1", "2", "3", "4", "5", "6", "7", "8", "9", "0":
		index := int(key[0]-'0') - 1
		if key == "0" {
			index = 9
		}
		if index < n {
			s.activeLabel = index
		}
	case "ArrowRight", "d":
		if s.activeLabel < 0 {
			s.activeLabel = 0
			return
		}
		s.activeLabel = (s.activeLabel + 1) % n
	case "ArrowLeft", "a":
		if s.activeLabel < 0 {
			s.activeLabel = 0
			return
		}
		s.activeLabel = (s.activeLabel - 1 + n) % n
	}
}

// Close flushes pending changes once, stops the debounce timer, releases the
// document and clears the selection. A failed flush is reported and
// returned but does not keep the session open.
func (s *Session) Close(ctx context.Context) error {
	err := s.saver.Flush(ctx)
	s.saver.Stop()

	s.mu.Lock()
	s.closed = true
	document := s.document
	s.document = nil
	s.mu.Unlock()

	s.selection.Clear()
	s.assigner.Dismiss()
	for _, p := range s.Pages() {
		if p.cfg.Renderer != nil {
			p.cfg.Renderer.Cancel()
		}
	}
	if document != nil {
		if cerr := document.Close(); cerr != nil {
			s.logger.Warn("Closing document failed", "error", cerr.Error())
		}
	}
	s.logger.Info("Document closed", "document", s.ref.String())
	return err
}
