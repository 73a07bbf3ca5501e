package annotator

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"pdf-layout-annotator/internal/domain"
	apperrors "pdf-layout-annotator/pkg/errors"
)

// ReadingOrderCandidateColor outlines regions submitted for reordering.
const ReadingOrderCandidateColor = "#70DDBA"

const defaultPosition = "1"

// PositionPicker is the keyboard state of the interactive reading-order
// prompt. Digits append to a typed buffer, Backspace drops the last digit,
// and a buffer that matches no existing position is reset. Enter commits the
// buffer, or position 1 when it is empty.
type PositionPicker struct {
	mu        sync.Mutex
	page      int
	positions []string
	buffer    string
}

// NewPositionPicker lists the numeric position labels of pageAnnotations,
// deduplicated and sorted by integer value.
func NewPositionPicker(page int, pageAnnotations []domain.Annotation) *PositionPicker {
	seen := make(map[int]bool)
	values := make([]int, 0, len(pageAnnotations))
	for _, a := range pageAnnotations {
		n, err := strconv.Atoi(a.Label.Name)
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		values = append(values, n)
	}
	slices.Sort(values)

	positions := make([]string, 0, len(values))
	for _, n := range values {
		positions = append(positions, strconv.Itoa(n))
	}
	return &PositionPicker{page: page, positions: positions}
}

// Page is the page the picker was opened for.
func (p *PositionPicker) Page() int {
	return p.page
}

// Positions returns the selectable positions.
func (p *PositionPicker) Positions() []string {
	return slices.Clone(p.positions)
}

// Buffer returns the typed digits.
func (p *PositionPicker) Buffer() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer
}

// Chosen returns the position that Enter would commit.
func (p *PositionPicker) Chosen() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.buffer == "" {
		return defaultPosition
	}
	return p.buffer
}

// Key feeds one key name ("0".."9", "Backspace", "Enter", anything else).
// It reports true when the key asks to commit.
func (p *PositionPicker) Key(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case key == "Enter":
		return true
	case key == "Backspace":
		if p.buffer != "" {
			p.buffer = p.buffer[:len(p.buffer)-1]
		}
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		p.buffer += key
	}

	if !slices.Contains(p.positions, p.buffer) {
		p.buffer = ""
	}
	return false
}

// Select makes position the committed value.
func (p *PositionPicker) Select(position string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = position
}

// Reorderer is the reading-order part of the backend.
type Reorderer interface {
	ReorderRegion(ctx context.Context, ref domain.DocumentRef, region domain.Annotation) (domain.PdfAnnotations, error)
	ReorderToPosition(ctx context.Context, ref domain.DocumentRef, annotation domain.Annotation, position int) (domain.PdfAnnotations, error)
}

// ReadingOrderAssigner drives both reading-order paths. The backend owns
// position assignment; every successful call installs its response as the
// authoritative set.
type ReadingOrderAssigner struct {
	mu        sync.Mutex
	ref       domain.DocumentRef
	backend   Reorderer
	store     Store
	selection *Selection
	notifier  Notifier
	logger    domain.Logger
	picker    *PositionPicker
}

// NewReadingOrderAssigner creates an assigner for one document.
func NewReadingOrderAssigner(ref domain.DocumentRef, backend Reorderer, store Store, selection *Selection, notifier Notifier, logger domain.Logger) *ReadingOrderAssigner {
	return &ReadingOrderAssigner{
		ref:       ref,
		backend:   backend,
		store:     store,
		selection: selection,
		notifier:  notifier,
		logger:    logger,
	}
}

// Auto submits a multi-token region for whole-page reordering.
func (r *ReadingOrderAssigner) Auto(ctx context.Context, region domain.Annotation) error {
	ordered, err := r.backend.ReorderRegion(ctx, r.ref, region)
	if err != nil {
		return r.fail("reading order update failed", err)
	}
	r.store.Install(ordered)
	r.logger.Info("Reading order updated", "document", r.ref.String(), "page", region.Page, "tokens", len(region.Tokens))
	return nil
}

// Interactive selects candidate and opens the position prompt for its page.
// The annotation is not created until a position is committed.
func (r *ReadingOrderAssigner) Interactive(candidate domain.Annotation) *PositionPicker {
	r.selection.Set(candidate)
	picker := NewPositionPicker(candidate.Page, r.store.Current().ForPage(candidate.Page))

	r.mu.Lock()
	r.picker = picker
	r.mu.Unlock()
	return picker
}

// Picker returns the open position prompt, or nil.
func (r *ReadingOrderAssigner) Picker() *PositionPicker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.picker
}

// Dismiss closes the prompt without committing.
func (r *ReadingOrderAssigner) Dismiss() {
	r.mu.Lock()
	r.picker = nil
	r.mu.Unlock()
}

// Key forwards a key to the open prompt and commits on Enter.
func (r *ReadingOrderAssigner) Key(ctx context.Context, key string) error {
	picker := r.Picker()
	if picker == nil {
		return nil
	}
	if !picker.Key(key) {
		return nil
	}
	return r.Commit(ctx, picker.Chosen())
}

// Select commits an explicitly picked position.
func (r *ReadingOrderAssigner) Select(ctx context.Context, position string) error {
	if picker := r.Picker(); picker != nil {
		picker.Select(position)
	}
	return r.Commit(ctx, position)
}

// Commit moves the first selected annotation to position. It is a no-op
// when nothing is selected.
func (r *ReadingOrderAssigner) Commit(ctx context.Context, position string) error {
	selected, ok := r.selection.First()
	if !ok {
		return nil
	}
	if position == "" {
		position = defaultPosition
	}
	n, err := strconv.Atoi(position)
	if err != nil || n < 1 {
		return apperrors.NewValidationError("invalid reading order position", position)
	}

	ordered, err := r.backend.ReorderToPosition(ctx, r.ref, selected, n)
	if err != nil {
		return r.fail("reading order position update failed", err)
	}
	r.store.Install(ordered)
	r.selection.Clear()
	r.Dismiss()
	r.logger.Info("Reading order position set", "document", r.ref.String(), "page", selected.Page, "position", n)
	return nil
}

func (r *ReadingOrderAssigner) fail(msg string, err error) error {
	wrapped := apperrors.NewNetworkError(msg, err)
	r.logger.Error("Reading order request failed", err, "document", r.ref.String())
	if r.notifier != nil {
		r.notifier.Notify(wrapped)
	}
	return wrapped
}
