package annotator

import (
	"context"
	"errors"
	"testing"
	"time"

	"pdf-layout-annotator/internal/domain"
	apperrors "pdf-layout-annotator/pkg/errors"
)

type controllerFixture struct {
	ctrl      *PageController
	store     *memoryStore
	ui        *mockInteraction
	selection *Selection
	backend   *mockBackend
	assigner  *ReadingOrderAssigner
	errs      []error
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		store:     &memoryStore{set: domain.NewPdfAnnotations(nil)},
		ui:        &mockInteraction{label: &titleLbl},
		selection: NewSelection(),
		backend:   &mockBackend{},
	}
	f.assigner = NewReadingOrderAssigner(testRef, f.backend, f.store, f.selection, nil, mockLogger{})
	f.ctrl = NewPageController(PageControllerConfig{
		Page:        0,
		Width:       600,
		Height:      800,
		Tokens:      NewTokenIndex(testPages),
		Store:       f.store,
		Interaction: f.ui,
		Selection:   f.selection,
		Assigner:    f.assigner,
		OnError:     func(err error) { f.errs = append(f.errs, err) },
		Logger:      mockLogger{},
	})
	f.ctrl.Resize(context.Background(), domain.Bounds{Left: 0, Top: 0, Right: 600, Bottom: 800}, nil)
	return f
}

func (f *controllerFixture) drag(t *testing.T, x1, y1, x2, y2 float64) {
	t.Helper()
	if err := f.ctrl.PointerDown(x1, y1); err != nil {
		t.Fatalf("pointer down failed: %v", err)
	}
	f.ctrl.PointerMove(x2, y2)
	if err := f.ctrl.PointerUp(context.Background()); err != nil {
		t.Fatalf("pointer up failed: %v", err)
	}
}

func TestPageController_LabelDragCreatesResolvedAnnotation(t *testing.T) {
	f := newControllerFixture(t)
	f.drag(t, 105, 25, 5, 5)

	set := f.store.Current()
	if set.Len() != 1 {
		t.Fatalf("expected 1 annotation, got %d", set.Len())
	}
	a := set.Annotations[0]
	if a.Label.Name != "Title" || a.Page != 0 {
		t.Fatalf("unexpected annotation %+v", a)
	}
	if len(a.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %v", a.Tokens)
	}
	want := domain.Bounds{Left: 7, Top: 7, Right: 103, Bottom: 23}
	if !a.Bounds.Equal(want) {
		t.Fatalf("expected bounds %+v, got %+v", want, a.Bounds)
	}
	if f.ctrl.State() != Idle {
		t.Fatalf("expected idle after drag, got %s", f.ctrl.State())
	}
}

func TestPageController_ScaledPlacement(t *testing.T) {
	f := newControllerFixture(t)
	f.ctrl.Resize(context.Background(), domain.Bounds{Left: 100, Top: 50, Right: 1300, Bottom: 1650}, nil)

	f.drag(t, 110, 60, 300, 90)

	set := f.store.Current()
	if set.Len() != 1 || len(set.Annotations[0].Tokens) != 2 {
		t.Fatalf("expected one annotation over both tokens, got %+v", set.Annotations)
	}
	if got := set.Annotations[0].Bounds; got.Right > 600 {
		t.Fatalf("expected logical bounds, got %+v", got)
	}
}

func TestPageController_NoActiveLabelDiscards(t *testing.T) {
	f := newControllerFixture(t)
	f.ui.label = nil
	f.drag(t, 5, 5, 105, 25)

	if f.store.Current().Len() != 0 {
		t.Fatalf("expected drag to be discarded")
	}
	if len(f.errs) != 0 {
		t.Fatalf("expected no error for missing label, got %v", f.errs)
	}
}

func TestPageController_EmptyRegionKeepsResolvedAnnotation(t *testing.T) {
	f := newControllerFixture(t)
	f.drag(t, 300, 300, 400, 420)

	set := f.store.Current()
	if set.Len() != 1 {
		t.Fatalf("expected 1 annotation, got %d", set.Len())
	}
	a := set.Annotations[0]
	if a.State() != domain.StateResolved || len(a.Tokens) != 0 {
		t.Fatalf("expected resolved annotation without tokens, got %+v", a.Tokens)
	}
	if !a.Bounds.Equal(domain.Bounds{Left: 300, Top: 300, Right: 400, Bottom: 420}) {
		t.Fatalf("expected drag bounds, got %+v", a.Bounds)
	}
}

func TestPageController_FreeformOption(t *testing.T) {
	f := newControllerFixture(t)
	f.ui.options.Freeform = true
	f.drag(t, 5, 5, 105, 25)

	a := f.store.Current().Annotations[0]
	if a.State() != domain.StateFreeform {
		t.Fatalf("expected freeform annotation, got tokens %v", a.Tokens)
	}
	if !a.Bounds.Equal(domain.Bounds{Left: 5, Top: 5, Right: 105, Bottom: 25}) {
		t.Fatalf("expected raw drag bounds, got %+v", a.Bounds)
	}
}

func TestPageController_OverlappingDragEvicts(t *testing.T) {
	f := newControllerFixture(t)
	f.drag(t, 5, 5, 55, 25)
	first := f.store.Current().Annotations[0]

	f.drag(t, 5, 5, 105, 25)
	set := f.store.Current()
	if set.Len() != 1 {
		t.Fatalf("expected eviction, got %d annotations", set.Len())
	}
	if set.Annotations[0].ID == first.ID {
		t.Fatalf("expected the newer annotation to win")
	}
}

func TestPageController_PointerDownWithoutPlacement(t *testing.T) {
	var reported error
	ctrl := NewPageController(PageControllerConfig{
		Page:        0,
		Width:       600,
		Interaction: &mockInteraction{label: &titleLbl},
		Store:       &memoryStore{},
		OnError:     func(err error) { reported = err },
	})

	err := ctrl.PointerDown(1, 1)
	if !apperrors.IsType(err, apperrors.ErrorTypeGeometry) {
		t.Fatalf("expected geometry error, got %v", err)
	}
	if reported == nil {
		t.Fatalf("expected error to reach the page error handler")
	}
	if ctrl.State() != Idle {
		t.Fatalf("expected idle state, got %s", ctrl.State())
	}
}

func TestPageController_Candidate(t *testing.T) {
	f := newControllerFixture(t)
	if _, _, ok := f.ctrl.Candidate(); ok {
		t.Fatalf("expected no candidate while idle")
	}

	_ = f.ctrl.PointerDown(105, 25)
	f.ctrl.PointerMove(55, 5)
	drag, tokens, ok := f.ctrl.Candidate()
	if !ok {
		t.Fatalf("expected candidate while dragging")
	}
	if drag.Right != 55 || drag.Left != 105 {
		t.Fatalf("expected raw drag rectangle, got %+v", drag)
	}
	if len(tokens) != 1 || tokens[0].TokenIndex != 1 {
		t.Fatalf("expected second token under candidate, got %v", tokens)
	}
	if f.store.Current().Len() != 0 {
		t.Fatalf("expected no annotation before pointer up")
	}
}

func TestPageController_ReadingOrderSingleTokenOpensPicker(t *testing.T) {
	f := newControllerFixture(t)
	f.ui.mode = ModeReadingOrder
	f.store.set = domain.NewPdfAnnotations([]domain.Annotation{
		domain.NewAnnotation(domain.Bounds{Left: 10, Top: 200, Right: 50, Bottom: 210}, 0, domain.Label{Name: "2"}, []domain.TokenID{{TokenIndex: 2}}),
		domain.NewAnnotation(domain.Bounds{Left: 60, Top: 10, Right: 100, Bottom: 20}, 0, domain.Label{Name: "1"}, []domain.TokenID{{TokenIndex: 1}}),
	})

	f.drag(t, 5, 5, 45, 25)

	picker := f.assigner.Picker()
	if picker == nil {
		t.Fatalf("expected position picker to open")
	}
	if got := picker.Positions(); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("expected positions [1 2], got %v", got)
	}
	if f.selection.Len() != 1 {
		t.Fatalf("expected candidate to be selected")
	}
	if f.store.Current().Len() != 2 {
		t.Fatalf("expected the set to be untouched until commit")
	}
	if len(f.backend.regions) != 0 || len(f.backend.positioned) != 0 {
		t.Fatalf("expected no backend calls before commit")
	}
}

func TestPageController_ReadingOrderMultiTokenInstallsServerSet(t *testing.T) {
	f := newControllerFixture(t)
	f.ui.mode = ModeReadingOrder
	ordered := domain.NewPdfAnnotations([]domain.Annotation{
		domain.NewAnnotation(domain.Bounds{Left: 10, Top: 10, Right: 50, Bottom: 20}, 0, domain.Label{Name: "1", Color: domain.ReadingOrderColor}, []domain.TokenID{{TokenIndex: 0}}),
		domain.NewAnnotation(domain.Bounds{Left: 60, Top: 10, Right: 100, Bottom: 20}, 0, domain.Label{Name: "2", Color: domain.ReadingOrderColor}, []domain.TokenID{{TokenIndex: 1}}),
	})
	f.backend.reorderResult = ordered

	f.drag(t, 5, 5, 105, 25)

	if len(f.backend.regions) != 1 || len(f.backend.regions[0].Tokens) != 2 {
		t.Fatalf("expected one region with 2 tokens submitted, got %+v", f.backend.regions)
	}
	if f.store.installed != 1 || f.store.Current().Len() != 2 {
		t.Fatalf("expected server set to be installed, got %+v", f.store.Current())
	}
	if f.assigner.Picker() != nil {
		t.Fatalf("expected no picker for multi-token region")
	}
}

func TestPageController_ReadingOrderEmptyRegionDiscards(t *testing.T) {
	f := newControllerFixture(t)
	f.ui.mode = ModeReadingOrder
	f.drag(t, 300, 300, 400, 400)

	if len(f.backend.regions) != 0 || f.assigner.Picker() != nil {
		t.Fatalf("expected empty reading order drag to be discarded")
	}
}

func TestPageController_ShiftClickTogglesSelection(t *testing.T) {
	f := newControllerFixture(t)
	f.drag(t, 5, 5, 105, 25)
	before := f.store.Current()

	a, ok := f.ctrl.ShiftClick(20, 15)
	if !ok || !f.selection.Contains(a.ID) {
		t.Fatalf("expected annotation to be selected")
	}
	if _, ok := f.ctrl.ShiftClick(20, 15); !ok || f.selection.Contains(a.ID) {
		t.Fatalf("expected second shift-click to deselect")
	}
	if _, ok := f.ctrl.ShiftClick(500, 500); ok {
		t.Fatalf("expected click on empty space to select nothing")
	}
	after := f.store.Current()
	if after.Len() != before.Len() || after.UnsavedChanges != before.UnsavedChanges {
		t.Fatalf("expected selection to leave the set alone")
	}
}

func TestPageController_OverlaysGatedByViewport(t *testing.T) {
	f := newControllerFixture(t)
	f.ui.options.ShowTokens = true
	f.drag(t, 5, 5, 105, 25)

	if got := f.ctrl.Overlays(domain.Bounds{Left: 0, Top: 900, Right: 600, Bottom: 1500}); got != nil {
		t.Fatalf("expected no overlays outside viewport, got %d", len(got))
	}
	if f.store.Current().Len() != 1 {
		t.Fatalf("expected gating to leave the set alone")
	}

	got := f.ctrl.Overlays(domain.Bounds{Left: 0, Top: 0, Right: 600, Bottom: 400})
	if len(got) != 4 {
		t.Fatalf("expected 3 token previews and 1 annotation, got %d", len(got))
	}
	for _, o := range got[:3] {
		if o.Annotation.Kind != domain.KindTokenPreview || o.ShowLabel || o.Color != domain.PreviewColor {
			t.Fatalf("expected token preview overlay, got %+v", o)
		}
	}
	if last := got[3]; !last.ShowLabel || last.Color != titleLbl.Color || last.BorderWidth != 1 {
		t.Fatalf("unexpected annotation overlay %+v", last)
	}

	f.ui.options.HideLabels = true
	f.ui.options.ShowTokens = false
	got = f.ctrl.Overlays(domain.Bounds{Left: 0, Top: 0, Right: 600, Bottom: 400})
	if len(got) != 1 || got[0].ShowLabel {
		t.Fatalf("expected one overlay with hidden label, got %+v", got)
	}
}

func TestPageRenderer_RescaleCancelsAndSwallows(t *testing.T) {
	first := newMockTask(nil)
	second := newMockTask(nil)
	page := &mockPage{width: 600, height: 800, tasks: []*mockTask{first, second}}

	var reported []error
	r := NewPageRenderer(page, func(err error) { reported = append(reported, err) }, mockLogger{})

	done1 := r.Render(context.Background(), 1, nil)
	done2 := r.Render(context.Background(), 2, nil)

	if !first.wasCancelled() {
		t.Fatalf("expected first render to be cancelled")
	}
	if err := waitRender(t, done1); err != nil {
		t.Fatalf("expected cancellation to be swallowed, got %v", err)
	}

	second.release()
	if err := waitRender(t, done2); err != nil {
		t.Fatalf("expected second render to succeed, got %v", err)
	}
	if len(reported) != 0 {
		t.Fatalf("expected no reported errors, got %v", reported)
	}
	if r.Scale() != 2 {
		t.Fatalf("expected scale 2, got %v", r.Scale())
	}
}

func TestPageRenderer_FailureReported(t *testing.T) {
	task := newMockTask(errors.New("corrupt page"))
	page := &mockPage{tasks: []*mockTask{task}}

	reported := make(chan error, 1)
	r := NewPageRenderer(page, func(err error) { reported <- err }, mockLogger{})

	done := r.Render(context.Background(), 1, nil)
	task.release()

	err := waitRender(t, done)
	if !apperrors.IsType(err, apperrors.ErrorTypeRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	select {
	case got := <-reported:
		if !apperrors.IsType(got, apperrors.ErrorTypeRender) {
			t.Fatalf("expected render error reported, got %v", got)
		}
	default:
		t.Fatalf("expected error handler to be called")
	}
}

func waitRender(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("render did not finish")
		return nil
	}
}
