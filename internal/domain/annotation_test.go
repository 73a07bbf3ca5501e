package domain

import (
	"encoding/json"
	"testing"
	"unicode/utf8"
)

var testLabel = Label{Name: "Title", Color: "#ff0000"}

func TestAnnotation_UpdateKeepsIDAndTokens(t *testing.T) {
	tokens := []TokenID{{PageIndex: 0, TokenIndex: 3}}
	a := NewAnnotation(Bounds{Left: 1, Top: 1, Right: 5, Bottom: 5}, 0, testLabel, tokens)

	relabel := Label{Name: "Text", Color: "#00ff00"}
	b := a.Update(AnnotationDelta{Label: &relabel})

	if b.ID != a.ID {
		t.Fatalf("expected id %s to be preserved, got %s", a.ID, b.ID)
	}
	if b.Label.Name != "Text" {
		t.Fatalf("expected label Text, got %s", b.Label.Name)
	}
	if a.Label.Name != "Title" {
		t.Fatalf("expected original label untouched, got %s", a.Label.Name)
	}
	if len(b.Tokens) != 1 || b.Tokens[0] != tokens[0] {
		t.Fatalf("expected tokens preserved, got %+v", b.Tokens)
	}

	b.Tokens[0].TokenIndex = 99
	if a.Tokens[0].TokenIndex != 3 {
		t.Fatalf("expected update to copy the token slice")
	}
}

func TestAnnotation_States(t *testing.T) {
	freeform := NewAnnotation(Bounds{Right: 1, Bottom: 1}, 0, testLabel, nil)
	if freeform.State() != StateFreeform {
		t.Fatalf("expected freeform state for nil tokens")
	}

	resolved := freeform.Update(AnnotationDelta{Tokens: &[]TokenID{}})
	if resolved.State() != StateResolved {
		t.Fatalf("expected resolved state after attaching tokens")
	}
	if resolved.Tokens == nil {
		t.Fatalf("expected empty, non-nil tokens")
	}
}

func TestAnnotation_JSONKeepsFreeformDistinction(t *testing.T) {
	freeform := NewAnnotation(Bounds{Right: 1, Bottom: 1}, 0, testLabel, nil)
	empty := NewAnnotation(Bounds{Right: 1, Bottom: 1}, 0, testLabel, []TokenID{})

	for _, a := range []Annotation{freeform, empty} {
		data, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var back Annotation
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if back.State() != a.State() {
			t.Fatalf("expected state %v after round trip, got %v (%s)", a.State(), back.State(), data)
		}
	}
}

func TestNewTokenPreview(t *testing.T) {
	p := NewTokenPreview(Token{X: 10, Y: 20, Width: 5, Height: 8, Text: "hi"}, 2, 7)

	if p.Kind != KindTokenPreview || p.Editable() {
		t.Fatalf("expected a non-editable token preview")
	}
	if !p.HideLabel {
		t.Fatalf("expected preview to hide its label")
	}
	if p.Color() != PreviewColor {
		t.Fatalf("expected preview color %s, got %s", PreviewColor, p.Color())
	}
	want := Bounds{Left: 10, Top: 20, Right: 15, Bottom: 28}
	if !p.Bounds.Equal(want) {
		t.Fatalf("expected bounds %+v, got %+v", want, p.Bounds)
	}
	if p.Page != 2 {
		t.Fatalf("expected page 2, got %d", p.Page)
	}
}

func TestPreviewOf(t *testing.T) {
	a := NewAnnotation(Bounds{Right: 10, Bottom: 10}, 1, testLabel, []TokenID{{PageIndex: 1}})
	p := PreviewOf(a)
	if p.Kind != KindTokenPreview || !p.HideLabel {
		t.Fatalf("expected preview overlay, got %+v", p)
	}
	if p.ID == a.ID {
		t.Fatalf("expected preview to use a distinct id")
	}
}

func TestAnnotation_Validate(t *testing.T) {
	ok := NewAnnotation(Bounds{Left: 1, Top: 1, Right: 2, Bottom: 2}, 0, testLabel, nil)
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid annotation, got %v", err)
	}

	inverted := ok
	inverted.Bounds = Bounds{Left: 5, Top: 1, Right: 2, Bottom: 2}
	if err := inverted.Validate(); err == nil {
		t.Fatalf("expected inverted bounds to be rejected")
	}

	noID := ok
	noID.ID = ""
	if err := noID.Validate(); err == nil {
		t.Fatalf("expected missing id to be rejected")
	}
}

func TestLabel_Validate(t *testing.T) {
	if err := (Label{Name: "Title", Color: "e6194b"}).Validate(); err != nil {
		t.Fatalf("expected bare hex color to be valid, got %v", err)
	}
	if err := (Label{Name: "Title", Color: "#e619"}).Validate(); err == nil {
		t.Fatalf("expected short color to be rejected")
	}
	if !(Label{Name: "a", Color: "#000000"}).Equal(Label{Name: "a", Color: "#ffffff"}) {
		t.Fatalf("expected labels with the same name to be equal")
	}
	if err := ValidateLabels([]Label{testLabel, testLabel}); err == nil {
		t.Fatalf("expected duplicate labels to be rejected")
	}
}

func TestTaskNames(t *testing.T) {
	if got := TaskFolder("Token Type"); got != "token_type" {
		t.Fatalf("expected token_type, got %s", got)
	}
	if got := TaskFolder(""); got != DefaultTask {
		t.Fatalf("expected default task, got %s", got)
	}
	if got := TaskTitle("reading_order"); got != "Reading Order" {
		t.Fatalf("expected Reading Order, got %s", got)
	}
}

func TestTaskTitle_MultiByteFirstRune(t *testing.T) {
	got := TaskTitle("élan_ñame")
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid UTF-8, got %q", got)
	}
	if got != "Élan Ñame" {
		t.Fatalf("expected Élan Ñame, got %s", got)
	}
}
