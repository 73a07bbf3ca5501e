package domain

import (
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
)

// Kind distinguishes editable annotations from token preview overlays.
type Kind int

const (
	// KindAnnotation is a labeled region owned by an annotation set.
	KindAnnotation Kind = iota
	// KindTokenPreview visualizes a single token. Previews are never
	// persisted, never editable, and always hide their label.
	KindTokenPreview
)

func (k Kind) String() string {
	switch k {
	case KindTokenPreview:
		return "token_preview"
	default:
		return "annotation"
	}
}

// State is the lifecycle position of an annotation.
type State int

const (
	// StateFreeform annotations come from a raw drag and have no token set.
	StateFreeform State = iota
	// StateResolved annotations carry a token set, possibly empty.
	StateResolved
)

// PreviewColor is the outline color of token preview overlays.
const PreviewColor = "#eac24c"

// Annotation is a labeled region of one page. Values are treated as
// immutable: derive changed copies with Update.
//
// Tokens == nil means the region has not been resolved to text; a non-nil
// empty slice means it was resolved and covers no tokens.
type Annotation struct {
	ID        string    `json:"id"`
	Bounds    Bounds    `json:"bounds"`
	Page      int       `json:"page"`
	Label     Label     `json:"label"`
	Tokens    []TokenID `json:"tokens"`
	HideLabel bool      `json:"hideLabel,omitempty"`
	Kind      Kind      `json:"-"`
}

// AnnotationDelta lists the facets Update may change. Nil fields are kept.
type AnnotationDelta struct {
	Label  *Label
	Tokens *[]TokenID
}

// NewAnnotation creates an annotation with a fresh id. A nil tokens slice
// creates a freeform annotation.
func NewAnnotation(bounds Bounds, page int, label Label, tokens []TokenID) Annotation {
	return Annotation{
		ID:     uuid.NewString(),
		Bounds: bounds,
		Page:   page,
		Label:  label,
		Tokens: slices.Clone(tokens),
	}
}

// NewTokenPreview builds the overlay for token index on page.
func NewTokenPreview(token Token, page, index int) Annotation {
	return Annotation{
		ID:        fmt.Sprintf("preview-%d-%d", page, index),
		Bounds:    token.Bounds(),
		Page:      page,
		Tokens:    nil,
		HideLabel: true,
		Kind:      KindTokenPreview,
	}
}

// PreviewOf returns a preview overlay covering the same region as a.
func PreviewOf(a Annotation) Annotation {
	return Annotation{
		ID:        "preview-" + a.ID,
		Bounds:    a.Bounds,
		Page:      a.Page,
		Tokens:    slices.Clone(a.Tokens),
		HideLabel: true,
		Kind:      KindTokenPreview,
	}
}

// State reports whether the annotation has been resolved to tokens.
func (a Annotation) State() State {
	if a.Tokens == nil {
		return StateFreeform
	}
	return StateResolved
}

// Editable is false for preview overlays.
func (a Annotation) Editable() bool {
	return a.Kind == KindAnnotation
}

// Color is the outline color used when drawing the annotation.
func (a Annotation) Color() string {
	if a.Kind == KindTokenPreview {
		return PreviewColor
	}
	return a.Label.Color
}

// Update returns a copy with delta applied. The id, page, bounds and kind are
// preserved; slices are never shared with the receiver.
func (a Annotation) Update(delta AnnotationDelta) Annotation {
	out := a
	out.Tokens = slices.Clone(a.Tokens)
	if delta.Label != nil {
		out.Label = *delta.Label
	}
	if delta.Tokens != nil {
		out.Tokens = slices.Clone(*delta.Tokens)
		if out.Tokens == nil {
			out.Tokens = []TokenID{}
		}
	}
	return out
}

// Contains reports whether the token rectangle overlaps the annotation.
func (a Annotation) Contains(t Token) bool {
	return a.Bounds.Overlaps(t.Bounds())
}

// Validate checks the fields the backend relies on.
func (a Annotation) Validate() error {
	if a.ID == "" {
		return &ValidationError{Field: "id", Message: "annotation id is required"}
	}
	if a.Page < 0 {
		return &ValidationError{Field: "page", Message: "page must be >= 0"}
	}
	for _, v := range []float64{a.Bounds.Left, a.Bounds.Top, a.Bounds.Right, a.Bounds.Bottom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: "bounds", Message: "bounds must be finite"}
		}
	}
	if a.Bounds.Right < a.Bounds.Left || a.Bounds.Bottom < a.Bounds.Top {
		return &ValidationError{Field: "bounds", Message: "bounds must be normalized"}
	}
	return nil
}
