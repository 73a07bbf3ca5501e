package domain

import (
	"slices"
	"sort"
)

// PdfAnnotations is the ordered annotation set of one document. Every
// operation returns a new value; the receiver and its backing array are
// never written to, so older references stay valid.
type PdfAnnotations struct {
	Annotations    []Annotation `json:"annotations"`
	UnsavedChanges bool         `json:"-"`
}

// NewPdfAnnotations wraps annotations (copied) as a clean, saved set.
func NewPdfAnnotations(annotations []Annotation) PdfAnnotations {
	out := make([]Annotation, 0, len(annotations))
	for _, a := range annotations {
		a.Kind = KindAnnotation
		out = append(out, a)
	}
	return PdfAnnotations{Annotations: out}
}

// Len returns the number of annotations.
func (p PdfAnnotations) Len() int {
	return len(p.Annotations)
}

// WithNewAnnotation drops every annotation on the same page whose bounds
// overlap a, then appends a. A page region is covered by at most one
// annotation at a time.
func (p PdfAnnotations) WithNewAnnotation(a Annotation) PdfAnnotations {
	kept := make([]Annotation, 0, len(p.Annotations)+1)
	for _, existing := range p.Annotations {
		if existing.Page == a.Page && existing.Bounds.Overlaps(a.Bounds) {
			continue
		}
		kept = append(kept, existing)
	}
	kept = append(kept, a)
	return PdfAnnotations{Annotations: kept, UnsavedChanges: true}
}

// DeleteAnnotation removes the annotation with the given id. Deleting an
// absent id still returns a changed set.
func (p PdfAnnotations) DeleteAnnotation(id string) PdfAnnotations {
	kept := make([]Annotation, 0, len(p.Annotations))
	for _, existing := range p.Annotations {
		if existing.ID != id {
			kept = append(kept, existing)
		}
	}
	return PdfAnnotations{Annotations: kept, UnsavedChanges: true}
}

// Undo removes the most recently appended annotation. An empty set is
// returned unchanged.
func (p PdfAnnotations) Undo() PdfAnnotations {
	n := len(p.Annotations)
	if n == 0 {
		return p
	}
	return PdfAnnotations{Annotations: slices.Clone(p.Annotations[:n-1]), UnsavedChanges: true}
}

// MarkSaved returns the same annotations flagged as persisted.
func (p PdfAnnotations) MarkSaved() PdfAnnotations {
	return PdfAnnotations{Annotations: p.Annotations, UnsavedChanges: false}
}

// Find returns the annotation with the given id.
func (p PdfAnnotations) Find(id string) (Annotation, bool) {
	for _, a := range p.Annotations {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

// ForPage returns the annotations of one page in insertion order.
func (p PdfAnnotations) ForPage(page int) []Annotation {
	out := make([]Annotation, 0)
	for _, a := range p.Annotations {
		if a.Page == page {
			out = append(out, a)
		}
	}
	return out
}

// SortedForDisplay orders annotations by page, then top edge. Annotations
// that carry no tokens (freeform, or resolved to nothing) go after the rest.
func (p PdfAnnotations) SortedForDisplay() []Annotation {
	out := slices.Clone(p.Annotations)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ar, br := len(a.Tokens) > 0, len(b.Tokens) > 0
		if ar != br {
			return ar
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.Bounds.Top < b.Bounds.Top
	})
	return out
}
