package annotator

import "pdf-layout-annotator/internal/domain"

// Transform maps logical page units to screen pixels for one page: scale
// first, then shift by the page placement offset.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// NewTransform derives the transform for a page placed at placement whose
// intrinsic width is pageWidth.
func NewTransform(placement domain.Bounds, pageWidth float64) Transform {
	scale := 1.0
	if pageWidth > 0 {
		scale = placement.Normalize().Width() / pageWidth
	}
	return Transform{Scale: scale, OffsetX: placement.Left, OffsetY: placement.Top}
}

// ToScreen converts logical bounds to screen bounds.
func (t Transform) ToScreen(b domain.Bounds) domain.Bounds {
	return b.Scale(t.Scale).Translate(t.OffsetX, t.OffsetY)
}

// ToLogical converts screen bounds back to logical page units.
func (t Transform) ToLogical(b domain.Bounds) domain.Bounds {
	if t.Scale == 0 {
		return b.Translate(-t.OffsetX, -t.OffsetY)
	}
	return b.Translate(-t.OffsetX, -t.OffsetY).Scale(1 / t.Scale)
}
