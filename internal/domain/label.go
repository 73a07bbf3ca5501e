package domain

import (
	"regexp"
	"strings"
)

// Label is a user-facing tag. Two labels are the same label when their names
// match; color and metadata are presentation.
type Label struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Metadata string `json:"metadata"`
}

var hexColor = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// DefaultLabels is the palette used when a task defines none.
var DefaultLabels = []Label{{Name: "No labels", Color: "#e6194b"}}

// ReadingOrderColor is the color the backend assigns to position labels.
const ReadingOrderColor = "#E8D3A2"

// Equal compares labels by name.
func (l Label) Equal(o Label) bool {
	return l.Name == o.Name
}

// Validate checks that the label has a name and a 6-hex-digit color.
func (l Label) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return &ValidationError{Field: "name", Message: "label name is required"}
	}
	if !hexColor.MatchString(l.Color) {
		return &ValidationError{Field: "color", Message: "color must be 6 hex digits"}
	}
	return nil
}

// ValidateLabels validates every label and rejects duplicate names.
func ValidateLabels(labels []Label) error {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if err := l.Validate(); err != nil {
			return err
		}
		if seen[l.Name] {
			return &ValidationError{Field: "name", Message: "duplicate label " + l.Name}
		}
		seen[l.Name] = true
	}
	return nil
}
