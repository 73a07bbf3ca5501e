// Package importer replays scripted annotation sessions against a backend.
// A script names documents and, for each, the label picks, drags, clicks
// and keys a reviewer would perform, in logical page units.
package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pdf-layout-annotator/internal/annotator"
	"pdf-layout-annotator/internal/domain"
)

// Script is the top-level YAML document.
type Script struct {
	Documents []DocumentScript `yaml:"documents"`
}

// DocumentScript is the replay of one document.
type DocumentScript struct {
	Task    string `yaml:"task"`
	Dataset string `yaml:"dataset"`
	Name    string `yaml:"name"`

	// Mode is "label" (default) or "reading_order".
	Mode     string  `yaml:"mode"`
	Freeform bool    `yaml:"freeform"`
	Render   bool    `yaml:"render"`
	Scale    float64 `yaml:"scale"`
	Finish   bool    `yaml:"finish"`
	Steps    []Step  `yaml:"steps"`
}

// Step is one reviewer action. Exactly one field is set.
type Step struct {
	Label    string  `yaml:"label,omitempty"`
	Draw     *Region `yaml:"draw,omitempty"`
	Select   *Point  `yaml:"select,omitempty"`
	Position string  `yaml:"position,omitempty"`
	Key      *Key    `yaml:"key,omitempty"`
	Delete   string  `yaml:"delete,omitempty"`
	Undo     bool    `yaml:"undo,omitempty"`
}

// Region is a drag rectangle on a 0-based page.
type Region struct {
	Page   int     `yaml:"page"`
	Left   float64 `yaml:"left"`
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
}

func (r Region) bounds() domain.Bounds {
	return domain.Bounds{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}

// Point is a shift-click location on a 0-based page.
type Point struct {
	Page int     `yaml:"page"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// Key is a key press.
type Key struct {
	Name string `yaml:"name"`
	Ctrl bool   `yaml:"ctrl"`
	Meta bool   `yaml:"meta"`
}

// LoadScript reads and validates a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks document references, modes and that every step names
// exactly one action.
func (s *Script) Validate() error {
	if len(s.Documents) == 0 {
		return &domain.ValidationError{Field: "documents", Message: "script has no documents"}
	}
	for i, doc := range s.Documents {
		if err := doc.Ref().Validate(); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
		if _, err := doc.mode(); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
		if doc.Scale < 0 {
			return fmt.Errorf("document %d: %w", i, &domain.ValidationError{Field: "scale", Message: "must not be negative"})
		}
		for j, step := range doc.Steps {
			if n := step.actions(); n != 1 {
				return fmt.Errorf("document %d step %d: %w", i, j, &domain.ValidationError{
					Field:   "step",
					Message: fmt.Sprintf("expected exactly one action, got %d", n),
				})
			}
		}
	}
	return nil
}

// Ref returns the document reference.
func (d DocumentScript) Ref() domain.DocumentRef {
	return domain.DocumentRef{Task: d.Task, Dataset: d.Dataset, Name: d.Name}
}

func (d DocumentScript) mode() (annotator.Mode, error) {
	switch d.Mode {
	case "", "label":
		return annotator.ModeLabel, nil
	case "reading_order":
		return annotator.ModeReadingOrder, nil
	}
	return annotator.ModeLabel, &domain.ValidationError{Field: "mode", Message: "unknown mode " + d.Mode}
}

func (d DocumentScript) scale() float64 {
	if d.Scale == 0 {
		return 1
	}
	return d.Scale
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Label != "",
		s.Draw != nil,
		s.Select != nil,
		s.Position != "",
		s.Key != nil,
		s.Delete != "",
		s.Undo,
	} {
		if set {
			n++
		}
	}
	return n
}
