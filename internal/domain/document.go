package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DocumentRef addresses one document inside a task's dataset.
type DocumentRef struct {
	Task    string `json:"task"`
	Dataset string `json:"dataset"`
	Name    string `json:"name"`
}

// Validate rejects empty or path-like components.
func (r DocumentRef) Validate() error {
	for field, v := range map[string]string{"task": r.Task, "dataset": r.Dataset, "name": r.Name} {
		if err := validateSegment(field, v); err != nil {
			return err
		}
	}
	return nil
}

func (r DocumentRef) String() string {
	return r.Task + "/" + r.Dataset + "/" + r.Name
}

func validateSegment(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	if strings.ContainsAny(v, `/\`) || v == "." || v == ".." {
		return &ValidationError{Field: field, Message: field + " must not contain path separators"}
	}
	return nil
}

// ValidateName checks a single task, dataset or document name.
func ValidateName(field, v string) error {
	return validateSegment(field, v)
}

// DocumentStatus is one row of a dataset's document list.
type DocumentStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Finished bool   `json:"finished"`
	Junk     bool   `json:"junk"`
}

// StatusFlag names a document triage flag.
type StatusFlag string

const (
	StatusFinished StatusFlag = "finished"
	StatusJunk     StatusFlag = "junk"
)

// ParseStatusFlag accepts "finished" or "junk".
func ParseStatusFlag(s string) (StatusFlag, error) {
	switch StatusFlag(strings.ToLower(s)) {
	case StatusFinished:
		return StatusFinished, nil
	case StatusJunk:
		return StatusJunk, nil
	}
	return "", &ValidationError{Field: "status", Message: "unknown status " + s}
}

// ActiveSelection is the session-scoped task and dataset.
type ActiveSelection struct {
	Task    string `json:"task"`
	Dataset string `json:"dataset"`
}

// DefaultTask is used when no task is named.
const DefaultTask = "token_type"

// TaskFolder converts a display task name ("Token Type") to its storage key
// ("token_type").
func TaskFolder(task string) string {
	task = strings.TrimSpace(task)
	if task == "" {
		return DefaultTask
	}
	return strings.ToLower(strings.ReplaceAll(task, " ", "_"))
}

// TaskTitle converts a storage key ("token_type") to its display name
// ("Token Type").
func TaskTitle(folder string) string {
	parts := strings.Split(folder, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ")
}
