package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File names inside the labeled data tree.
const (
	labelsFile        = "labels.json"
	annotationsFile   = "annotations.json"
	statusFile        = "status.txt"
	activeDatasetFile = "active_dataset.txt"
	pdfFile           = "document.pdf"
	tokensFile        = "etree.xml"
)

// FileLayout addresses the on-disk tree:
//
//	<labeled>/<task>/labels.json
//	<labeled>/<task>/active_dataset.txt
//	<labeled>/<task>/<dataset>/<name>/{annotations.json,labels.json,status.txt}
//	<pdfs>/<name>/{document.pdf,etree.xml}
//
// Writes are serialized through the layout.
type FileLayout struct {
	labeledRoot string
	pdfsRoot    string
	mu          sync.Mutex
}

func NewFileLayout(labeledRoot, pdfsRoot string) *FileLayout {
	return &FileLayout{labeledRoot: labeledRoot, pdfsRoot: pdfsRoot}
}

func (l *FileLayout) taskDir(task string) string {
	return filepath.Join(l.labeledRoot, task)
}

func (l *FileLayout) datasetDir(task, dataset string) string {
	return filepath.Join(l.labeledRoot, task, dataset)
}

func (l *FileLayout) documentDir(task, dataset, name string) string {
	return filepath.Join(l.labeledRoot, task, dataset, name)
}

func (l *FileLayout) sourceFile(name, file string) string {
	return filepath.Join(l.pdfsRoot, name, file)
}

// isValidFolder reports whether path is a non-empty directory.
func isValidFolder(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// subdirs lists the directory names under path in lexical order, keeping
// only the non-empty ones.
func subdirs(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && isValidFolder(filepath.Join(path, e.Name())) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
