package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"pdf-layout-annotator/internal/domain"
)

// readingOrderTask is the task whose token-type labels carry positions
// instead of palette indexes.
const readingOrderTask = "reading_order"

// tokenTypeLabels is the training export written next to annotations.json.
type tokenTypeLabels struct {
	Pages []tokenTypePage `json:"pages"`
}

type tokenTypePage struct {
	Number int              `json:"number"`
	Labels []tokenTypeLabel `json:"labels"`
}

type tokenTypeLabel struct {
	Top       int `json:"top"`
	Left      int `json:"left"`
	Width     int `json:"width"`
	Height    int `json:"height"`
	LabelType int `json:"label_type"`
}

// FileAnnotationRepository implements domain.AnnotationRepository over a
// FileLayout. annotations.json holds the set; labels.json is regenerated
// on every save and read only when annotations.json is missing.
type FileAnnotationRepository struct {
	layout *FileLayout
	labels domain.LabelRepository
	logger domain.Logger
}

func NewFileAnnotationRepository(layout *FileLayout, labels domain.LabelRepository, logger domain.Logger) *FileAnnotationRepository {
	return &FileAnnotationRepository{
		layout: layout,
		labels: labels,
		logger: logger,
	}
}

func (r *FileAnnotationRepository) Load(ctx context.Context, ref domain.DocumentRef) (domain.PdfAnnotations, error) {
	dir := r.layout.documentDir(ref.Task, ref.Dataset, ref.Name)
	if !isDir(dir) {
		return domain.PdfAnnotations{}, domain.ErrDocumentNotFound
	}

	data, err := os.ReadFile(filepath.Join(dir, annotationsFile))
	if err == nil {
		var set domain.PdfAnnotations
		if err := json.Unmarshal(data, &set); err != nil {
			return domain.PdfAnnotations{}, fmt.Errorf("decode annotations of %s: %w", ref, err)
		}
		return domain.NewPdfAnnotations(set.Annotations), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return domain.PdfAnnotations{}, fmt.Errorf("read annotations: %w", err)
	}

	data, err = os.ReadFile(filepath.Join(dir, labelsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewPdfAnnotations(nil), nil
	}
	if err != nil {
		return domain.PdfAnnotations{}, fmt.Errorf("read token type labels: %w", err)
	}

	var exported tokenTypeLabels
	if err := json.Unmarshal(data, &exported); err != nil {
		return domain.PdfAnnotations{}, fmt.Errorf("decode token type labels of %s: %w", ref, err)
	}
	palette, err := r.palette(ctx, ref.Task)
	if err != nil {
		return domain.PdfAnnotations{}, err
	}
	r.logger.Debug("Imported token type labels", "document", ref.String())
	return domain.NewPdfAnnotations(fromTokenTypeLabels(exported, palette, ref.Task == readingOrderTask)), nil
}

func (r *FileAnnotationRepository) Save(ctx context.Context, ref domain.DocumentRef, annotations domain.PdfAnnotations) error {
	if !isDir(r.layout.datasetDir(ref.Task, ref.Dataset)) {
		return domain.ErrDatasetNotFound
	}
	dir := r.layout.documentDir(ref.Task, ref.Dataset, ref.Name)

	palette, err := r.palette(ctx, ref.Task)
	if err != nil {
		return err
	}
	set, err := json.MarshalIndent(annotations, "", "  ")
	if err != nil {
		return err
	}
	exported, err := json.MarshalIndent(toTokenTypeLabels(annotations, palette, ref.Task == readingOrderTask), "", "    ")
	if err != nil {
		return err
	}

	r.layout.mu.Lock()
	defer r.layout.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document folder: %w", err)
	}
	if err := writeFile(filepath.Join(dir, annotationsFile), set); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, labelsFile), exported)
}

func (r *FileAnnotationRepository) palette(ctx context.Context, task string) ([]domain.Label, error) {
	labels, err := r.labels.GetLabels(ctx, task)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return domain.DefaultLabels, nil
	}
	return labels, nil
}

func toTokenTypeLabels(set domain.PdfAnnotations, palette []domain.Label, readingOrder bool) tokenTypeLabels {
	byPage := make(map[int][]tokenTypeLabel)
	for _, a := range set.Annotations {
		b := a.Bounds.Normalize()
		byPage[a.Page] = append(byPage[a.Page], tokenTypeLabel{
			Top:       int(math.RoundToEven(b.Top)),
			Left:      int(math.RoundToEven(b.Left)),
			Width:     int(math.RoundToEven(b.Width())),
			Height:    int(math.RoundToEven(b.Height())),
			LabelType: labelType(a.Label, palette, readingOrder),
		})
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	out := tokenTypeLabels{Pages: make([]tokenTypePage, 0, len(pages))}
	for _, p := range pages {
		labels := byPage[p]
		sort.SliceStable(labels, func(i, j int) bool {
			if labels[i].Top != labels[j].Top {
				return labels[i].Top < labels[j].Top
			}
			return labels[i].Left < labels[j].Left
		})
		out.Pages = append(out.Pages, tokenTypePage{Number: p + 1, Labels: labels})
	}
	return out
}

// labelType is the palette index of label, or its position for reading
// order. Unknown labels map to 0.
func labelType(label domain.Label, palette []domain.Label, readingOrder bool) int {
	if readingOrder {
		n, err := strconv.Atoi(label.Name)
		if err != nil {
			return 0
		}
		return n
	}
	for i, l := range palette {
		if l.Equal(label) {
			return i
		}
	}
	return 0
}

func fromTokenTypeLabels(exported tokenTypeLabels, palette []domain.Label, readingOrder bool) []domain.Annotation {
	out := make([]domain.Annotation, 0)
	for _, page := range exported.Pages {
		for _, l := range page.Labels {
			label := palette[0]
			switch {
			case readingOrder:
				label = domain.Label{Name: strconv.Itoa(l.LabelType), Color: palette[0].Color}
			case l.LabelType >= 0 && l.LabelType < len(palette):
				label = palette[l.LabelType]
			}
			b := domain.Bounds{
				Left:   float64(l.Left),
				Top:    float64(l.Top),
				Right:  float64(l.Left + l.Width),
				Bottom: float64(l.Top + l.Height),
			}
			out = append(out, domain.NewAnnotation(b, page.Number-1, label, []domain.TokenID{}))
		}
	}
	return out
}
