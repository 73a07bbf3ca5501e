package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pdf-layout-annotator/internal/domain"
)

// TokenSource provides the parsed tokens of a document.
type TokenSource interface {
	Tokens(ctx context.Context, name string) (domain.PagesTokens, error)
}

// transferThreshold is the share of a stored annotation, in percent, that
// must lie inside a token for the token to inherit its label.
const transferThreshold = 98.0

const (
	unorderedRank = 99999
	unknownRank   = 9999
)

// ReadingOrderService rebuilds a document as one annotation per token and
// numbers the tokens of each page in reading order.
type ReadingOrderService struct {
	annotations domain.AnnotationRepository
	tokens      TokenSource
	logger      domain.Logger
}

func NewReadingOrderService(annotations domain.AnnotationRepository, tokens TokenSource, logger domain.Logger) *ReadingOrderService {
	return &ReadingOrderService{
		annotations: annotations,
		tokens:      tokens,
		logger:      logger,
	}
}

// ReorderRegion moves every token touched by region to the position of the
// lowest numbered one among them, keeping their top-to-bottom order.
func (s *ReadingOrderService) ReorderRegion(ctx context.Context, ref domain.DocumentRef, region domain.Annotation) (domain.PdfAnnotations, error) {
	ref, err := folderRef(ref)
	if err != nil {
		return domain.PdfAnnotations{}, err
	}
	stored, pages, err := s.load(ctx, ref)
	if err != nil {
		return domain.PdfAnnotations{}, err
	}

	ordered := reorderRegion(tokenAnnotations(stored.Annotations, pages), region)
	return s.save(ctx, ref, ordered)
}

// ReorderToPosition moves the token annotation matching annotation to the
// 1-based position on its page.
func (s *ReadingOrderService) ReorderToPosition(ctx context.Context, ref domain.DocumentRef, annotation domain.Annotation, position int) (domain.PdfAnnotations, error) {
	ref, err := folderRef(ref)
	if err != nil {
		return domain.PdfAnnotations{}, err
	}
	if position < 1 {
		return domain.PdfAnnotations{}, domain.ErrInvalidPosition
	}
	stored, pages, err := s.load(ctx, ref)
	if err != nil {
		return domain.PdfAnnotations{}, err
	}

	ordered := reorderToPosition(tokenAnnotations(stored.Annotations, pages), annotation, position)
	return s.save(ctx, ref, ordered)
}

func (s *ReadingOrderService) load(ctx context.Context, ref domain.DocumentRef) (domain.PdfAnnotations, domain.PagesTokens, error) {
	var stored domain.PdfAnnotations
	var pages domain.PagesTokens

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = s.annotations.Load(gctx, ref)
		return err
	})
	g.Go(func() error {
		var err error
		pages, err = s.tokens.Tokens(gctx, ref.Name)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.PdfAnnotations{}, domain.PagesTokens{}, err
	}
	return stored, pages, nil
}

func (s *ReadingOrderService) save(ctx context.Context, ref domain.DocumentRef, ordered []domain.Annotation) (domain.PdfAnnotations, error) {
	set := domain.NewPdfAnnotations(ordered)
	if err := s.annotations.Save(ctx, ref, set); err != nil {
		return domain.PdfAnnotations{}, err
	}
	s.logger.Info("Reading order updated", "document", ref.String(), "annotations", set.Len())
	return set, nil
}

// tokenAnnotations creates one annotation per token. A token inherits the
// label of the stored annotations on its page that lie almost entirely
// inside it; with several candidates the largest wins.
func tokenAnnotations(stored []domain.Annotation, pages domain.PagesTokens) []domain.Annotation {
	byArea := make([]domain.Annotation, len(stored))
	copy(byArea, stored)
	sort.SliceStable(byArea, func(i, j int) bool {
		return byArea[i].Bounds.Area() < byArea[j].Bounds.Area()
	})

	out := make([]domain.Annotation, 0)
	for _, page := range pages.Pages {
		for i, token := range page.Tokens {
			a := domain.Annotation{
				ID:     uuid.NewString(),
				Page:   page.Index,
				Bounds: token.Bounds(),
				Tokens: []domain.TokenID{{PageIndex: page.Index, TokenIndex: i}},
			}
			for _, s := range byArea {
				if s.Page == a.Page && s.Bounds.IntersectionPercentage(a.Bounds) > transferThreshold {
					a.Label = s.Label
				}
			}
			out = append(out, a)
		}
	}
	return out
}

// rank orders annotations by their numeric label; other labels get missing.
func rank(a domain.Annotation, missing int) int {
	name := a.Label.Name
	if name == "" {
		return missing
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return missing
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return missing
	}
	return n
}

// numberByPage sorts annotations by page and current position and numbers
// each page from 1.
func numberByPage(annotations []domain.Annotation) []domain.Annotation {
	out := make([]domain.Annotation, len(annotations))
	copy(out, annotations)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return rank(out[i], unorderedRank) < rank(out[j], unorderedRank)
	})

	n := 0
	for i := range out {
		if i == 0 || out[i].Page != out[i-1].Page {
			n = 0
		}
		n++
		out[i].Label = domain.Label{Name: strconv.Itoa(n), Color: domain.ReadingOrderColor}
	}
	return out
}

func reorderRegion(annotations []domain.Annotation, region domain.Annotation) []domain.Annotation {
	ordered := numberByPage(annotations)

	var moved []domain.Annotation
	for _, a := range ordered {
		if a.Page == region.Page && a.Bounds.IntersectionPercentage(region.Bounds) > 0 {
			moved = append(moved, a)
		}
	}
	if len(moved) == 0 {
		return ordered
	}

	sort.SliceStable(moved, func(i, j int) bool {
		if moved[i].Bounds.Top != moved[j].Bounds.Top {
			return moved[i].Bounds.Top < moved[j].Bounds.Top
		}
		return moved[i].Bounds.Left < moved[j].Bounds.Left
	})
	position := unknownRank
	for _, a := range moved {
		position = min(position, rank(a, unknownRank))
	}
	return splice(ordered, region.Page, moved, position)
}

func reorderToPosition(annotations []domain.Annotation, target domain.Annotation, position int) []domain.Annotation {
	ordered := numberByPage(annotations)

	for _, a := range ordered {
		if matchesTarget(a, target) {
			return splice(ordered, target.Page, []domain.Annotation{a}, position)
		}
	}
	return ordered
}

// matchesTarget finds the token annotation a client refers to. A client
// annotation for a single token is matched by token; padding makes its
// bounds differ from the token's.
func matchesTarget(a, target domain.Annotation) bool {
	if a.Page != target.Page {
		return false
	}
	if len(target.Tokens) == 1 && len(a.Tokens) == 1 {
		return a.Tokens[0] == target.Tokens[0]
	}
	return a.Bounds.Equal(target.Bounds)
}

// splice inserts moved at the 1-based position among the other annotations
// of page and renumbers that page.
func splice(ordered []domain.Annotation, page int, moved []domain.Annotation, position int) []domain.Annotation {
	movedIDs := make(map[string]bool, len(moved))
	for _, a := range moved {
		movedIDs[a.ID] = true
	}

	var before, onPage, after []domain.Annotation
	for _, a := range ordered {
		switch {
		case movedIDs[a.ID]:
		case a.Page < page:
			before = append(before, a)
		case a.Page == page:
			onPage = append(onPage, a)
		default:
			after = append(after, a)
		}
	}

	at := min(max(position-1, 0), len(onPage))
	reordered := make([]domain.Annotation, 0, len(onPage)+len(moved))
	reordered = append(reordered, onPage[:at]...)
	reordered = append(reordered, moved...)
	reordered = append(reordered, onPage[at:]...)
	for i := range reordered {
		reordered[i].Label.Name = strconv.Itoa(i + 1)
	}

	out := make([]domain.Annotation, 0, len(ordered))
	out = append(out, before...)
	out = append(out, reordered...)
	return append(out, after...)
}
