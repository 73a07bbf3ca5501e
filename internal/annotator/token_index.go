package annotator

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"pdf-layout-annotator/internal/domain"
)

// TokenIndex answers token queries for one document. It is read-only after
// construction and safe for concurrent use.
type TokenIndex struct {
	pages  []domain.PageTokens
	byPage map[int]int
}

// NewTokenIndex indexes the pages of a token payload by page index.
func NewTokenIndex(p domain.PagesTokens) *TokenIndex {
	ix := &TokenIndex{
		pages:  p.Pages,
		byPage: make(map[int]int, len(p.Pages)),
	}
	for i, page := range p.Pages {
		if _, seen := ix.byPage[page.Index]; !seen {
			ix.byPage[page.Index] = i
		}
	}
	return ix
}

// Pages returns the indexed pages in payload order.
func (ix *TokenIndex) Pages() []domain.PageTokens {
	return ix.pages
}

// Page returns the first page slice with the given index.
func (ix *TokenIndex) Page(page int) (domain.PageTokens, bool) {
	i, ok := ix.byPage[page]
	if !ok {
		return domain.PageTokens{}, false
	}
	return ix.pages[i], true
}

// Token dereferences a token id.
func (ix *TokenIndex) Token(id domain.TokenID) (domain.Token, bool) {
	page, ok := ix.Page(id.PageIndex)
	if !ok || id.TokenIndex < 0 || id.TokenIndex >= len(page.Tokens) {
		return domain.Token{}, false
	}
	return page.Tokens[id.TokenIndex], true
}

// TokensUnder returns the ids of tokens on page whose rectangle overlaps b.
// The result is never nil.
func (ix *TokenIndex) TokensUnder(page int, b domain.Bounds) []domain.TokenID {
	out := make([]domain.TokenID, 0)
	p, ok := ix.Page(page)
	if !ok {
		return out
	}
	b = b.Normalize()
	for i, t := range p.Tokens {
		if b.Overlaps(t.Bounds()) {
			out = append(out, domain.TokenID{PageIndex: page, TokenIndex: i})
		}
	}
	return out
}

// Resolve returns the tokens under b and the padded rectangle spanning them.
// With no tokens the normalized input is returned as the bounds.
func (ix *TokenIndex) Resolve(page int, b domain.Bounds) ([]domain.TokenID, domain.Bounds) {
	ids := ix.TokensUnder(page, b)
	if len(ids) == 0 {
		return ids, b.Normalize()
	}
	rects := make([]domain.Bounds, 0, len(ids))
	for _, id := range ids {
		t, _ := ix.Token(id)
		rects = append(rects, t.Bounds())
	}
	return ids, domain.SpanningBounds(rects, domain.TokenPadding)
}

// Summary concatenates the text of the tokens visually inside a. Display only.
func (ix *TokenIndex) Summary(a domain.Annotation) string {
	p, ok := ix.Page(a.Page)
	if !ok {
		return ""
	}
	words := make([]string, 0)
	for _, t := range p.Tokens {
		if a.Contains(t) && t.Text != "" {
			words = append(words, t.Text)
		}
	}
	return norm.NFC.String(strings.Join(words, " "))
}

// ScreenBounds converts the token rectangle to screen coordinates.
func (ix *TokenIndex) ScreenBounds(id domain.TokenID, t Transform) (domain.Bounds, bool) {
	tok, ok := ix.Token(id)
	if !ok {
		return domain.Bounds{}, false
	}
	return t.ToScreen(tok.Bounds()), true
}
