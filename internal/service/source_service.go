package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"pdf-layout-annotator/internal/domain"
)

type SourceService struct {
	repo   domain.SourceRepository
	logger domain.Logger
}

func NewSourceService(repo domain.SourceRepository, logger domain.Logger) *SourceService {
	return &SourceService{
		repo:   repo,
		logger: logger,
	}
}

// PDF opens the document file. The caller closes the reader.
func (s *SourceService) PDF(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := domain.ValidateName("name", name); err != nil {
		return nil, err
	}
	return s.repo.OpenPDF(ctx, name)
}

// Tokens parses the poppler XML token dump of the document.
func (s *SourceService) Tokens(ctx context.Context, name string) (domain.PagesTokens, error) {
	if err := domain.ValidateName("name", name); err != nil {
		return domain.PagesTokens{}, err
	}

	rc, err := s.repo.OpenTokens(ctx, name)
	if err != nil {
		return domain.PagesTokens{}, err
	}
	defer rc.Close()

	pages, err := ParsePopplerTokens(rc)
	if err != nil {
		return domain.PagesTokens{}, fmt.Errorf("parse tokens of %s: %w", name, err)
	}
	s.logger.Debug("Tokens parsed", "document", name, "pages", len(pages.Pages))
	return pages, nil
}

// ParsePopplerTokens reads `pdftohtml -xml` output. Every <page> becomes a
// page (number is 1-based) and every <text> element inside it a token.
// Malformed markup is tolerated; elements with unreadable geometry are
// skipped.
func ParsePopplerTokens(r io.Reader) (domain.PagesTokens, error) {
	z := html.NewTokenizer(r)

	result := domain.PagesTokens{Pages: []domain.PageTokens{}}
	var page *domain.PageTokens
	var token *domain.Token
	var text strings.Builder

	flushPage := func() {
		if page != nil {
			result.Pages = append(result.Pages, *page)
			page = nil
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return result, err
			}
			flushPage()
			return result, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			attrs := readAttrs(z, hasAttr)
			switch string(name) {
			case "page":
				flushPage()
				p, ok := pageFromAttrs(attrs, len(result.Pages))
				if ok {
					page = &p
				}
			case "text":
				if page == nil || tt == html.SelfClosingTagToken {
					continue
				}
				if t, ok := tokenFromAttrs(attrs); ok {
					token = &t
					text.Reset()
				}
			}

		case html.TextToken:
			if token != nil {
				text.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "text":
				if token != nil && page != nil {
					token.Text = strings.TrimSpace(text.String())
					page.Tokens = append(page.Tokens, *token)
				}
				token = nil
			case "page":
				flushPage()
			}
		}
	}
}

func readAttrs(z *html.Tokenizer, more bool) map[string]string {
	attrs := make(map[string]string)
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		attrs[string(key)] = string(val)
	}
	return attrs
}

func pageFromAttrs(attrs map[string]string, fallbackIndex int) (domain.PageTokens, bool) {
	index := fallbackIndex
	if n, err := strconv.Atoi(attrs["number"]); err == nil {
		index = n - 1
	}
	width, werr := strconv.ParseFloat(attrs["width"], 64)
	height, herr := strconv.ParseFloat(attrs["height"], 64)
	if werr != nil || herr != nil {
		return domain.PageTokens{}, false
	}
	return domain.PageTokens{Index: index, Width: width, Height: height, Tokens: []domain.Token{}}, true
}

func tokenFromAttrs(attrs map[string]string) (domain.Token, bool) {
	var v [4]float64
	for i, key := range []string{"left", "top", "width", "height"} {
		f, err := strconv.ParseFloat(attrs[key], 64)
		if err != nil {
			return domain.Token{}, false
		}
		v[i] = f
	}
	return domain.Token{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, true
}
