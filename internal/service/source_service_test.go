package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"pdf-layout-annotator/internal/domain"
)

const popplerSample = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE pdf2xml SYSTEM "pdf2xml.dtd">
<pdf2xml producer="poppler" version="22.02.0">
<page number="1" position="absolute" top="0" left="0" height="792" width="612">
	<fontspec id="0" size="12" family="Times" color="#000000"/>
<text top="72" left="90" width="120" height="14" font="0"><b>Introduction</b></text>
<text top="100" left="90" width="30" height="12" font="0">R&amp;D</text>
<text top="bad" left="90" width="30" height="12" font="0">skipped</text>
</page>
<page number="2" position="absolute" top="0" left="0" height="842" width="595">
<text top="10" left="10" width="5" height="5" font="0">x</text>
</page>
</pdf2xml>`

func TestParsePopplerTokens(t *testing.T) {
	pages, err := ParsePopplerTokens(strings.NewReader(popplerSample))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(pages.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages.Pages))
	}

	first := pages.Pages[0]
	if first.Index != 0 || first.Width != 612 || first.Height != 792 {
		t.Fatalf("unexpected first page %+v", first)
	}
	if len(first.Tokens) != 2 {
		t.Fatalf("expected malformed token skipped, got %d tokens", len(first.Tokens))
	}
	want := domain.Token{X: 90, Y: 72, Width: 120, Height: 14, Text: "Introduction"}
	if first.Tokens[0] != want {
		t.Fatalf("expected %+v, got %+v", want, first.Tokens[0])
	}
	if first.Tokens[1].Text != "R&D" {
		t.Fatalf("expected entities decoded, got %q", first.Tokens[1].Text)
	}
	if pages.Pages[1].Index != 1 || len(pages.Pages[1].Tokens) != 1 {
		t.Fatalf("unexpected second page %+v", pages.Pages[1])
	}
}

func TestParsePopplerTokens_Truncated(t *testing.T) {
	input := `<pdf2xml><page number="1" height="100" width="100"><text top="1" left="2" width="3" height="4">cut`
	pages, err := ParsePopplerTokens(strings.NewReader(input))
	if err != nil {
		t.Fatalf("expected truncated input to be tolerated, got %v", err)
	}
	if len(pages.Pages) != 1 || len(pages.Pages[0].Tokens) != 0 {
		t.Fatalf("expected the open page without the unterminated token, got %+v", pages.Pages)
	}
}

func TestParsePopplerTokens_Empty(t *testing.T) {
	pages, err := ParsePopplerTokens(strings.NewReader(""))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if pages.Pages == nil || len(pages.Pages) != 0 {
		t.Fatalf("expected empty non-nil page list, got %#v", pages.Pages)
	}
}

func TestSourceService_Tokens(t *testing.T) {
	repo := &mockSourceRepository{tokens: map[string]string{"doc": popplerSample}}
	svc := NewSourceService(repo, mockLogger{})

	pages, err := svc.Tokens(context.Background(), "doc")
	if err != nil {
		t.Fatalf("tokens failed: %v", err)
	}
	if len(pages.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages.Pages))
	}

	if _, err := svc.Tokens(context.Background(), "other"); !errors.Is(err, domain.ErrTokensNotFound) {
		t.Fatalf("expected ErrTokensNotFound, got %v", err)
	}
}

func TestSourceService_PDF(t *testing.T) {
	repo := &mockSourceRepository{pdfs: map[string]string{"doc": "%PDF-1.7"}}
	svc := NewSourceService(repo, mockLogger{})

	rc, err := svc.PDF(context.Background(), "doc")
	if err != nil {
		t.Fatalf("pdf failed: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "%PDF-1.7" {
		t.Fatalf("unexpected pdf bytes %q", data)
	}

	if _, err := svc.PDF(context.Background(), ".."); err == nil {
		t.Fatalf("expected path-like name to be rejected")
	}
}
