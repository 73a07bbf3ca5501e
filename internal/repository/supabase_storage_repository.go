package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"pdf-layout-annotator/internal/domain"
)

// SupabaseStorageRepository implements domain.SourceRepository over a
// Supabase Storage bucket laid out as <name>/document.pdf and
// <name>/etree.xml.
type SupabaseStorageRepository struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

func NewSupabaseStorageRepository(baseURL, apiKey, bucket string, httpClient *http.Client) domain.SourceRepository {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SupabaseStorageRepository{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucket:     bucket,
		httpClient: httpClient,
	}
}

func (s *SupabaseStorageRepository) OpenPDF(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.download(ctx, name+"/"+pdfFile, domain.ErrDocumentNotFound)
}

func (s *SupabaseStorageRepository) OpenTokens(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.download(ctx, name+"/"+tokensFile, domain.ErrTokensNotFound)
}

// download streams one object. storage-go's DownloadFile buffers the whole
// object and takes no context, so the request is built here.
func (s *SupabaseStorageRepository) download(ctx context.Context, path string, missing error) (io.ReadCloser, error) {
	endpoint := s.baseURL + "/storage/v1/object/authenticated/" + url.PathEscape(s.bucket) + "/" + escapePath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("apikey", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage download failed: %w", err)
	}

	// Storage answers 400 with a not_found body for missing objects.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		resp.Body.Close()
		return nil, missing
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("storage download failed: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
