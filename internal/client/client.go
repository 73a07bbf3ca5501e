// Package client talks to the annotation backend over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pdf-layout-annotator/internal/domain"
	apperrors "pdf-layout-annotator/pkg/errors"
)

const apiPrefix = "/api/v1"

// Client implements annotator.Backend plus the catalog and triage calls.
type Client struct {
	baseURL string
	http    *http.Client
	logger  domain.Logger
}

// New creates a client for the backend at baseURL. A nil httpClient uses a
// client with a 30 second timeout.
func New(baseURL string, httpClient *http.Client, logger domain.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

func documentPath(ref domain.DocumentRef) string {
	return path("tasks", ref.Task, "datasets", ref.Dataset, "documents", ref.Name)
}

func path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}

// do sends a request and decodes a JSON response into out when out is
// non-nil. notFound is returned (wrapped) for 404 responses.
func (c *Client) do(ctx context.Context, method, p string, body, out interface{}, notFound error) error {
	resp, err := c.send(ctx, method, p, body, notFound)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("decode %s %s", method, p), err)
	}
	return nil
}

// send returns the response of a successful request. The caller closes the body.
func (c *Client) send(ctx context.Context, method, p string, body interface{}, notFound error) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+p, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("%s %s", method, p), err)
	}
	if resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, c.statusError(resp, method, p, notFound)
}

func (c *Client) statusError(resp *http.Response, method, p string, notFound error) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	message := payload.Error
	if message == "" {
		message = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		if notFound == nil {
			notFound = domain.ErrDocumentNotFound
		}
		return fmt.Errorf("%s %s: %w", method, p, notFound)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, p, domain.ErrNotJunk)
	case resp.StatusCode == http.StatusBadRequest:
		return &domain.ValidationError{Field: "request", Message: message}
	}

	c.logger.Warn("Backend request failed", "method", method, "path", p, "status", resp.StatusCode)
	return &apperrors.AppError{
		Type:       apperrors.ErrorTypeNetwork,
		Message:    message,
		Details:    fmt.Sprintf("%s %s", method, p),
		StatusCode: resp.StatusCode,
	}
}

func (c *Client) Annotations(ctx context.Context, ref domain.DocumentRef) (domain.PdfAnnotations, error) {
	var set domain.PdfAnnotations
	if err := c.do(ctx, http.MethodGet, documentPath(ref)+"/annotations", nil, &set, domain.ErrDocumentNotFound); err != nil {
		return domain.PdfAnnotations{}, err
	}
	return domain.NewPdfAnnotations(set.Annotations), nil
}

func (c *Client) SaveAnnotations(ctx context.Context, ref domain.DocumentRef, annotations domain.PdfAnnotations) error {
	return c.do(ctx, http.MethodPut, documentPath(ref)+"/annotations", annotations, nil, domain.ErrDocumentNotFound)
}

func (c *Client) Tokens(ctx context.Context, name string) (domain.PagesTokens, error) {
	var pages domain.PagesTokens
	if err := c.do(ctx, http.MethodGet, path("documents", name, "tokens"), nil, &pages, domain.ErrTokensNotFound); err != nil {
		return domain.PagesTokens{}, err
	}
	return pages, nil
}

// PDF streams the document bytes. The caller closes the reader.
func (c *Client) PDF(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := c.send(ctx, http.MethodGet, path("documents", name, "pdf"), nil, domain.ErrDocumentNotFound)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) Labels(ctx context.Context, task string) ([]domain.Label, error) {
	var labels []domain.Label
	if err := c.do(ctx, http.MethodGet, path("tasks", task, "labels"), nil, &labels, domain.ErrTaskNotFound); err != nil {
		return nil, err
	}
	return labels, nil
}

func (c *Client) SaveLabels(ctx context.Context, task string, labels []domain.Label) ([]domain.Label, error) {
	var saved []domain.Label
	if err := c.do(ctx, http.MethodPut, path("tasks", task, "labels"), labels, &saved, domain.ErrTaskNotFound); err != nil {
		return nil, err
	}
	return saved, nil
}

func (c *Client) ReorderRegion(ctx context.Context, ref domain.DocumentRef, region domain.Annotation) (domain.PdfAnnotations, error) {
	var set domain.PdfAnnotations
	if err := c.do(ctx, http.MethodPost, documentPath(ref)+"/reading-order", region, &set, domain.ErrDocumentNotFound); err != nil {
		return domain.PdfAnnotations{}, err
	}
	return domain.NewPdfAnnotations(set.Annotations), nil
}

func (c *Client) ReorderToPosition(ctx context.Context, ref domain.DocumentRef, annotation domain.Annotation, position int) (domain.PdfAnnotations, error) {
	var set domain.PdfAnnotations
	p := documentPath(ref) + "/reading-order/" + strconv.Itoa(position)
	if err := c.do(ctx, http.MethodPost, p, annotation, &set, domain.ErrDocumentNotFound); err != nil {
		return domain.PdfAnnotations{}, err
	}
	return domain.NewPdfAnnotations(set.Annotations), nil
}

func (c *Client) Datasets(ctx context.Context, task string) ([]string, error) {
	var datasets []string
	if err := c.do(ctx, http.MethodGet, path("tasks", task, "datasets"), nil, &datasets, domain.ErrTaskNotFound); err != nil {
		return nil, err
	}
	return datasets, nil
}

func (c *Client) ActiveTask(ctx context.Context) (string, error) {
	var out struct {
		Task string `json:"task"`
	}
	if err := c.do(ctx, http.MethodGet, "/active/task", nil, &out, domain.ErrNoActiveTask); err != nil {
		return "", err
	}
	return out.Task, nil
}

func (c *Client) ActiveDataset(ctx context.Context) (string, error) {
	var out struct {
		Dataset string `json:"dataset"`
	}
	if err := c.do(ctx, http.MethodGet, "/active/dataset", nil, &out, domain.ErrNoActiveTask); err != nil {
		return "", err
	}
	return out.Dataset, nil
}

func (c *Client) SetActive(ctx context.Context, task, dataset string) error {
	return c.do(ctx, http.MethodPut, path("active", task, dataset), nil, nil, domain.ErrDatasetNotFound)
}

func (c *Client) Documents(ctx context.Context, task, dataset string) ([]domain.DocumentStatus, error) {
	var docs []domain.DocumentStatus
	if err := c.do(ctx, http.MethodGet, path("tasks", task, "datasets", dataset, "documents"), nil, &docs, domain.ErrDatasetNotFound); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) SetStatus(ctx context.Context, ref domain.DocumentRef, flag domain.StatusFlag, value bool) error {
	p := documentPath(ref) + "/" + string(flag) + "/" + strconv.FormatBool(value)
	return c.do(ctx, http.MethodPut, p, nil, nil, domain.ErrDocumentNotFound)
}

func (c *Client) DeleteJunk(ctx context.Context, ref domain.DocumentRef) error {
	return c.do(ctx, http.MethodDelete, documentPath(ref), nil, nil, domain.ErrDocumentNotFound)
}

func (c *Client) DeleteAllJunk(ctx context.Context, task, dataset string) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, path("tasks", task, "datasets", dataset, "junk"), nil, &out, domain.ErrDatasetNotFound); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}
