package themepdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Render service routes.
const (
	PathGeneratePDF = "/generate-pdf"
	PathSaveUpload  = "/save-upload"
)

// DefaultServerURL is where the local render service listens.
const DefaultServerURL = "http://localhost:3000"

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// Client talks to the render service. It never retries.
type Client struct {
	baseURL  string
	http     *http.Client
	user     string
	password string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBasicAuth sends credentials to a production server.
func WithBasicAuth(user, password string) ClientOption {
	return func(c *Client) {
		c.user, c.password = user, password
	}
}

// NewClient creates a client for the service at baseURL. The default HTTP
// timeout leaves room for a full render.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultRenderTimeout + 30*time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GeneratePDF posts snap to the render service and returns the PDF bytes.
func (c *Client) GeneratePDF(ctx context.Context, snap Snapshot) ([]byte, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	req, err := c.newRequest(ctx, PathGeneratePDF, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrServerUnreachable, c.baseURL, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrServerResponse, err)
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, fmt.Errorf("%w: response is not a PDF", ErrInvalidPDF)
	}
	return pdf, nil
}

// UploadResult is the service's reply to a saved upload.
type UploadResult struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// SaveUpload sends r as the multipart field "file" named name.
func (c *Client) SaveUpload(ctx context.Context, name string, r io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return UploadResult{}, fmt.Errorf("building upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("building upload: %w", err)
	}

	req, err := c.newRequest(ctx, PathSaveUpload, &buf)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %s: %v", ErrServerUnreachable, c.baseURL, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return UploadResult{}, err
	}

	var res UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return UploadResult{}, fmt.Errorf("%w: decoding upload reply: %v", ErrServerResponse, err)
	}
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	return req, nil
}

// checkResponse turns a non-2xx reply into ErrServerResponse carrying the
// server's message.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(msg))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%w (HTTP %d): %s", ErrServerResponse, resp.StatusCode, text)
}
