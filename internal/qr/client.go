// Package qr talks to the remote QR decoding service and fetches the
// invoice HTML that decoded QR payloads usually point at.
package qr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the public QR reading API the original deployment
// uses.
const DefaultEndpoint = "https://api.qrserver.com/v1/read-qr-code/?outputformat=json"

const userAgent = "tripsplit/1.0"

// ErrNoData means the remote service answered but could not read a QR
// code out of the image. Callers message the user instead of creating an
// empty receipt.
var ErrNoData = errors.New("qr: no QR code found in image")

// Client calls the remote QR decode API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint points the client at a different decode service, mainly
// for tests.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a Client against the default endpoint with a 10s
// request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// decodeResponse mirrors the API's wire shape:
// [{"symbol": [{"data": "...", "error": null}]}]
type decodeResponse []struct {
	Symbol []struct {
		Data  string `json:"data"`
		Error string `json:"error"`
	} `json:"symbol"`
}

// Decode posts the image as multipart form data and returns the decoded
// QR payload. A readable image with no QR content yields ErrNoData.
func (c *Client) Decode(ctx context.Context, filename string, image []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("qr: build request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("qr: build request: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("qr: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("qr: build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qr: decode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("qr: decode API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("qr: malformed decode response: %w", err)
	}

	for _, entry := range decoded {
		for _, symbol := range entry.Symbol {
			if data := strings.TrimSpace(symbol.Data); data != "" {
				return data, nil
			}
		}
	}
	return "", ErrNoData
}

// FetchHTML downloads the page a decoded QR URL points at. Non-URL
// payloads (QR codes that embed the invoice HTML directly) should be
// used as-is without calling this.
func (c *Client) FetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("qr: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qr: fetch invoice page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("qr: invoice page returned %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("qr: read invoice page: %w", err)
	}
	return string(raw), nil
}

// IsURL reports whether a decoded payload looks like a fetchable link.
func IsURL(payload string) bool {
	return strings.HasPrefix(payload, "http://") || strings.HasPrefix(payload, "https://")
}
