// Package client provides a typed client for the tripsplit HTTP API and
// a snapshot store that keeps a local view in sync with the server.
package client

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

	"tripsplit/internal/models"
)

// APIError is a non-2xx response from the server, carrying the decoded
// error message when one was present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Client talks to a tripsplit server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State fetches the full server snapshot.
func (c *Client) State(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/state", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AddPerson registers a person and returns the updated people list.
func (c *Client) AddPerson(ctx context.Context, name string) ([]string, error) {
	var out struct {
		People []string `json:"people"`
	}
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/api/people", body, &out); err != nil {
		return nil, err
	}
	return out.People, nil
}

// CreateReceiptRequest is the JSON body for receipt creation. All fields
// are optional; the server fills defaults.
type CreateReceiptRequest struct {
	HTMLText string `json:"html_text,omitempty"`
	PaidBy   string `json:"paid_by,omitempty"`
	Title    string `json:"title,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// CreateReceipt parses the invoice HTML server-side and persists the
// resulting receipt.
func (c *Client) CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*models.Receipt, error) {
	var out struct {
		Receipt models.Receipt `json:"receipt"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/receipts", req, &out); err != nil {
		return nil, err
	}
	return &out.Receipt, nil
}

// QRResult is the server's answer to a QR decode request.
type QRResult struct {
	QRData   string  `json:"qr_data"`
	HTMLText *string `json:"html_text"`
}

// DecodeQR uploads a receipt photo for QR decoding. The image should
// already be within the upload budget; SyncedStore handles compression.
func (c *Client) DecodeQR(ctx context.Context, filename string, image []byte) (*QRResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/qr/decode", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out QRResult
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetItemParticipants replaces the participant list of one item.
func (c *Client) SetItemParticipants(ctx context.Context, receiptID, itemID string, participants []string) error {
	body := map[string]any{"item_id": itemID, "participants": participants}
	path := fmt.Sprintf("/api/receipts/%s/participants", receiptID)
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// SetPaidBy changes who paid for a receipt.
func (c *Client) SetPaidBy(ctx context.Context, receiptID, paidBy string) error {
	body := map[string]string{"paid_by": paidBy}
	path := fmt.Sprintf("/api/receipts/%s/paid_by", receiptID)
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// BulkAssign assigns everyone ("all") or nobody ("none") to every item
// of a receipt.
func (c *Client) BulkAssign(ctx context.Context, receiptID, mode string) error {
	body := map[string]string{"mode": mode}
	path := fmt.Sprintf("/api/receipts/%s/bulk", receiptID)
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// DeleteReceipt removes a receipt and its items.
func (c *Client) DeleteReceipt(ctx context.Context, receiptID string) error {
	return c.do(ctx, http.MethodDelete, "/api/receipts/"+receiptID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
