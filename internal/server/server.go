// Package server implements the tripsplit HTTP API: people, receipts,
// the derived balance summary, and the QR decode proxy.
package server

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripsplit/internal/qr"
	"tripsplit/internal/storage"
)

// QRDecoder is the slice of the QR client the server needs; split out so
// tests can stub the remote service.
type QRDecoder interface {
	Decode(ctx context.Context, filename string, image []byte) (string, error)
	FetchHTML(ctx context.Context, url string) (string, error)
}

var _ QRDecoder = (*qr.Client)(nil)

// Server wires the store and the QR client into HTTP handlers.
type Server struct {
	store     storage.Store
	qrClient  QRDecoder
	uploadDir string
	staticDir string
}

// Option customizes a Server.
type Option func(*Server)

// WithUploadDir enables archiving of raw invoice HTML and serves the
// archive under /uploads/.
func WithUploadDir(dir string) Option {
	return func(s *Server) { s.uploadDir = dir }
}

// WithStaticDir serves the frontend from the given directory.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// New creates a Server.
func New(store storage.Store, qrClient QRDecoder, opts ...Option) *Server {
	s := &Server{store: store, qrClient: qrClient}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the full route table wrapped in logging, CORS, and
// metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/people", s.handleAddPerson)
	mux.HandleFunc("POST /api/receipts", s.handleCreateReceipt)
	mux.HandleFunc("POST /api/qr/decode", s.handleQRDecode)
	mux.HandleFunc("POST /api/receipts/{id}/participants", s.handleSetParticipants)
	mux.HandleFunc("POST /api/receipts/{id}/paid_by", s.handleSetPaidBy)
	mux.HandleFunc("POST /api/receipts/{id}/bulk", s.handleBulk)
	mux.HandleFunc("DELETE /api/receipts/{id}", s.handleDeleteReceipt)

	mux.Handle("GET /metrics", promhttp.Handler())

	if s.uploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
	}
	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}

	return loggingMiddleware(metricsMiddleware(corsMiddleware(mux)))
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// cleanName strips markup and collapses whitespace in a person name.
func cleanName(name string) string {
	return strings.Join(strings.Fields(tagRe.ReplaceAllString(name, "")), " ")
}
