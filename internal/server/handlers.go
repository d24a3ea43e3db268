package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripsplit/internal/imaging"
	"tripsplit/internal/invoice"
	"tripsplit/internal/ledger"
	"tripsplit/internal/models"
	"tripsplit/internal/qr"
	"tripsplit/internal/storage"
)

const maxUploadBytes = 16 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// storeError maps storage failures onto HTTP codes.
func storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	slog.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal error")
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

// handleState returns the full snapshot: people, receipts, and the
// derived summary. Every client mutation is followed by a call here, so
// this is the single source of truth the UI renders from.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	people, err := s.store.ListPeople(ctx)
	if err != nil {
		storeError(w, "ListPeople", err)
		return
	}
	receipts, err := s.store.ListReceipts(ctx)
	if err != nil {
		storeError(w, "ListReceipts", err)
		return
	}

	summary, stats := ledger.Compute(people, receipts)
	ledgerIgnoredPayers.Add(float64(stats.UnknownPayers))
	ledgerIgnoredParticipants.Add(float64(stats.UnknownParticipants))
	ledgerUnassignedItems.Add(float64(stats.UnassignedItems))

	if people == nil {
		people = []string{}
	}
	writeJSON(w, http.StatusOK, models.Snapshot{
		People:   people,
		Receipts: receipts,
		Summary:  summary,
	})
}

func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	name := cleanName(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name required")
		return
	}

	if err := s.store.AddPerson(r.Context(), name); err != nil {
		storeError(w, "AddPerson", err)
		return
	}
	people, err := s.store.ListPeople(r.Context())
	if err != nil {
		storeError(w, "ListPeople", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "people": people})
}

// createReceiptRequest carries the fields common to the JSON and
// multipart variants of POST /api/receipts.
type createReceiptRequest struct {
	HTMLText string `json:"html_text"`
	PaidBy   string `json:"paid_by"`
	Title    string `json:"title"`
	Notes    string `json:"notes"`

	fileBytes []byte
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	req, err := parseCreateReceipt(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	htmlText := req.HTMLText
	if htmlText == "" && len(req.fileBytes) > 0 {
		htmlText = string(req.fileBytes)
	}

	receipt, err := s.buildReceipt(r, htmlText, req)
	if err != nil {
		storeError(w, "CreateReceipt", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "receipt": receipt})
}

func parseCreateReceipt(r *http.Request) (*createReceiptRequest, error) {
	ctype, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(ctype, "multipart/") {
		var req createReceiptRequest
		if err := readJSON(r, &req); err != nil {
			return nil, fmt.Errorf("invalid JSON body")
		}
		return &req, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form")
	}
	req := &createReceiptRequest{
		HTMLText: r.FormValue("html_text"),
		PaidBy:   r.FormValue("paid_by"),
		Title:    r.FormValue("title"),
		Notes:    r.FormValue("notes"),
	}
	if file, _, err := r.FormFile("html_file"); err == nil {
		defer file.Close()
		raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file")
		}
		req.fileBytes = raw
	}
	return req, nil
}

// buildReceipt parses the invoice HTML and persists the resulting
// receipt. Payer falls back to the first known person, the title to
// the invoice number and then the date, the currency to EUR.
func (s *Server) buildReceipt(r *http.Request, htmlText string, req *createReceiptRequest) (*models.Receipt, error) {
	ctx := r.Context()
	inv := invoice.Parse(htmlText)

	people, err := s.store.ListPeople(ctx)
	if err != nil {
		return nil, err
	}

	paidBy := strings.TrimSpace(req.PaidBy)
	if paidBy == "" && len(people) > 0 {
		paidBy = people[0]
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = inv.Number
	}
	if title == "" {
		title = "Receipt " + time.Now().UTC().Format("2006-01-02")
	}

	currency := inv.Currency
	if currency == "" {
		currency = "EUR"
	}

	receipt := &models.Receipt{
		ID:            strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		Title:         title,
		Supplier:      inv.SupplierName,
		PaidBy:        paidBy,
		Currency:      currency,
		PaymentMethod: inv.PaymentMethod,
		Notes:         strings.TrimSpace(req.Notes),
		Parser:        inv.Parser,
		Items:         inv.Items,
	}
	if inv.TotalAmount != nil {
		receipt.TotalAmount = *inv.TotalAmount
	}
	if receipt.Items == nil {
		receipt.Items = []models.Item{}
	}

	if len(req.fileBytes) > 0 && s.uploadDir != "" {
		name := fmt.Sprintf("receipt-%s.html", receipt.ID)
		if err := os.MkdirAll(s.uploadDir, 0755); err == nil {
			if err := os.WriteFile(filepath.Join(s.uploadDir, name), req.fileBytes, 0644); err == nil {
				receipt.RawHTMLFile = name
			} else {
				slog.Warn("Failed to archive invoice HTML", "error", err)
			}
		}
	}

	if err := s.store.CreateReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// handleQRDecode proxies an uploaded photo to the remote QR service and
// fetches the invoice page behind the decoded URL. Clients compress the
// photo below the budget before calling this; an oversized upload still
// goes through, it just risks rejection upstream.
func (s *Server) handleQRDecode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Upload an image file")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file")
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "Empty file")
		return
	}
	if len(image) > imaging.DefaultBudget {
		slog.Warn("QR upload exceeds budget, remote API may reject it",
			"bytes", len(image), "budget", imaging.DefaultBudget)
	}

	data, err := s.qrClient.Decode(r.Context(), header.Filename, image)
	if errors.Is(err, qr.ErrNoData) {
		qrDecodeRequests.WithLabelValues("no_data").Inc()
		writeError(w, http.StatusUnprocessableEntity, "Could not read QR code")
		return
	}
	if err != nil {
		qrDecodeRequests.WithLabelValues("upstream_error").Inc()
		slog.Error("QR decode failed", "error", err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("QR decode failed: %v", err))
		return
	}
	qrDecodeRequests.WithLabelValues("ok").Inc()

	var htmlText *string
	if qr.IsURL(data) {
		if page, err := s.qrClient.FetchHTML(r.Context(), data); err == nil {
			htmlText = &page
		} else {
			slog.Warn("Failed to fetch invoice page behind QR URL", "url", data, "error", err)
		}
	} else if data != "" {
		// Some QR codes embed the invoice HTML directly.
		htmlText = &data
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"qr_data":   data,
		"html_text": htmlText,
	})
}

func (s *Server) handleSetParticipants(w http.ResponseWriter, r *http.Request) {
	receiptID := r.PathValue("id")
	var req struct {
		ItemID       string   `json:"item_id"`
		Participants []string `json:"participants"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	known, err := s.peopleSet(r)
	if err != nil {
		storeError(w, "ListPeople", err)
		return
	}
	valid := make([]string, 0, len(req.Participants))
	for _, name := range req.Participants {
		if known[name] {
			valid = append(valid, name)
		}
	}

	if err := s.store.SetItemParticipants(r.Context(), receiptID, req.ItemID, valid); err != nil {
		storeError(w, "SetItemParticipants", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSetPaidBy(w http.ResponseWriter, r *http.Request) {
	receiptID := r.PathValue("id")
	var req struct {
		PaidBy string `json:"paid_by"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if _, err := s.store.GetReceipt(r.Context(), receiptID); err != nil {
		storeError(w, "GetReceipt", err)
		return
	}

	paidBy := strings.TrimSpace(req.PaidBy)
	known, err := s.peopleSet(r)
	if err != nil {
		storeError(w, "ListPeople", err)
		return
	}
	// An unknown payer is quietly ignored rather than rejected, matching
	// the reference-exclusion policy of the ledger.
	if paidBy != "" && known[paidBy] {
		if err := s.store.SetPaidBy(r.Context(), receiptID, paidBy); err != nil {
			storeError(w, "SetPaidBy", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	receiptID := r.PathValue("id")
	var req struct {
		Mode string `json:"mode"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var participants []string
	switch req.Mode {
	case "all":
		people, err := s.store.ListPeople(r.Context())
		if err != nil {
			storeError(w, "ListPeople", err)
			return
		}
		participants = people
	case "none":
		participants = nil
	default:
		writeError(w, http.StatusBadRequest, "Invalid mode")
		return
	}

	if err := s.store.SetAllParticipants(r.Context(), receiptID, participants); err != nil {
		storeError(w, "SetAllParticipants", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReceipt(r.Context(), r.PathValue("id")); err != nil {
		storeError(w, "DeleteReceipt", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) peopleSet(r *http.Request) (map[string]bool, error) {
	people, err := s.store.ListPeople(r.Context())
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(people))
	for _, name := range people {
		set[name] = true
	}
	return set, nil
}
