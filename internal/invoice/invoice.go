// Package invoice extracts a receipt draft from the HTML pages that
// Greek e-invoice providers serve behind receipt QR codes.
//
// Two provider formats are supported: the MyMarket span/field layout and
// the Entersoft table layout used by Sklavenitis. Detect picks a parser
// from format fingerprints in the markup; an unrecognized page falls
// back to the MyMarket parser, which degrades to an empty item list
// rather than failing.
package invoice

import (
	"strings"

	"github.com/google/uuid"

	"tripsplit/internal/models"
)

// Parser names, recorded on every parsed receipt for debugging.
const (
	ParserMyMarket  = "mymarket"
	ParserEntersoft = "entersoft"
)

// Invoice is the parsed form of a provider page. Numeric fields are nil
// when the page did not yield them; callers treat nil as zero.
type Invoice struct {
	SupplierName  string
	SupplierVAT   string
	Number        string
	Date          string
	Currency      string
	TotalAmount   *float64
	PaymentMethod string
	Items         []models.Item
	Parser        string
}

// Detect fingerprints the HTML and returns the parser name to use.
func Detect(html string) string {
	lower := strings.ToLower(html)
	if strings.Contains(lower, "entersoft") ||
		strings.Contains(lower, "e-invoicing.gr") ||
		strings.Contains(lower, "sklavenitis") {
		return ParserEntersoft
	}
	return ParserMyMarket
}

// Parse detects the provider format and extracts an Invoice. It never
// fails: unparseable input produces an Invoice with no items and a nil
// total.
func Parse(html string) Invoice {
	var inv Invoice
	parser := Detect(html)
	switch parser {
	case ParserEntersoft:
		inv = parseEntersoft(html)
	default:
		inv = parseMyMarket(html)
	}
	inv.Parser = parser
	return inv
}

// clean strips markup remnants and collapses runs of whitespace. An
// all-whitespace value becomes the empty string.
func clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// newItemID returns a short hex id, long enough to avoid collisions
// within a receipt.
func newItemID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
}
