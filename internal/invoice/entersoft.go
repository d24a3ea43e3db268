package invoice

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tripsplit/internal/models"
	"tripsplit/internal/money"
)

// Entersoft pages label their header facts in free Greek text rather
// than structured markup, so those come out with regular expressions;
// the item table is structured enough for selectors.
var (
	entersoftNumberRe  = regexp.MustCompile(`(?i)Αρ\.?\s*Παραστατικού:\s*([^<]+)`)
	entersoftDateRe    = regexp.MustCompile(`(?i)Ημ/νία\s*έκδοσης:\s*([^<]+)`)
	entersoftVATRe     = regexp.MustCompile(`(?i)Α\.?Φ\.?Μ:\s*([0-9]+)`)
	entersoftPaymentRe = regexp.MustCompile(`(?i)Τρόπος\s+[Ππ]ληρωμής[\s\S]*?<div[^>]*>\s*([^<]+?)\s*</div>`)
	entersoftAmountRe  = regexp.MustCompile(`(?i)Ποσ[όο]\s+Πληρωμής[\s\S]*?<div[^>]*>\s*([0-9.,]+)\s*EUR`)
)

// parseEntersoft handles the Entersoft-hosted invoice layout used by
// Sklavenitis.
func parseEntersoft(html string) Invoice {
	inv := Invoice{Currency: "EUR"}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return inv
	}

	doc.Find("div.BoldBlueHeader").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if name := clean(sel.Text()); name != "" {
			inv.SupplierName = name
			return false
		}
		return true
	})

	if m := entersoftNumberRe.FindStringSubmatch(html); m != nil {
		inv.Number = clean(m[1])
	}
	if m := entersoftDateRe.FindStringSubmatch(html); m != nil {
		inv.Date = clean(m[1])
	}
	if m := entersoftVATRe.FindStringSubmatch(html); m != nil {
		inv.SupplierVAT = clean(m[1])
	}
	if m := entersoftPaymentRe.FindStringSubmatch(html); m != nil {
		inv.PaymentMethod = clean(m[1])
	}

	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cell := func(title string) string {
			return clean(row.Find(`td[data-title='` + title + `']`).First().Text())
		}
		description := cell("Περιγραφή")
		quantity, qOK := money.ParseAmount(cell("Ποσότητα"))
		price, pOK := money.ParseAmount(clean(row.Find(`td[data-title^='Τιμή']`).First().Text()))
		total, tOK := money.ParseAmount(cell("Συνολική Αξία"))

		if description == "" && !qOK && !pOK {
			return
		}
		item := models.Item{
			ID:           newItemID(),
			Description:  description,
			Participants: []string{},
		}
		if item.Description == "" {
			item.Description = "Item"
		}
		if qOK {
			item.Quantity = &quantity
		}
		if pOK {
			item.Price = &price
		}
		if tOK {
			item.Total = &total
		}
		inv.Items = append(inv.Items, item)
	})

	if len(inv.Items) > 0 {
		inv.TotalAmount = sumItemTotals(inv.Items)
	}
	// The declared payment amount beats the running item sum when present.
	if m := entersoftAmountRe.FindStringSubmatch(html); m != nil {
		if amount, ok := money.ParseAmount(m[1]); ok {
			inv.TotalAmount = &amount
		}
	}
	return inv
}
