package invoice

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tripsplit/internal/models"
	"tripsplit/internal/money"
)

// parseMyMarket handles the original MyMarket layout: every datum lives
// in a <span class="field field-Name"> wrapper with the text inside a
// nested <span class="value">.
func parseMyMarket(html string) Invoice {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Invoice{}
	}

	field := func(name string) string {
		return clean(doc.Find("span.field-" + name + " span.value").First().Text())
	}

	inv := Invoice{
		SupplierName:  field("RegisteredName"),
		SupplierVAT:   field("Vat"),
		Number:        field("IssuerFormatedInvoiceSeriesNumber"),
		Date:          field("DateIssued"),
		Currency:      field("CurrencyCode"),
		PaymentMethod: field("PaymentMethodType"),
	}
	if total, ok := money.ParseAmount(field("TotalGrossValue")); ok {
		inv.TotalAmount = &total
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		desc := row.Find("span.field-Description1 span.value")
		qty := row.Find("span.field-Quantity span.value")
		price := row.Find("span.field-UnitPrice span.value")
		if desc.Length() == 0 || qty.Length() == 0 || price.Length() == 0 {
			return
		}
		qtyText := clean(qty.First().Text())
		priceText := clean(price.First().Text())

		item := models.Item{
			ID:           newItemID(),
			Description:  clean(desc.First().Text()),
			Participants: []string{},
		}
		if q, ok := money.ParseAmount(qtyText); ok {
			item.Quantity = &q
		}
		if p, ok := money.ParseAmount(priceText); ok {
			item.Price = &p
		}
		if item.Quantity != nil && item.Price != nil {
			total := money.Round(*item.Quantity * *item.Price)
			item.Total = &total
		}
		inv.Items = append(inv.Items, item)
	})

	if inv.TotalAmount == nil {
		inv.TotalAmount = sumItemTotals(inv.Items)
	}
	return inv
}

// sumItemTotals adds up known line totals; missing lines count as zero.
// Used as the receipt-total fallback when the page carries no grand
// total of its own.
func sumItemTotals(items []models.Item) *float64 {
	var running float64
	for _, item := range items {
		if item.Total != nil {
			running += *item.Total
		}
	}
	total := money.Round(running)
	return &total
}
