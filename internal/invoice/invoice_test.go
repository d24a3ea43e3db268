package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const myMarketHTML = `
<html><body>
<span class="field field-RegisteredName"><span class="label">Name</span><span class="value">MY MARKET A.E.</span></span>
<span class="field field-Vat"><span class="value">123456789</span></span>
<span class="field field-IssuerFormatedInvoiceSeriesNumber"><span class="value">AB-0042</span></span>
<span class="field field-DateIssued"><span class="value">2024-05-01</span></span>
<span class="field field-CurrencyCode"><span class="value">EUR</span></span>
<span class="field field-PaymentMethodType"><span class="value">CARD</span></span>
<span class="field field-TotalGrossValue"><span class="value">7,30</span></span>
<table>
<tr>
  <td><span class="field field-Description1"><span class="value">Milk   1L</span></span></td>
  <td><span class="field field-Quantity"><span class="value">2</span></span></td>
  <td><span class="field field-UnitPrice"><span class="value">1,20</span></span></td>
</tr>
<tr>
  <td><span class="field field-Description1"><span class="value">Bread</span></span></td>
  <td><span class="field field-Quantity"><span class="value">1</span></span></td>
  <td><span class="field field-UnitPrice"><span class="value">4,90</span></span></td>
</tr>
<tr><td>not an item row</td></tr>
</table>
</body></html>`

const entersoftHTML = `
<html><body data-vendor="entersoft">
<div class="BoldBlueHeader">   </div>
<div class="BoldBlueHeader">ΣΚΛΑΒΕΝΙΤΗΣ</div>
<p>Αρ. Παραστατικού: 17-999</p>
<p>Ημ/νία έκδοσης: 01/05/2024</p>
<p>Α.Φ.Μ: 999888777</p>
<div>Τρόπος πληρωμής:</div><div> Μετρητά </div>
<table><tbody>
<tr>
  <td data-title="Περιγραφή">Φέτα</td>
  <td data-title="Ποσότητα">0,5</td>
  <td data-title="Τιμή Μονάδας">10,00</td>
  <td data-title="Συνολική Αξία">5,00</td>
</tr>
<tr>
  <td data-title="Περιγραφή">Ντομάτες</td>
  <td data-title="Ποσότητα">1,2</td>
  <td data-title="Τιμή Μονάδας">2,50</td>
  <td data-title="Συνολική Αξία">3,00</td>
</tr>
</tbody></table>
<div>Ποσό Πληρωμής</div><div>8,00 EUR</div>
</body></html>`

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"entersoft marker", "<html>powered by Entersoft</html>", ParserEntersoft},
		{"e-invoicing domain", `<a href="https://e-invoicing.gr/x">x</a>`, ParserEntersoft},
		{"sklavenitis name", "<div>SKLAVENITIS</div>", ParserEntersoft},
		{"mymarket fields", `<span class="field field-registeredname">`, ParserMyMarket},
		{"unknown defaults to mymarket", "<html></html>", ParserMyMarket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.html))
		})
	}
}

func TestParseMyMarket(t *testing.T) {
	inv := Parse(myMarketHTML)

	assert.Equal(t, ParserMyMarket, inv.Parser)
	assert.Equal(t, "MY MARKET A.E.", inv.SupplierName)
	assert.Equal(t, "123456789", inv.SupplierVAT)
	assert.Equal(t, "AB-0042", inv.Number)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, "CARD", inv.PaymentMethod)
	require.NotNil(t, inv.TotalAmount)
	assert.InDelta(t, 7.30, *inv.TotalAmount, 0.001)

	require.Len(t, inv.Items, 2)
	milk := inv.Items[0]
	assert.Equal(t, "Milk 1L", milk.Description, "whitespace must collapse")
	assert.NotEmpty(t, milk.ID)
	require.NotNil(t, milk.Quantity)
	require.NotNil(t, milk.Price)
	require.NotNil(t, milk.Total)
	assert.InDelta(t, 2, *milk.Quantity, 0.001)
	assert.InDelta(t, 1.20, *milk.Price, 0.001)
	assert.InDelta(t, 2.40, *milk.Total, 0.001)
	assert.Empty(t, milk.Participants)
	assert.NotNil(t, milk.Participants, "participants must marshal as [], not null")
}

func TestParseMyMarketTotalFallsBackToItemSum(t *testing.T) {
	html := `<table>
<tr>
  <td><span class="field field-Description1"><span class="value">A</span></span></td>
  <td><span class="field field-Quantity"><span class="value">1</span></span></td>
  <td><span class="field field-UnitPrice"><span class="value">2,50</span></span></td>
</tr>
</table>`
	inv := Parse(html)
	require.NotNil(t, inv.TotalAmount)
	assert.InDelta(t, 2.50, *inv.TotalAmount, 0.001)
}

func TestParseEntersoft(t *testing.T) {
	inv := Parse(entersoftHTML)

	assert.Equal(t, ParserEntersoft, inv.Parser)
	assert.Equal(t, "ΣΚΛΑΒΕΝΙΤΗΣ", inv.SupplierName, "blank headers must be skipped")
	assert.Equal(t, "17-999", inv.Number)
	assert.Equal(t, "01/05/2024", inv.Date)
	assert.Equal(t, "999888777", inv.SupplierVAT)
	assert.Equal(t, "Μετρητά", inv.PaymentMethod)
	assert.Equal(t, "EUR", inv.Currency)

	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Φέτα", inv.Items[0].Description)
	require.NotNil(t, inv.Items[0].Total)
	assert.InDelta(t, 5.00, *inv.Items[0].Total, 0.001)

	// Declared payment amount wins over the 8.00 item sum (equal here,
	// but sourced from the payment block).
	require.NotNil(t, inv.TotalAmount)
	assert.InDelta(t, 8.00, *inv.TotalAmount, 0.001)
}

func TestParseGarbage(t *testing.T) {
	inv := Parse("this is not html at all")
	assert.Empty(t, inv.Items)
	assert.Equal(t, ParserMyMarket, inv.Parser)
	require.NotNil(t, inv.TotalAmount, "fallback sum of zero items")
	assert.Zero(t, *inv.TotalAmount)
}
