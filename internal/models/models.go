package models

// Item is one priced line within a receipt, shared among zero or more
// people. Price and quantity are immutable inputs supplied by the invoice
// parser; only the participant set is mutable afterwards.
type Item struct {
	// ID is a short hex identifier unique within the system.
	ID string `json:"id"`

	// Description is the line text from the invoice (e.g. "Milk 1L").
	Description string `json:"description"`

	// Quantity is the purchased amount. Nil when the parser could not
	// extract one.
	Quantity *float64 `json:"quantity"`

	// Price is the unit price. Nil when unknown.
	Price *float64 `json:"price"`

	// Total is the line total. Nil when unknown; consumers fall back to
	// Quantity × Price.
	Total *float64 `json:"total"`

	// Participants are the names of people sharing this item. The set is
	// unordered on the wire; duplicates collapse. Empty means the item is
	// apportioned to no one.
	Participants []string `json:"participants"`
}

// Receipt is a single purchase event: one payer, a sequence of items, and
// an authoritative total supplied by the invoice parser (never recomputed
// from items by the ledger).
type Receipt struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Supplier string `json:"supplier,omitempty"`

	// PaidBy names the person who fronted the money. May be empty.
	PaidBy string `json:"paid_by"`

	Currency string `json:"currency"`

	// TotalAmount is the full receipt amount including anything the line
	// items miss (fees, rounding). Treated as opaque and authoritative.
	TotalAmount float64 `json:"total_amount"`

	Items []Item `json:"items"`

	PaymentMethod string `json:"payment_method,omitempty"`
	Notes         string `json:"notes,omitempty"`

	// Parser records which invoice parser produced this receipt.
	Parser string `json:"parser,omitempty"`

	// RawHTMLFile is the archived upload filename, if the raw invoice
	// HTML was kept.
	RawHTMLFile string `json:"raw_html_file,omitempty"`

	// CreatedAt is an RFC 3339 UTC timestamp.
	CreatedAt string `json:"created_at"`
}

// BalanceRow is one person's derived position: what they fronted, what
// they consumed, and the difference. Positive net means they are owed
// money.
type BalanceRow struct {
	Name     string  `json:"name"`
	Paid     float64 `json:"paid"`
	Consumed float64 `json:"consumed"`
	Net      float64 `json:"net"`
}

// Snapshot is one consistent view of the whole system as returned by
// GET /api/state. The client replaces its copy wholesale after every
// mutation; nothing merges.
type Snapshot struct {
	People   []string     `json:"people"`
	Receipts []Receipt    `json:"receipts"`
	Summary  []BalanceRow `json:"summary"`
}
