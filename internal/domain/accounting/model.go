package accounting

import "time"

// Payment methods accepted on ledger entries.
const (
	MethodCash     = "cash"
	MethodCheque   = "cheque"
	MethodTransfer = "transfer"
	MethodCard     = "card"
)

// Entry is one line in the payments ledger.
type Entry struct {
	ID               int64     `json:"id"`
	Date             time.Time `json:"date"`
	InvoiceNumber    string    `json:"invoice_number,omitempty"`
	Beneficiary      string    `json:"beneficiary"`
	PaymentMethod    string    `json:"payment_method"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	Amount           float64   `json:"amount"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Filter narrows a ledger listing.
type Filter struct {
	Search string
	From   time.Time
	To     time.Time
}
