package billing

import "time"

// Bill is the invoice raised for an encounter, with its line items.
type Bill struct {
	ID            int64       `json:"id"`
	EncounterID   int64       `json:"encounter_id"`
	PatientID     int64       `json:"patient_id"`
	PatientName   string      `json:"patient_name"`
	PatientEmail  string      `json:"patient_email,omitempty"`
	InvoiceNumber string      `json:"invoice_number"`
	Date          time.Time   `json:"date"`
	Total         float64     `json:"total"`
	Items         []*BillItem `json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// BillItem is one line on a bill. Amount is Quantity times UnitPrice,
// computed at save time so stored rows stay consistent.
type BillItem struct {
	ID        int64   `json:"id"`
	BillID    int64   `json:"bill_id"`
	Label     string  `json:"label"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Amount    float64 `json:"amount"`
}
