package billing

import "context"

// Repository persists bills and their items.
type Repository interface {
	// UpsertBill writes the bill header keyed by encounter id.
	UpsertBill(ctx context.Context, b *Bill) error
	ReplaceItems(ctx context.Context, billID int64, items []*BillItem) error
	GetByID(ctx context.Context, id int64) (*Bill, error)
	GetByEncounter(ctx context.Context, encounterID int64) (*Bill, error)
	Delete(ctx context.Context, id int64) (bool, error)

	// NextInvoiceNumber reserves the next number in the yearly sequence.
	NextInvoiceNumber(ctx context.Context, year int) (string, error)
}
