package accounting

import "context"

// Repository persists the payments ledger.
type Repository interface {
	// Save inserts when the entry has no id yet, updates otherwise.
	Save(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
