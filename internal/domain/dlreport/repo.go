package dlreport

import "context"

// Repository persists driver license fitness reports.
type Repository interface {
	// Save inserts when the record has no id yet, updates otherwise.
	Save(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id int64) (*Record, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Record, int, error)
	Delete(ctx context.Context, id int64) (bool, error)
	SetFile(ctx context.Context, id int64, fileID string) (bool, error)
}
