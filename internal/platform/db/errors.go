package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound distinguishes an absent row from a store failure. Repositories
// translate pgx.ErrNoRows into it so callers never depend on driver errors.
var ErrNotFound = errors.New("record not found")

// NotFound maps driver-level no-rows errors to ErrNotFound and passes
// everything else through.
func NotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
