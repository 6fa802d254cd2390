// Package access decides whether a clinician may read a patient's records.
// The decision derives from the appointment roster: a clinician sees the
// patients they have encounters with. Rosters are cached per clinician with a
// TTL; there is no proactive invalidation, so a freshly booked patient may
// take up to the TTL to become visible.
package access

import (
	"context"
	"sync"
	"time"

	"github.com/patientdocs/api/internal/platform/auth"
)

// RosterSource supplies the patient ids a clinician is allowed to see.
type RosterSource interface {
	ListPatientIDsByDoctor(ctx context.Context, doctorID int64) ([]int64, error)
}

type rosterEntry struct {
	patients  map[int64]struct{}
	fetchedAt time.Time
}

// Checker caches per-clinician patient rosters and answers access questions.
type Checker struct {
	mu      sync.RWMutex
	src     RosterSource
	ttl     time.Duration
	rosters map[int64]rosterEntry
	now     func() time.Time
}

func NewChecker(src RosterSource, ttl time.Duration) *Checker {
	return &Checker{
		src:     src,
		ttl:     ttl,
		rosters: make(map[int64]rosterEntry),
		now:     time.Now,
	}
}

// MayAccess reports whether the identity may read the patient's records.
// Admins always pass. For clinicians the cached roster is consulted and
// lazily refreshed once the TTL elapses. A roster fetch failure denies
// access and surfaces the error.
func (ch *Checker) MayAccess(ctx context.Context, ident *auth.Identity, patientID int64) (bool, error) {
	if ident == nil {
		return false, nil
	}
	if ident.Admin {
		return true, nil
	}

	roster, err := ch.roster(ctx, ident.UserID)
	if err != nil {
		return false, err
	}
	_, ok := roster[patientID]
	return ok, nil
}

func (ch *Checker) roster(ctx context.Context, doctorID int64) (map[int64]struct{}, error) {
	ch.mu.RLock()
	entry, ok := ch.rosters[doctorID]
	fresh := ok && ch.now().Sub(entry.fetchedAt) < ch.ttl
	ch.mu.RUnlock()

	if fresh {
		return entry.patients, nil
	}

	ids, err := ch.src.ListPatientIDsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	patients := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		patients[id] = struct{}{}
	}

	ch.mu.Lock()
	ch.rosters[doctorID] = rosterEntry{patients: patients, fetchedAt: ch.now()}
	ch.mu.Unlock()

	return patients, nil
}

// Invalidate drops the cached roster for one clinician. Used by tests and by
// operators who need a roster refresh before the TTL elapses.
func (ch *Checker) Invalidate(doctorID int64) {
	ch.mu.Lock()
	delete(ch.rosters, doctorID)
	ch.mu.Unlock()
}
