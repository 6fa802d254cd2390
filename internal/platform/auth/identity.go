package auth

import "context"

// Capability names checked by the action handlers. Each action names exactly
// one capability; the Admin flag on Identity overrides all of them.
const (
	CapView             = "records.view"
	CapEdit             = "records.edit"
	CapManagePatients   = "records.manage_patients"
	CapManageEncounters = "records.manage_encounters"
	CapManageAccounting = "records.manage_accounting"
)

// Identity is the authenticated caller of a request. It is resolved once by
// the auth middleware and carried in the request context; handlers and the
// access checker never consult ambient user state.
type Identity struct {
	UserID       int64
	Subject      string
	Name         string
	Email        string
	Admin        bool
	Capabilities []string
}

// Can reports whether the identity holds the named capability. Admins hold
// every capability.
func (id *Identity) Can(capability string) bool {
	if id == nil {
		return false
	}
	if id.Admin {
		return true
	}
	for _, c := range id.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated identity, or nil when the
// request was not authenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}
