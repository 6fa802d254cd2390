package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/patientdocs/api/internal/platform/auth"
)

// mockRecorder collects audit entries for assertions.
type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error // if set, RecordAccess returns this error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) last() AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func newAuditContext(method, path string, ident *auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if ident != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), ident))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAudit_RecordsAPIAccess(t *testing.T) {
	recorder := &mockRecorder{}
	mw := Audit(zerolog.Nop(), recorder)

	c, _ := newAuditContext(http.MethodGet, "/api/v1/patients/42", &auth.Identity{
		UserID:  7,
		Subject: "doc-7",
	})
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if recorder.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", recorder.count())
	}
	entry := recorder.last()
	if entry.UserID != 7 {
		t.Errorf("expected user id 7, got %d", entry.UserID)
	}
	if entry.RecordType != "patients" {
		t.Errorf("expected record type patients, got %q", entry.RecordType)
	}
	if entry.PatientID != "42" {
		t.Errorf("expected patient id 42, got %q", entry.PatientID)
	}
	if entry.Action != "read" {
		t.Errorf("expected action read, got %q", entry.Action)
	}
}

func TestAudit_RecorderFailureDoesNotFailRequest(t *testing.T) {
	recorder := &mockRecorder{err: errors.New("sink unavailable")}
	mw := Audit(zerolog.Nop(), recorder)

	c, rec := newAuditContext(http.MethodDelete, "/api/v1/encounters/3", &auth.Identity{UserID: 1})
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("recorder failure must not propagate, got: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHTTPMethodToAction(t *testing.T) {
	cases := map[string]string{
		http.MethodGet:    "read",
		http.MethodPost:   "create",
		http.MethodPatch:  "update",
		http.MethodPut:    "update",
		http.MethodDelete: "delete",
	}
	for method, want := range cases {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("%s: expected %q, got %q", method, want, got)
		}
	}
}

func TestExtractRecordType(t *testing.T) {
	cases := map[string]string{
		"/api/v1/encounters":       "encounters",
		"/api/v1/encounters/123":   "encounters",
		"/fragments/patients/1/view": "patients",
		"/api/v1/":                 "unknown",
	}
	for path, want := range cases {
		if got := extractRecordType(path); got != want {
			t.Errorf("%s: expected %q, got %q", path, want, got)
		}
	}
}
