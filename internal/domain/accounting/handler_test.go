package accounting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/render"
)

func newTestHandler(t *testing.T, repo *mockRepo) *Handler {
	t.Helper()
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return NewHandler(NewService(repo), renderer, false)
}

func TestHandler_Save(t *testing.T) {
	repo := newMockRepo()
	h := newTestHandler(t, repo)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounting",
		strings.NewReader(`{"beneficiary":"Clinic","payment_method":"cheque","payment_reference":"CHQ-17","amount":450}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.save(e.NewContext(req, rec)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(repo.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(repo.entries))
	}
}

func TestHandler_SaveRejectsBadMethod(t *testing.T) {
	h := newTestHandler(t, newMockRepo())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounting",
		strings.NewReader(`{"beneficiary":"Clinic","payment_method":"barter","amount":450}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.save(e.NewContext(req, rec)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false {
		t.Error("expected failure envelope")
	}
}

func TestHandler_ListRejectsBadDate(t *testing.T) {
	h := newTestHandler(t, newMockRepo())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounting?from=junk", nil)
	rec := httptest.NewRecorder()

	if err := h.list(e.NewContext(req, rec)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_PageFragment(t *testing.T) {
	repo := newMockRepo()
	h := newTestHandler(t, repo)
	if err := h.svc.Save(context.Background(), &Entry{
		Beneficiary:   "City Clinic",
		PaymentMethod: MethodTransfer,
		Amount:        900,
		InvoiceNumber: "2026-0007",
		Date:          time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/fragments/accounting", nil)
	rec := httptest.NewRecorder()

	if err := h.pageFragment(e.NewContext(req, rec)); err != nil {
		t.Fatalf("pageFragment: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	html := rec.Body.String()
	if !strings.Contains(html, "City Clinic") || !strings.Contains(html, "2026-0007") {
		t.Errorf("fragment missing content: %s", html)
	}
}
