package prescription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/auth"
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

func TestHandler_AddFillsDoctorFromIdentity(t *testing.T) {
	repo := newMockRepo()
	h := newTestHandler(t, repo)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions",
		strings.NewReader(`{"encounter_id":1,"medication_name":"Amoxicillin"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithIdentity(req.Context(),
		&auth.Identity{UserID: 5, Capabilities: []string{auth.CapEdit}}))
	rec := httptest.NewRecorder()

	if err := h.add(e.NewContext(req, rec)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if repo.lines[1].DoctorID != 5 {
		t.Errorf("doctor_id = %d, want identity user id", repo.lines[1].DoctorID)
	}
}

func TestHandler_AddRejectsMissingMedication(t *testing.T) {
	h := newTestHandler(t, newMockRepo())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions",
		strings.NewReader(`{"encounter_id":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.add(e.NewContext(req, rec)); err != nil {
		t.Fatalf("add: %v", err)
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

func TestHandler_Delete_Missing(t *testing.T) {
	h := newTestHandler(t, newMockRepo())

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/prescriptions/77", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("77")

	if err := h.delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_PrintFragment(t *testing.T) {
	repo := newMockRepo()
	h := newTestHandler(t, repo)
	if err := h.svc.Add(context.Background(), &Prescription{
		EncounterID:    2,
		MedicationName: "Amoxicillin",
		Dosage:         "500mg",
		Instructions:   "after meals\navoid alcohol",
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/fragments/encounters/2/prescription-print", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("2")

	if err := h.printFragment(c); err != nil {
		t.Fatalf("printFragment: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	html := rec.Body.String()
	if !strings.Contains(html, "Alice Smith") || !strings.Contains(html, "Amoxicillin") {
		t.Errorf("fragment missing content: %s", html)
	}
	if !strings.Contains(html, "after meals<br>avoid alcohol") {
		t.Errorf("instructions not converted to line breaks: %s", html)
	}
}
