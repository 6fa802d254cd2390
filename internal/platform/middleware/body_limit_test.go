package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseLimit(t *testing.T) {
	cases := map[string]int64{
		"1M":   1 << 20,
		"10M":  10 << 20,
		"512K": 512 << 10,
		"1G":   1 << 30,
		"2048": 2048,
		"":     1 << 20,
		"bad":  1 << 20,
	}
	for in, want := range cases {
		if got := parseLimit(in); got != want {
			t.Errorf("parseLimit(%q): expected %d, got %d", in, want, got)
		}
	}
}

func TestBodyLimit_RejectsByContentLength(t *testing.T) {
	e := echo.New()
	body := strings.Repeat("x", 2048)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := BodyLimit("1K", "10M")
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if err != nil {
		t.Fatalf("expected envelope response, got error: %v", err)
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}

	var envelope struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if envelope.Success {
		t.Error("expected failure envelope")
	}
}

func TestBodyLimit_EnforcesOnRead(t *testing.T) {
	e := echo.New()
	// No Content-Length so the limit is only caught while reading.
	body := strings.Repeat("x", 2048)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", io.NopCloser(bytes.NewBufferString(body)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := BodyLimit("1K", "10M")
	handler := mw(func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		return err
	})
	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", httpErr.Code)
	}
}

func TestBodyLimit_MultipartGetsUploadLimit(t *testing.T) {
	e := echo.New()
	body := strings.Repeat("x", 2048)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/encounters/1/medical-reports", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := BodyLimit("1K", "10M")
	err := mw(func(c echo.Context) error {
		if _, readErr := io.ReadAll(c.Request().Body); readErr != nil {
			return readErr
		}
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("upload within limit rejected: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBodyLimit_AllowsEmptyBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := BodyLimit("1K", "10M")
	if err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c); err != nil {
		t.Fatalf("empty body rejected: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
