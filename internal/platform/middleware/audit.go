package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/patientdocs/api/internal/platform/auth"
)

// AuditEntry records who touched which records, when, from where, and how the
// request ended.
type AuditEntry struct {
	UserID     int64
	Subject    string
	Admin      bool
	RecordType string
	PatientID  string
	Action     string // read, create, update, delete
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries. Tests provide a mock; the default is
// structured logging only.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit returns middleware that logs every record access under /api/v1 and
// /fragments with the authenticated identity attached. If an AuditRecorder is
// provided it is invoked as well; recorder failures are logged, never
// propagated to the caller.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !isAuditablePath(path) {
				return next(c)
			}

			// Execute the handler first so we capture the response status
			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
				Action:     httpMethodToAction(req.Method),
				RecordType: extractRecordType(path),
				PatientID:  extractPatientID(c),
			}

			if ident := auth.IdentityFromContext(req.Context()); ident != nil {
				entry.UserID = ident.UserID
				entry.Subject = ident.Subject
				entry.Admin = ident.Admin
			}

			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "record_audit").
				Str("request_id", entry.RequestID).
				Int64("user_id", entry.UserID).
				Str("subject", entry.Subject).
				Bool("admin", entry.Admin).
				Str("record_type", entry.RecordType).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

// isAuditablePath returns true if the path is under /api/v1/ or /fragments/.
func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/") || strings.HasPrefix(path, "/fragments/")
}

// httpMethodToAction maps HTTP methods to audit action names.
func httpMethodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// extractRecordType parses the record family from a URL path.
//
// Supported patterns:
//   - /api/v1/encounters       -> encounters
//   - /api/v1/encounters/123   -> encounters
//   - /fragments/patient-view  -> patient-view
func extractRecordType(path string) string {
	var segments []string
	if strings.HasPrefix(path, "/api/v1/") {
		segments = strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	} else if strings.HasPrefix(path, "/fragments/") {
		segments = strings.Split(strings.TrimPrefix(path, "/fragments/"), "/")
	}
	if len(segments) > 0 && segments[0] != "" {
		return segments[0]
	}
	return "unknown"
}

// extractPatientID attempts to find a patient identifier in the request, from
// /api/v1/patients/<id> paths or a patient_id query parameter.
func extractPatientID(c echo.Context) string {
	path := c.Request().URL.Path

	if strings.HasPrefix(path, "/api/v1/patients/") {
		segments := strings.Split(strings.TrimPrefix(path, "/api/v1/patients/"), "/")
		if len(segments) > 0 && isNumericID(segments[0]) {
			return segments[0]
		}
	}

	if patient := c.QueryParam("patient_id"); patient != "" {
		return patient
	}

	return ""
}

// isNumericID checks that a path segment is a plain integer id.
func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
