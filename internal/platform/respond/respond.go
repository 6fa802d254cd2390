// Package respond defines the JSON envelope every action answers with.
//
// Success:  {"success": true,  "data": <payload>}
// Failure:  {"success": false, "data": {"message": "...", "debug": <input>}}
//
// The debug field carries the offending input back to the caller and is only
// attached when the server runs with DEBUG_MODE enabled.
package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the outer shape of every action response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// Failure is the data payload of an error envelope.
type Failure struct {
	Message string      `json:"message"`
	Debug   interface{} `json:"debug,omitempty"`
}

// OK writes a success envelope with status 200.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a success envelope with status 201.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Fail writes a failure envelope with the given status and message.
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Data: Failure{Message: message}})
}

// FailDebug writes a failure envelope carrying the offending input. Callers
// pass debug only when debug mode is on; a nil debug is equivalent to Fail.
func FailDebug(c echo.Context, status int, message string, debug interface{}) error {
	return c.JSON(status, Envelope{Success: false, Data: Failure{Message: message, Debug: debug}})
}

// NotFound is shorthand for a 404 failure envelope.
func NotFound(c echo.Context, message string) error {
	return Fail(c, http.StatusNotFound, message)
}

// Forbidden is shorthand for a 403 failure envelope.
func Forbidden(c echo.Context, message string) error {
	return Fail(c, http.StatusForbidden, message)
}

// Unauthorized is shorthand for a 401 failure envelope.
func Unauthorized(c echo.Context, message string) error {
	return Fail(c, http.StatusUnauthorized, message)
}
