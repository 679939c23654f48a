// Package response writes the JSON bodies returned by the HTTP API.
// Resources are written as-is, errors as {"error":{"code","description"}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	CodeBadRequest     = "BAD_REQUEST_ERROR"
	CodeNotFound       = "NOT_FOUND_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorBody is the error envelope
type ErrorBody struct {
	Error ErrorData `json:"error"`
}

// ErrorData describes a failed request
type ErrorData struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// OK writes data with status 200
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes data with status 201
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Raw writes pre-serialized JSON bytes unchanged
func Raw(c *gin.Context, status int, body []byte) {
	c.Data(status, "application/json; charset=utf-8", body)
}

// Error writes an error envelope and aborts the handler chain
func Error(c *gin.Context, status int, code, description string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Error: ErrorData{Code: code, Description: description},
	})
}

// InternalError hides err from the caller. err is attached to the gin
// context so the request logger can record it.
func InternalError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	Error(c, http.StatusInternalServerError, CodeInternal, "Internal error")
}

// BadRequest writes a 400 with the generic bad request code
func BadRequest(c *gin.Context, description string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, description)
}

// NotFound writes a 404
func NotFound(c *gin.Context, description string) {
	Error(c, http.StatusNotFound, CodeNotFound, description)
}

// Unauthorized writes a 401
func Unauthorized(c *gin.Context, description string) {
	Error(c, http.StatusUnauthorized, CodeAuthentication, description)
}
