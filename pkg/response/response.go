package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes are part of the wire contract; clients branch on them.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeEmailExists          = "EMAIL_ALREADY_EXISTS"
	CodePasswordRequired     = "PASSWORD_REQUIRED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeRefreshTokenRequired = "REFRESH_TOKEN_REQUIRED"
	CodeInvalidRefreshToken  = "INVALID_REFRESH_TOKEN"
	CodeRefreshTokenReuse    = "REFRESH_TOKEN_REUSE_DETECTED"
	CodeRefreshTokenExpired  = "REFRESH_TOKEN_EXPIRED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeCSRFTokenInvalid     = "CSRF_TOKEN_INVALID"
	CodeNotFound             = "NOT_FOUND"
	CodeCannotRevokeCurrent  = "CANNOT_REVOKE_CURRENT_SESSION"
	CodeNoFile               = "NO_FILE"
	CodeInternal             = "INTERNAL_ERROR"
)

// AppError is a structured application error carrying the HTTP status and
// the wire error code.
type AppError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// Pre-defined error constructors

func NewBadRequest(code string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: code}
}

func NewUnauthorized(code string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: code}
}

func NewForbidden(code string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: code}
}

func NewNotFound() *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: CodeNotFound}
}

func NewConflict(code string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: code}
}

// --- Gin response helpers ---

// OK sends a 200 response. Extra fields are merged into the {ok:true}
// envelope.
func OK(c *gin.Context, fields gin.H) {
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Created sends a 201 response with extra fields merged into the envelope.
func Created(c *gin.Context, fields gin.H) {
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusCreated, body)
}

// Error sends an error response. If err is an *AppError its status and code
// are used; anything else is a 500 INTERNAL_ERROR (store failures land
// here, already logged by the caller).
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, gin.H{"ok": false, "error": appErr.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": CodeInternal})
}

// Fail sends an error response from a status and code without building an
// AppError first.
func Fail(c *gin.Context, status int, code string) {
	c.JSON(status, gin.H{"ok": false, "error": code})
}
