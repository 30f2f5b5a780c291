package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an error with the HTTP status and user-facing message it is
// answered with. Sentinels below are matched with errors.Is, including
// copies derived from them with Wrap and the With* helpers.
type Error struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`

	kind *Error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the same sentinel as e or the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.kind != nil && e.kind == t)
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	c := e.derive()
	c.Err = err
	return c
}

// WithMessage returns a copy of e with a different user-facing message.
func (e *Error) WithMessage(msg string) *Error {
	c := e.derive()
	c.Message = msg
	return c
}

// WithCode returns a copy of e answered with a different HTTP status.
func (e *Error) WithCode(code int) *Error {
	c := e.derive()
	c.Code = code
	return c
}

// WithDetail returns a copy of e with one more detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	c := e.derive()
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	c.Details = details
	return c
}

func (e *Error) derive() *Error {
	c := *e
	if c.kind == nil {
		c.kind = e
	}
	return &c
}

func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

var (
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden      = New(http.StatusForbidden, "You do not have permission for this action", nil)
	ErrNotFound       = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)

	ErrValidation   = New(http.StatusBadRequest, "Invalid request body", nil)
	ErrInvalidInput = New(http.StatusBadRequest, "Invalid input", nil)
)

// Session errors
var (
	ErrInvalidCredentials = New(http.StatusUnauthorized, "Invalid email or password", nil)
	ErrTokenExpired       = New(http.StatusUnauthorized, "Session expired, please log in again", nil)
)

// Backend error types
var (
	ErrUnreachable = New(http.StatusServiceUnavailable, "Cannot connect to the server. Check that the backend is running.", nil)
	ErrUpstream    = New(http.StatusBadGateway, "Upstream request failed", nil)
)

// Cart and checkout errors
var (
	ErrInsufficientStock  = New(http.StatusConflict, "Insufficient stock", nil)
	ErrEmptyCart          = New(http.StatusBadRequest, "The cart is empty", nil)
	ErrSubmissionFailed   = New(http.StatusUnprocessableEntity, "Error processing sale", nil)
	ErrCheckoutInProgress = New(http.StatusConflict, "A sale is already being processed", nil)
	ErrCashierUnresolved  = New(http.StatusForbidden, "Cashier identity could not be resolved", nil)
)

// InsufficientStock reports how many units of a product can still be requested.
func InsufficientStock(productID int64, available int) *Error {
	return ErrInsufficientStock.
		WithMessage(fmt.Sprintf("Insufficient stock. Only %d available.", available)).
		WithDetail("product_id", productID).
		WithDetail("available", available)
}

// From converts any error into an *Error, defaulting to ErrInternalServer.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.Wrap(err)
}

// Respond aborts the gin request with err rendered as JSON.
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	c.AbortWithStatusJSON(appErr.Code, appErr)
}

// ErrorMiddleware renders the last error attached to the gin context.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := From(c.Errors.Last().Err)
			c.JSON(appErr.Code, appErr)
			c.Abort()
		}
	}
}
