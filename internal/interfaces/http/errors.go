package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-intake/internal/application/expenseform"
	"github.com/garyjia/expense-intake/internal/application/service"
	domainwf "github.com/garyjia/expense-intake/internal/domain/workflow"
	"github.com/garyjia/expense-intake/internal/payee"
	"github.com/garyjia/expense-intake/internal/validation"
)

// ErrorResponse is the body of failed requests
type ErrorResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error"`
	Errors  *validation.Errors `json:"errors,omitempty"`
}

var statusByError = []struct {
	err    error
	status int
}{
	{service.ErrSessionNotFound, http.StatusNotFound},
	{expenseform.ErrItemNotFound, http.StatusNotFound},
	{expenseform.ErrSubmissionInFlight, http.StatusConflict},
	{payee.ErrStaleSearch, http.StatusConflict},
	{expenseform.ErrSessionClosed, http.StatusConflict},
	{domainwf.ErrInvalidTransition, http.StatusConflict},
	{expenseform.ErrStepIncomplete, http.StatusUnprocessableEntity},
	{domainwf.ErrGuardFailed, http.StatusUnprocessableEntity},
	{expenseform.ErrTypeLocked, http.StatusBadRequest},
	{expenseform.ErrIncompatiblePayee, http.StatusBadRequest},
	{expenseform.ErrPayoutMethodLocked, http.StatusBadRequest},
	{expenseform.ErrFieldNotSupported, http.StatusBadRequest},
	{expenseform.ErrInvalidCurrency, http.StatusBadRequest},
	{expenseform.ErrUnknownAction, http.StatusBadRequest},
}

// statusFor maps an application error to an HTTP status
func statusFor(err error) int {
	var invalid *validation.Error
	if errors.As(err, &invalid) {
		return http.StatusUnprocessableEntity
	}
	var rejected *expenseform.SubmissionError
	if errors.As(err, &rejected) {
		return http.StatusBadGateway
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Validation errors carry
// the error tree; submission errors carry the platform message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := ErrorResponse{Success: false, Error: err.Error()}

	var invalid *validation.Error
	var rejected *expenseform.SubmissionError
	switch {
	case errors.As(err, &invalid):
		body.Errors = invalid.Errors
	case errors.As(err, &rejected):
		body.Error = rejected.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, body)
}
