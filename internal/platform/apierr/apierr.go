package apierr

import (
	"fmt"
	"net/http"

	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromFault maps the domain fault taxonomy onto HTTP statuses. The domain
// contract is the typed failure; the status is purely a transport concern.
func FromFault(err error) *Error {
	if err == nil {
		return nil
	}
	code := string(faults.ReasonOf(err))
	if code == "" {
		code = string(faults.CodeOf(err))
	}
	switch faults.CodeOf(err) {
	case faults.CodeNotFound:
		return New(http.StatusNotFound, code, err)
	case faults.CodeConflict, faults.CodeInvariantViolation:
		return New(http.StatusConflict, code, err)
	case faults.CodeValidation:
		return New(http.StatusBadRequest, code, err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
