package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Code standardizes failure semantics across the workflow and ledger domains.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
)

// Reason narrows a code down to the specific failure a caller can branch on.
type Reason string

const (
	ReasonInsufficientHeatQuantity    Reason = "insufficient_heat_quantity"
	ReasonInsufficientAvailablePieces Reason = "insufficient_available_pieces"
	ReasonInvalidStepTransition       Reason = "invalid_step_transition"
	ReasonDuplicateWorkflow           Reason = "duplicate_workflow"
	ReasonNoDefaultTemplate           Reason = "no_default_template"
	ReasonNegativeQuantity            Reason = "negative_quantity"
	ReasonTraceabilityAnchorNotFound  Reason = "traceability_anchor_not_found"
	ReasonHeatOverRelease             Reason = "heat_over_release"
	ReasonWorkflowTerminal            Reason = "workflow_terminal"
)

// Error is the canonical domain error wrapper.
type Error struct {
	Code    Code
	Reason  Reason
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a domain error with explicit code + operation.
func New(code Code, reason Reason, op, message string) error {
	return &Error{
		Code:    code,
		Reason:  reason,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
	}
}

// Wrap annotates an existing error with domain failure semantics.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: err.Error(), Cause: err}
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code Code) bool {
	var fErr *Error
	if !errors.As(err, &fErr) {
		return false
	}
	return fErr.Code == code
}

// IsReason checks whether err (or a wrapped err) carries the given reason.
func IsReason(err error, reason Reason) bool {
	var fErr *Error
	if !errors.As(err, &fErr) {
		return false
	}
	return fErr.Reason == reason
}

// CodeOf extracts the code when available.
func CodeOf(err error) Code {
	var fErr *Error
	if !errors.As(err, &fErr) {
		return ""
	}
	return fErr.Code
}

// ReasonOf extracts the reason when available.
func ReasonOf(err error) Reason {
	var fErr *Error
	if !errors.As(err, &fErr) {
		return ""
	}
	return fErr.Reason
}

func NotFound(op, what string) error {
	return New(CodeNotFound, "", op, what+" not found")
}

func Validation(op, message string) error {
	return New(CodeValidation, "", op, message)
}

func NegativeQuantity(op, message string) error {
	return New(CodeValidation, ReasonNegativeQuantity, op, message)
}

func InsufficientHeatQuantity(op string) error {
	return New(CodeConflict, ReasonInsufficientHeatQuantity, op, "insufficient heat quantity or pieces")
}

func InsufficientAvailablePieces(op string) error {
	return New(CodeConflict, ReasonInsufficientAvailablePieces, op, "insufficient available pieces")
}

func InvalidStepTransition(op, message string) error {
	return New(CodeConflict, ReasonInvalidStepTransition, op, message)
}

func DuplicateWorkflow(op string) error {
	return New(CodeConflict, ReasonDuplicateWorkflow, op, "an active workflow already exists for this item")
}

func NoDefaultTemplate(op string) error {
	return New(CodeNotFound, ReasonNoDefaultTemplate, op, "no default active workflow template for tenant")
}

func TraceabilityAnchorNotFound(op string) error {
	return New(CodeNotFound, ReasonTraceabilityAnchorNotFound, op, "traceability anchor not found")
}

func HeatOverRelease(op string) error {
	return New(CodeInvariantViolation, ReasonHeatOverRelease, op, "release would exceed original heat totals")
}
