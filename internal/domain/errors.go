package domain

import "errors"

// ErrorKind classifies domain errors for callers
type ErrorKind int

const (
	// KindInternal covers store and queue failures. Details are never shown to callers.
	KindInternal ErrorKind = iota
	// KindNotFound means the entity is absent or not owned by the caller
	KindNotFound
	// KindInvalidInput means a malformed request field
	KindInvalidInput
	// KindInvalidState means the operation is not valid for the current lifecycle state
	KindInvalidState
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "internal"
	}
}

// Error is a caller-visible domain error
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

const (
	codeNotFound   = "NOT_FOUND_ERROR"
	codeBadRequest = "BAD_REQUEST_ERROR"
)

// Common domain errors
var (
	ErrOrderNotFound    = &Error{Kind: KindNotFound, Code: codeNotFound, Message: "Order not found"}
	ErrPaymentNotFound  = &Error{Kind: KindNotFound, Code: codeNotFound, Message: "Payment not found"}
	ErrRefundNotFound   = &Error{Kind: KindNotFound, Code: codeNotFound, Message: "Refund not found"}
	ErrMerchantNotFound = &Error{Kind: KindNotFound, Code: codeNotFound, Message: "Merchant not found"}

	ErrInvalidVPA          = &Error{Kind: KindInvalidInput, Code: "INVALID_VPA", Message: "Invalid VPA"}
	ErrInvalidMethod       = &Error{Kind: KindInvalidInput, Code: codeBadRequest, Message: "Invalid payment method"}
	ErrInvalidAmount       = &Error{Kind: KindInvalidInput, Code: codeBadRequest, Message: "Amount must be at least 1"}
	ErrInvalidCurrency     = &Error{Kind: KindInvalidInput, Code: codeBadRequest, Message: "Invalid currency"}
	ErrInvalidRefundAmount = &Error{Kind: KindInvalidInput, Code: codeBadRequest, Message: "Refund amount must be positive"}

	ErrPaymentNotCapturable   = &Error{Kind: KindInvalidState, Code: codeBadRequest, Message: "Payment not in capturable state"}
	ErrPaymentAlreadyCaptured = &Error{Kind: KindInvalidState, Code: codeBadRequest, Message: "Payment already captured"}
	ErrPaymentNotRefundable   = &Error{Kind: KindInvalidState, Code: codeBadRequest, Message: "Payment not refundable"}
	ErrRefundExceedsAmount    = &Error{Kind: KindInvalidState, Code: codeBadRequest, Message: "Refund amount exceeds available amount"}
	ErrInvalidTransition      = &Error{Kind: KindInvalidState, Code: codeBadRequest, Message: "Invalid status transition"}

	// ErrIdempotencyRecordNotFound is internal to the idempotency store and never reaches callers
	ErrIdempotencyRecordNotFound = errors.New("idempotency record not found")
)

// KindOf returns the kind of err, KindInternal for anything that is not a domain error
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// AsError returns the domain error wrapped in err, if any
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
