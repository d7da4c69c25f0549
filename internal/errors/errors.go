package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error for callers that map errors to transport codes.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindIllegalState
	KindInsufficientFunds
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindIllegalState:
		return "illegal_state"
	case KindInsufficientFunds:
		return "insufficient_funds"
	default:
		return "internal"
	}
}

// Error is the typed error returned by the card and transfer services.
// Two errors are considered equal by errors.Is when their codes match.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	// ErrSameAccount is returned when source and destination card are the same.
	ErrSameAccount = newError(KindInvalidInput, "SAME_ACCOUNT", "cannot transfer to the same card")
	// ErrInvalidAmount is returned when a transfer amount is not positive.
	ErrInvalidAmount = newError(KindInvalidInput, "INVALID_AMOUNT", "amount must be greater than zero")
	// ErrCardNotFound is returned when a card number does not resolve.
	ErrCardNotFound = newError(KindNotFound, "CARD_NOT_FOUND", "card not found")
	// ErrEntityNotFound is returned when an entity id does not resolve.
	ErrEntityNotFound = newError(KindNotFound, "NOT_FOUND", "entity not found")
	// ErrInvalidStatus is returned for a status value that cannot be requested.
	ErrInvalidStatus = newError(KindInvalidInput, "INVALID_STATUS", "invalid status")
	// ErrIllegalTransition is returned when a status change is not allowed.
	ErrIllegalTransition = newError(KindIllegalState, "ILLEGAL_TRANSITION", "illegal status transition")
	// ErrExpiredCardTransition is returned when the status of an expired card is changed.
	ErrExpiredCardTransition = newError(KindIllegalState, "ILLEGAL_TRANSITION", "cannot change status of an expired card")
	// ErrIllegalState is returned when an operation is not allowed in the card's current state.
	ErrIllegalState = newError(KindIllegalState, "ILLEGAL_STATE", "operation not allowed in current state")
	// ErrBlockedCardBalance is returned when reading the balance of a blocked card.
	ErrBlockedCardBalance = newError(KindIllegalState, "ILLEGAL_STATE", "card is blocked")
	// ErrExpiredCardBalance is returned when reading the balance of an expired card.
	ErrExpiredCardBalance = newError(KindIllegalState, "ILLEGAL_STATE", "card is expired")
	// ErrCardNotActive is returned when a transfer touches a card that is not active.
	ErrCardNotActive = newError(KindIllegalState, "CARD_NOT_ACTIVE", "card is not active")
	// ErrInsufficientFunds is returned when the source balance is below the amount.
	ErrInsufficientFunds = newError(KindInsufficientFunds, "INSUFFICIENT_FUNDS", "insufficient funds")
	// ErrCardNumberTaken is returned when a card number is already in use.
	ErrCardNumberTaken = newError(KindInvalidInput, "CARD_NUMBER_TAKEN", "card number already exists")
	// ErrInvalidCard is returned when card data fails validation.
	ErrInvalidCard = newError(KindInvalidInput, "INVALID_CARD", "invalid card")
	// ErrInternal is returned for storage and other unexpected failures.
	ErrInternal = newError(KindInternal, "INTERNAL_ERROR", "internal server error")
)

// CardNotFound reports that the card playing role ("source", "destination") does not exist.
func CardNotFound(role, number string) *Error {
	msg := fmt.Sprintf("card not found: %s", number)
	if role != "" {
		msg = fmt.Sprintf("%s card not found: %s", role, number)
	}
	return newError(KindNotFound, ErrCardNotFound.Code, msg)
}

// EntityNotFound reports a missing entity by id.
func EntityNotFound(entity string, id any) *Error {
	return newError(KindNotFound, ErrEntityNotFound.Code, fmt.Sprintf("%s not found: %v", entity, id))
}

// InvalidStatus reports a status value that may not be requested.
func InvalidStatus(value string) *Error {
	return newError(KindInvalidInput, ErrInvalidStatus.Code, fmt.Sprintf("invalid status: %q", value))
}

// StatusUnchanged reports a status change to the card's current status.
func StatusUnchanged(status string) *Error {
	return newError(KindIllegalState, ErrIllegalTransition.Code, fmt.Sprintf("card already has this status: %s", status))
}

// InsufficientFunds reports a debit larger than the available balance.
func InsufficientFunds(number, balance, amount string) *Error {
	return newError(KindInsufficientFunds, ErrInsufficientFunds.Code,
		fmt.Sprintf("insufficient funds on card %s: balance %s, requested %s", number, balance, amount))
}

// CardNotActive reports a transfer party that is not active.
func CardNotActive(number, status string) *Error {
	return newError(KindIllegalState, ErrCardNotActive.Code, fmt.Sprintf("card %s is not active: %s", number, status))
}

// InvalidCard reports card data that failed validation.
func InvalidCard(reason string) *Error {
	return newError(KindInvalidInput, ErrInvalidCard.Code, "invalid card: "+reason)
}

// Internal wraps an unexpected failure of op.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Code: ErrInternal.Code, Message: op, Err: err}
}

// Classify returns err unchanged when it already is a typed error, otherwise
// wraps it as an internal failure of op.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(op, err)
}

// KindOf returns the kind of err, KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Internal failures never
// expose their cause.
func MapErrorToHTTP(err error) *HTTPError {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Message, ErrInternal.Code)
	}
	switch e.Kind {
	case KindNotFound:
		return NewHTTPError(http.StatusNotFound, e.Message, e.Code)
	default:
		return NewHTTPError(http.StatusBadRequest, e.Message, e.Code)
	}
}
