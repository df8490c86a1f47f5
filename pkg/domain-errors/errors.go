// Package domainerrors defines coded domain errors for the sale gateway.
//
// Services return these so transports can translate outcomes into status codes
// without string matching. For infrastructure facts (row missing, connection
// down) stores return pkg/platform/sentinel errors and services wrap them here.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code enumerates every failure the sale core can surface.
type Code string

const (
	CodeUnauthorized         Code = "unauthorized"
	CodeInvalidConfiguration Code = "invalid_configuration"
	CodeSaleNotStarted       Code = "sale_not_started"
	CodeSupplyExceeded       Code = "supply_exceeded"
	CodeRequestTooLarge      Code = "request_too_large"
	CodeIncorrectPayment     Code = "incorrect_payment"
	CodeBeneficiaryNotSet    Code = "beneficiary_not_set"
	CodePayoutFailed         Code = "payout_failed"
	CodeNothingToWithdraw    Code = "nothing_to_withdraw"

	CodeBadRequest Code = "bad_request"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	err     error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.Message + ": " + e.err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.err
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf extracts the outermost code, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to the HTTP status the transport layer uses.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeBadRequest, CodeInvalidConfiguration:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeSupplyExceeded, CodeSaleNotStarted, CodeNothingToWithdraw:
		return http.StatusConflict
	case CodeRequestTooLarge:
		return http.StatusUnprocessableEntity
	case CodeIncorrectPayment, CodeBeneficiaryNotSet:
		return http.StatusPaymentRequired
	case CodePayoutFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
