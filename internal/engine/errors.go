package engine

import (
	"errors"
	"fmt"
)

// Error is a rejected call. A rejected call never changes state: the round
// cursor, registry and deposit ledger are exactly as before the call,
// including any rollover the call evaluated along the way.
//
// Error carries a stable Code for callers and a human-readable Message.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (expected vs actual values).
	Details map[string]string
}

// ErrorCode categorizes rejected calls.
type ErrorCode string

const (
	// ErrUnauthorized: caller lacks the role required by an admin entry point.
	ErrUnauthorized ErrorCode = "Unauthorized"

	// ErrNotConfigured: auction used before parameters were ever set.
	ErrNotConfigured ErrorCode = "AuctionNotConfigured"

	// ErrPaused: bid attempted while paused.
	ErrPaused ErrorCode = "AuctionPaused"

	// ErrInvalidRound: expected round differs from the post-rollover round.
	ErrInvalidRound ErrorCode = "InvalidRound"

	// ErrIdentifierUnavailable: identifier already owned, or reserved and not whitelisted.
	ErrIdentifierUnavailable ErrorCode = "IdentifierUnavailable"

	// ErrInsufficientIncrement: offer below the required minimum.
	ErrInsufficientIncrement ErrorCode = "InsufficientIncrement"

	// ErrCollateralMismatch: attached value differs from the exact required amount.
	ErrCollateralMismatch ErrorCode = "CollateralMismatch"

	// ErrNotExpired: endRound before the scheduled end.
	ErrNotExpired ErrorCode = "AuctionNotExpired"

	// ErrNoBalance: withdraw with nothing withdrawable.
	ErrNoBalance ErrorCode = "NoWithdrawableBalance"

	// ErrInvalidParameters: parameters outside protocol bounds.
	ErrInvalidParameters ErrorCode = "InvalidParameters"

	// ErrTransferFailed: the value transfer for a withdraw reported failure.
	ErrTransferFailed ErrorCode = "TransferFailed"

	// ErrUnknownOperation: a call named an entry point that does not exist.
	ErrUnknownOperation ErrorCode = "UnknownOperation"

	// ErrInvalidCaller: a call carried the none address as its caller.
	ErrInvalidCaller ErrorCode = "InvalidCaller"

	// ErrTimeRegression: call time is earlier than the last committed call.
	ErrTimeRegression ErrorCode = "TimeRegression"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// newError creates an Error with a formatted message.
func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// withDetail attaches a key/value pair and returns e for chaining.
func (e *Error) withDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the error code, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRejection reports whether err is a rejected call rather than an
// infrastructure failure (store, context).
func IsRejection(err error) bool {
	return CodeOf(err) != ""
}
