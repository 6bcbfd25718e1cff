// Package gameerr classifies every failure the wagering engine reports.
//
// Expected rejections are sentinel *Error values carrying a Kind and a stable
// Code; callers match them with errors.Is. Anything unclassified that escapes
// a unit of work is an integrity failure.
package gameerr

import (
	"errors"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindInvalidState      Kind = "invalid_state"
	KindConflict          Kind = "conflict"
	KindIntegrity         Kind = "integrity"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrInvalidRequest  = newErr(KindValidation, "INVALID_REQUEST", "malformed request")
	ErrInvalidAmount   = newErr(KindValidation, "INVALID_AMOUNT", "invalid wager amount")
	ErrInvalidNumbers  = newErr(KindValidation, "INVALID_NUMBERS", "invalid lottery numbers")
	ErrInvalidCall     = newErr(KindValidation, "INVALID_CALL", "call must be heads or tails")
	ErrNotFound        = newErr(KindValidation, "NOT_FOUND", "not found")
	ErrPlayerNotFound  = newErr(KindValidation, "PLAYER_NOT_FOUND", "player not found")
	ErrSelfAccept      = newErr(KindValidation, "SELF_ACCEPT", "cannot accept your own challenge")

	ErrInsufficientFunds = newErr(KindInsufficientFunds, "INSUFFICIENT_FUNDS", "insufficient funds")

	ErrGameLocked          = newErr(KindInvalidState, "GAME_LOCKED", "another session of this game is active")
	ErrInvalidState        = newErr(KindInvalidState, "INVALID_STATE", "action not allowed in the current state")
	ErrOpenChallengeExists = newErr(KindInvalidState, "OPEN_CHALLENGE_EXISTS", "you already have an open challenge")
	ErrDrawClosed          = newErr(KindInvalidState, "DRAW_CLOSED", "no draw is open for ticket sales")
	ErrDrawNotDue          = newErr(KindInvalidState, "DRAW_NOT_DUE", "draw time has not passed yet")

	ErrAlreadyAccepted  = newErr(KindConflict, "ALREADY_ACCEPTED", "challenge is no longer open")
	ErrChallengeExpired = newErr(KindConflict, "CHALLENGE_EXPIRED", "challenge has expired")
	ErrDrawResolved     = newErr(KindConflict, "DRAW_RESOLVED", "draw already resolved")
)

// KindOf classifies err. nil yields "", unclassified errors yield KindIntegrity.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindIntegrity
}

// CodeOf returns the stable code of a classified error, or "INTEGRITY".
func CodeOf(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return "INTEGRITY"
}

// Expected reports whether err is a user-facing rejection rather than a fault.
func Expected(err error) bool {
	k := KindOf(err)

	return k != "" && k != KindIntegrity
}
