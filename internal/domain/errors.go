package domain

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrInvalidTransition  = errors.New("withdrawal is not pending")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDestination = errors.New("payout method and destination are required")
	ErrInvalidAction      = errors.New("invalid action")
	ErrInvalidAdType      = errors.New("invalid ad type")
	ErrUnknownGame        = errors.New("unknown game")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrWeeklyCapExceeded  = errors.New("approval would exceed the weekly withdrawal cap")
	ErrSessionClosed      = errors.New("game session already finished")
)

// EligibilityError is returned when a withdrawal request fails one or more checks.
type EligibilityError struct {
	Violations []Violation
}

func (e *EligibilityError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "withdrawal not allowed: " + strings.Join(msgs, "; ")
}
