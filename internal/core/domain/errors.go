package domain

import (
	"errors"
	"fmt"
)

// Reason identifies why a well-formed request was rejected.
type Reason string

const (
	ReasonMissingFields     Reason = "missing_fields"
	ReasonUsernameTaken     Reason = "username_taken"
	ReasonEmailTaken        Reason = "email_taken"
	ReasonUsernameIncorrect Reason = "username_incorrect"
	ReasonPasswordIncorrect Reason = "password_incorrect"
	ReasonNotFound          Reason = "not_found"
	ReasonInvalidID         Reason = "invalid_id"
)

// RuleViolation is a soft failure: the request was understood but a business
// rule rejected it. Message is safe to show to clients.
type RuleViolation struct {
	Reason  Reason
	Message string
	// alias lets a violation also match another sentinel under errors.Is.
	alias *RuleViolation
}

func (e *RuleViolation) Error() string { return e.Message }

// Is reports whether target is e or the sentinel e stands in for.
func (e *RuleViolation) Is(target error) bool {
	return e.alias != nil && target == e.alias
}

var (
	ErrMissingFields     = &RuleViolation{Reason: ReasonMissingFields, Message: "Missing Required Fields!"}
	ErrUsernameTaken     = &RuleViolation{Reason: ReasonUsernameTaken, Message: "Username Already Exists!"}
	ErrEmailTaken        = &RuleViolation{Reason: ReasonEmailTaken, Message: "Email Already Exists!"}
	ErrUsernameIncorrect = &RuleViolation{Reason: ReasonUsernameIncorrect, Message: "Username Incorrect!"}
	ErrPasswordIncorrect = &RuleViolation{Reason: ReasonPasswordIncorrect, Message: "Password Incorrect!"}
	ErrUserNotFound      = &RuleViolation{Reason: ReasonNotFound, Message: "User Does Not Exists!"}

	// ErrInvalidID is returned for identifiers the store cannot parse. Clients
	// see the same message as ErrUserNotFound and errors.Is matches both.
	ErrInvalidID = &RuleViolation{Reason: ReasonInvalidID, Message: "User Does Not Exists!", alias: ErrUserNotFound}
)

// ErrStoreUnavailable marks failures to reach the record store.
var ErrStoreUnavailable = errors.New("store unavailable")

// ConflictError is returned by the store when a write violates a unique index.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique constraint violated on %s", e.Field)
}

// Unique fields guarded by store indexes.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
)

// IsRuleViolation reports whether err is a soft failure.
func IsRuleViolation(err error) bool {
	var rv *RuleViolation
	return errors.As(err, &rv)
}

// ReasonOf returns the reason carried by err, or "" when err is not a soft failure.
func ReasonOf(err error) Reason {
	var rv *RuleViolation
	if errors.As(err, &rv) {
		return rv.Reason
	}
	return ""
}
