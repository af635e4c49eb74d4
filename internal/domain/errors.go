package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthenticated is returned when a request carries no live session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrForbidden is returned when the caller's role or identity may not perform the action.
	ErrForbidden = errors.New("permission denied")
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsernameTaken is returned on registration with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrSubjectAlreadySet is returned when a teacher tries to change an assigned subject.
	ErrSubjectAlreadySet = errors.New("subject already set")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotificationNotFound indicates no pending exchange has the given id.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrNotificationPending is returned when dismissing an exchange that still awaits a teacher.
	ErrNotificationPending = errors.New("notification is still pending teacher review")
	// ErrNoTeacherForSubject is returned when no teacher teaches the requested subject.
	ErrNoTeacherForSubject = errors.New("no teacher for subject")
	// ErrInsufficientPoints is returned when the balance does not cover the exchange.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrSessionNotFound is returned by session stores for unknown or expired tokens.
	ErrSessionNotFound = errors.New("session not found")
)

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err *ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}

// FieldMap flattens field errors for JSON responses.
func (err *ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// Validator accumulates field errors while checking input.
type Validator struct {
	fields []FieldError
}

// Check records msg against field when ok is false.
func (v *Validator) Check(ok bool, field, msg string) {
	if !ok {
		v.fields = append(v.fields, FieldError{Field: field, Error: msg})
	}
}

// Err returns a *ValidationError when any check failed, nil otherwise.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
