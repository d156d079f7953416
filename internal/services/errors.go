package services

import "errors"

var (
	// ErrNotFound means the requested identity or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials means the password did not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken means the username already exists in the user table.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrMissingFields means a required input was blank.
	ErrMissingFields = errors.New("missing required fields")
	// ErrUserNotFound is the recovery flow's unknown-user signal.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoQuestionConfigured means the user never set a security question.
	ErrNoQuestionConfigured = errors.New("no security question configured")
	// ErrIncorrectAnswer means the security answer did not match.
	ErrIncorrectAnswer = errors.New("incorrect security answer")
	// ErrForbidden means the acting principal lacks the required role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidRole means an unknown role name was requested.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidStatus means an unknown order status was requested.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidInput covers domain validation failures not tied to a blank field.
	ErrInvalidInput = errors.New("invalid input")
)
