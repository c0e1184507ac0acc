package service

import "errors"

// Errors returned by the services; handlers map them to HTTP statuses.
var (
	ErrContractNotFound   = errors.New("contract not found")
	ErrCreatorNotFound    = errors.New("creator not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadySigned      = errors.New("contract already signed")
	ErrNotDraft           = errors.New("contract is not a draft")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrInvalidStatus      = errors.New("invalid status")
)
