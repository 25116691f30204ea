package services

import "errors"

var (
	// ErrValidation reports input that violates a field constraint.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials reports an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDisabled reports an account that may not authenticate.
	ErrDisabled = errors.New("account disabled")

	// ErrStorageDisabled reports that no object storage backend is configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
)
