package models

import "errors"

// Application-wide standard errors
var (
	// Common resource/store errors
	ErrNotFound          = errors.New("resource not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrGameStateNotFound = errors.New("game state not found")
	ErrStoryEventNotFound = errors.New("story event not found")

	// User & authentication errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")

	// Progression errors
	ErrGenerationInProgress = errors.New("story generation already in progress for this character")

	// External generation capability failed; the underlying cause is wrapped.
	ErrExternalService = errors.New("story generation service failed")

	// General request/server errors
	ErrInternalServer = errors.New("internal server error")
	ErrInvalidInput   = errors.New("invalid input data")
)
