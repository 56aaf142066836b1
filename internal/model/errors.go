package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameNotActive  = errors.New("game is not active")
	ErrPlayerNotFound = errors.New("player not found")

	// ErrCodeSpaceExhausted means no unused join code was found within the retry budget
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique game code")
)

// GameNotFoundError reports the code that was looked up.
// It matches ErrGameNotFound with errors.Is.
type GameNotFoundError struct {
	Code GameCode
}

func (e *GameNotFoundError) Error() string {
	return fmt.Sprintf("game not found with code: %s", e.Code)
}

func (e *GameNotFoundError) Is(target error) bool {
	return target == ErrGameNotFound
}

// NewGameNotFoundError creates a GameNotFoundError for code
func NewGameNotFoundError(code GameCode) error {
	return &GameNotFoundError{Code: code}
}
