package errx

import (
	"errors"
	"fmt"
)

const (
	// RedisErrorMessage is the safe message for Redis failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is the safe message for missing Redis keys.
	RedisNotFoundMessage = "redis key not found"
	// PostgresErrorMessage is the safe message for Postgres failures.
	PostgresErrorMessage = "postgres operation failed"
	// PostgresNotFoundMessage is the safe message for missing rows.
	PostgresNotFoundMessage = "postgres row not found"
)

// AppError carries an HTTP status and a message safe to return to clients
// alongside the underlying error.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func New(err error, status int, message string) *AppError {
	return &AppError{Err: err, Status: status, Message: message}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches either the AppError itself or anything in the wrapped chain.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
