package errx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

// WrapPostgres converts a pgx error into an AppError. Missing rows map to
// 404, everything else to 502.
func WrapPostgres(err error) *AppError {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return New(err, http.StatusNotFound, PostgresNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, PostgresErrorMessage)
}

// WrapRedis converts a go-redis error into an AppError in the same way,
// with redis.Nil treated as not found.
func WrapRedis(err error) *AppError {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}
