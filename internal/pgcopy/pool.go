package pgcopy

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// maxStartupAttempts bounds the retry loop in OpenPool; Postgres is
// frequently still accepting connections but not yet past recovery right
// after the bootstrap step finishes its DDL pass.
const maxStartupAttempts = 5

// OpenPool opens a pgxpool.Pool against connString, retrying a handful
// of times on a startup-shaped connection error before giving up. This
// mirrors the teacher's OpenMySQLAsTarget retry loop, generalized from a
// MySQL-specific handshake error to Postgres's connection-refused/
// starting-up class of errors.
func OpenPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	var lastErr error
	for attempt := 1; attempt <= maxStartupAttempts; attempt++ {
		pool, err := pgxpool.New(ctx, connString)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				return pool, nil
			} else {
				pool.Close()
				err = pingErr
			}
		}
		lastErr = err
		if !isStartupError(err) {
			return nil, errors.Wrap(err, "opening postgres pool")
		}
		log.WithFields(log.Fields{"attempt": attempt}).WithError(err).
			Warn("postgres not ready yet, retrying")
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "opening postgres pool")
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, errors.Wrapf(lastErr, "postgres did not become ready after %d attempts", maxStartupAttempts)
}

// isStartupError reports whether err looks like Postgres is still coming
// up, rather than a permanent configuration problem worth failing fast on.
func isStartupError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, sub := range []string{
		"connection refused",
		"the database system is starting up",
		"could not connect",
		"EOF",
	} {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
