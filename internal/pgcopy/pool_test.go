package pgcopy

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsStartupErrorNil(t *testing.T) {
	assert.False(t, isStartupError(nil))
}

func TestIsStartupErrorMatches(t *testing.T) {
	assert.True(t, isStartupError(errors.New("dial tcp: connection refused")))
	assert.True(t, isStartupError(errors.New("FATAL: the database system is starting up")))
	assert.True(t, isStartupError(errors.New("could not connect to server")))
	assert.True(t, isStartupError(errors.New("unexpected EOF")))
}

func TestIsStartupErrorDoesNotMatchOtherErrors(t *testing.T) {
	assert.False(t, isStartupError(errors.New("password authentication failed for user \"musicbrainz\"")))
	assert.False(t, isStartupError(errors.New("relation \"artist\" does not exist")))
}
