package replication

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixUTCOffset(t *testing.T) {
	assert.Equal(t, "2024-03-01 17:00:02.123456+00:00", fixUTCOffset("2024-03-01 17:00:02.123456+00"))
	assert.Equal(t, "2024-03-01 17:00:02.123456-00:00", fixUTCOffset("2024-03-01 17:00:02.123456-00"))
	assert.Equal(t, "2024-03-01 17:00:02.123456-05:00", fixUTCOffset("2024-03-01 17:00:02.123456-05:00"))
}

func TestReadTimestampPlusZero(t *testing.T) {
	ts, err := readTimestamp(strings.NewReader("2024-03-01 17:00:02.123456+00"))
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 17, ts.Hour())
	assert.Equal(t, 2, ts.Second())
}

func TestReadTimestampExplicitOffset(t *testing.T) {
	ts, err := readTimestamp(strings.NewReader("2024-03-01 09:00:00-05:00"))
	require.NoError(t, err)
	assert.Equal(t, 9, ts.Hour())
}

func TestReadTimestampMalformed(t *testing.T) {
	_, err := readTimestamp(strings.NewReader("not-a-timestamp"))
	assert.Error(t, err)
}
