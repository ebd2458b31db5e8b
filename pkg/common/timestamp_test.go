package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2024-01-25T21:00:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, 21, ts.Hour())
	assert.Equal(t, "2024-01-25T21:00:00-05:00", FormatTimestamp(ts))

	ts, err = ParseTimestamp("2024-01-15T10:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T10:30:00Z", FormatTimestamp(ts))

	ts, err = ParseTimestamp("2024-01-15T10:30:00.250")
	require.NoError(t, err)
	assert.Equal(t, 10, ts.Hour())

	_, err = ParseTimestamp("2024-01-15")
	assert.Error(t, err)
	_, err = ParseTimestamp("")
	assert.Error(t, err)
}
