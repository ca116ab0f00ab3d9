package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToday_UsesLocation(t *testing.T) {
	bangkok, err := LoadLocation("")
	require.NoError(t, err)

	// UTC 18:30 在曼谷已是第二天
	now := time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-02", Today(now, bangkok))
	assert.Equal(t, "2024-01-01", Today(now, time.UTC))
	assert.Equal(t, "2024-01-01", Today(now, nil))
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", day)

	for _, s := range []string{"", "2024-2-1", "2023-02-29", "2024-01-01T00:00:00Z"} {
		_, err := ParseDay(s)
		assert.ErrorIs(t, err, ErrInvalidDay, s)
	}
}

func TestPreviousDay(t *testing.T) {
	prev, err := PreviousDay("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", prev)

	prev, err = PreviousDay("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", prev)

	_, err = PreviousDay("yesterday")
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestQueryInt(t *testing.T) {
	assert.Equal(t, 10, QueryInt("", 10, 100))
	assert.Equal(t, 10, QueryInt("abc", 10, 100))
	assert.Equal(t, 10, QueryInt("-3", 10, 100))
	assert.Equal(t, 25, QueryInt("25", 10, 100))
	assert.Equal(t, 100, QueryInt("500", 10, 100))
}
