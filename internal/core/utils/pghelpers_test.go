package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullStringRoundTrip(t *testing.T) {
	assert.False(t, ToNullString(nil).Valid)
	assert.Nil(t, FromNullString(ToNullString(nil)))

	s := "admin"
	got := FromNullString(ToNullString(&s))
	require.NotNil(t, got)
	assert.Equal(t, "admin", *got)
}

func TestToText(t *testing.T) {
	assert.False(t, ToText("").Valid)
	assert.True(t, ToText("x").Valid)
}

func TestSeconds(t *testing.T) {
	d := 90*time.Minute + 1500*time.Millisecond
	n := ToSeconds(&d)
	require.True(t, n.Valid)
	assert.Equal(t, int64(5401), n.Int64)
	assert.Equal(t, 5401*time.Second, *FromSeconds(n))
	assert.Nil(t, FromSeconds(ToSeconds(nil)))
}

func TestTimestamp(t *testing.T) {
	assert.Nil(t, FromTimestamp(ToTimestamp(nil)))

	now := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	got := FromTimestamp(ToTimestamp(&now))
	require.NotNil(t, got)
	assert.True(t, now.Equal(*got))
}
