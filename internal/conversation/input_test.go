package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	valid := map[string]time.Time{
		"05.03.2025":   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		"5.3.2025":     time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		" 31.12.2024 ": time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		"29.02.2024":   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range valid {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "2025-03-05", "32.01.2025", "29.02.2025", "05/03/2025", "5.3.25", "today"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrBadDate, in)
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, m)

	h, m, err = ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	h, m, err = ParseClock("9:5")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	for _, in := range []string{"25:99", "24:00", "12:60", "12", "noon", "123:00", "12:345", "-1:30", "12:30pm", ""} {
		_, _, err := ParseClock(in)
		assert.ErrorIs(t, err, ErrBadTime, in)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1.5":  90 * time.Minute,
		"1,5":  90 * time.Minute,
		"0":    0,
		"2":    2 * time.Hour,
		"0.25": 15 * time.Minute,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"-1", "abc", "", "NaN", "Inf", "1e9", "1e1", "0x1p1", "+2", "1.", ".5", "1_0", "1.5.2"} {
		_, err := ParseDuration(in)
		assert.ErrorIs(t, err, ErrBadDuration, in)
	}
}

func TestAtAndDescription(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	date := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	got := At(date, 10, 15, loc)
	assert.Equal(t, "2025-03-05T10:15:00+03:00", got.Format(time.RFC3339))

	assert.Equal(t, "", Description(" - "))
	assert.Equal(t, "room 5", Description("room 5"))
}
