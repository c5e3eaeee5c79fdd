package day

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "midday utc",
			in:   time.Date(2024, 3, 10, 13, 45, 0, 0, time.UTC),
			want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "already midnight",
			in:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "local calendar date is kept",
			in:   time.Date(2024, 3, 10, 1, 0, 0, 0, msk),
			want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(Truncate(tt.in)))
		})
	}
}

func TestParseAndFormat(t *testing.T) {
	got, err := Parse("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", Format(got))

	_, err = Parse("29-02-2024")
	assert.Error(t, err)
}

func TestElapsed_TableTests(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		want int
	}{
		{name: "same instant", from: now, want: 0},
		{name: "exactly seven days", from: now.Add(-7 * 24 * time.Hour), want: 7},
		{name: "six days 23 hours floors down", from: now.Add(-(6*24 + 23) * time.Hour), want: 6},
		{name: "eight days", from: now.AddDate(0, 0, -8), want: 8},
		{name: "future registration clamps to zero", from: now.Add(48 * time.Hour), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Elapsed(tt.from, now))
		})
	}
}

func TestWindow(t *testing.T) {
	end := time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)

	got := Window(end, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-02-29", Format(got[0]))
	assert.Equal(t, "2024-03-01", Format(got[1]))
	assert.Equal(t, "2024-03-02", Format(got[2]))

	assert.Nil(t, Window(end, 0))
}

func TestBack(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-28", Format(Back(start, 2)))
}
