package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{
			name:     "zero",
			duration: 0,
			expected: "0:00",
		},
		{
			name:     "seconds only",
			duration: 42 * time.Second,
			expected: "0:42",
		},
		{
			name:     "minutes and seconds",
			duration: 3*time.Minute + 5*time.Second,
			expected: "3:05",
		},
		{
			name:     "just below one hour",
			duration: 59*time.Minute + 59*time.Second,
			expected: "59:59",
		},
		{
			name:     "one hour",
			duration: time.Hour,
			expected: "1:00:00",
		},
		{
			name:     "hours minutes seconds",
			duration: 2*time.Hour + 7*time.Minute + 9*time.Second,
			expected: "2:07:09",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.duration))
		})
	}
}

func TestTrack_HasDuration(t *testing.T) {
	known := Track{Title: "song", Duration: 3 * time.Minute}
	unknown := Track{Title: "live stream"}

	assert.True(t, known.HasDuration())
	assert.False(t, unknown.HasDuration())
}
