package numeric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-02-05", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"2025/02/05", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"2025.02.05", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"05/02/2025", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"05-02-2025", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"05.02.2025", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"  2025-02-05  ", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"2025-02-05 00:00:00", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"2025-02-05T13:45:00", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date", "31/31/2025", "2025"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDate(in)
			require.Error(t, err)
		})
	}
}
