package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-sobriety/internal/engine"
)

func TestParseStart_TableDriven(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{"ISO8601 Standard", "2024-10-25", time.Date(2024, 10, 25, 0, 0, 0, 0, loc), false},
		{"Basic Format", "20241025", time.Date(2024, 10, 25, 0, 0, 0, 0, loc), false},
		{"Date and time", "2024-10-25T21:30", time.Date(2024, 10, 25, 21, 30, 0, 0, loc), false},
		{"Date and time with seconds", "2024-10-25T21:30:15", time.Date(2024, 10, 25, 21, 30, 15, 0, loc), false},
		{"Space separated", "2024-10-25 21:30", time.Date(2024, 10, 25, 21, 30, 0, 0, loc), false},
		{"RFC3339 keeps its offset", "2024-10-25T21:30:00Z", time.Date(2024, 10, 25, 21, 30, 0, 0, time.UTC), false},
		{"Surrounding whitespace", "  2024-10-25 ", time.Date(2024, 10, 25, 0, 0, 0, 0, loc), false},
		{"Garbage Data", "not-a-date", time.Time{}, true},
		{"Empty Date", "", time.Time{}, true},
		{"Invalid day", "2025-02-30", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ParseStart(tt.value, loc)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, engine.ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseStart_NilLocationUsesLocal(t *testing.T) {
	got, err := engine.ParseStart("2024-01-02", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Local, got.Location())
}
