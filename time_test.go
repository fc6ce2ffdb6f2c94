package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	tests := []struct {
		name    string
		at      time.Time
		pattern string
		want    bool
		wantErr bool
	}{
		{
			name:    "Recent timestamp is within window",
			at:      time.Now().Add(-time.Minute),
			pattern: "24h",
			want:    true,
		},
		{
			name:    "Old timestamp is outside window",
			at:      time.Now().Add(-48 * time.Hour),
			pattern: "24h",
			want:    false,
		},
		{
			name:    "Bad pattern",
			at:      time.Now(),
			pattern: "fortnight",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := accounts.IsWithinThresholdPeriod(tt.at, tt.pattern)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	outside, err := accounts.IsOutsideThresholdPeriod(time.Now().Add(-48*time.Hour), "24h")
	assert.NoError(t, err)
	assert.True(t, outside)

	outside, err = accounts.IsOutsideThresholdPeriod(time.Now(), "24h")
	assert.NoError(t, err)
	assert.False(t, outside)
}
