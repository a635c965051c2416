package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "ten digits assumed domestic", input: "5551234567", want: "+15551234567"},
		{name: "formatted domestic", input: "(555) 123-4567", want: "+15551234567"},
		{name: "eleven digits with US country code", input: "15551234567", want: "+15551234567"},
		{name: "already prefixed", input: "+15551234567", want: "+15551234567"},
		{name: "philippine mobile", input: "639171234567", want: "+639171234567"},
		{name: "uk number", input: "442071838750", want: "+442071838750"},
		{name: "empty", input: "", wantErr: true},
		{name: "no digits at all", input: "call me", wantErr: true},
		{name: "too short", input: "555123", wantErr: true},
		{name: "nine digits", input: "555123456", wantErr: true},
		{name: "eleven digits with unknown prefix", input: "99912345678", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhoneNumber(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPhoneNumber)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhoneNumber_TenDigitsAlwaysDomestic(t *testing.T) {
	// Exactly ten digits is always treated as domestic, even when the
	// leading digits collide with a foreign country code.
	got, err := NormalizePhoneNumber("6312345678")
	require.NoError(t, err)
	assert.Equal(t, "+16312345678", got)
}
