package ssr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssrbridge/core/ssr"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want ssr.Mode
	}{
		{"production", ssr.ModeProduction},
		{"PROD", ssr.ModeProduction},
		{" production ", ssr.ModeProduction},
		{"development", ssr.ModeDevelopment},
		{"dev", ssr.ModeDevelopment},
		{"", ssr.ModeDevelopment},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ssr.ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ssr.ParseMode("staging")
	assert.ErrorIs(t, err, ssr.ErrInvalidMode)

	assert.True(t, ssr.ModeProduction.IsProduction())
	assert.False(t, ssr.ModeDevelopment.IsProduction())
}
