package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 60.0, cfg.Matching.PrimaryThreshold)
	assert.Equal(t, 50.0, cfg.Matching.FallbackThreshold)
	assert.Equal(t, 0.5, cfg.Matching.TieEpsilon)
	assert.Equal(t, 5.0, cfg.Matching.AlignmentCap)
	assert.False(t, cfg.Verify.Enabled)
}

func TestConfigValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fallback above primary", func(c *Config) { c.Matching.FallbackThreshold = 70 }},
		{"threshold over 100", func(c *Config) { c.Matching.PrimaryThreshold = 101 }},
		{"zero workers", func(c *Config) { c.Concurrency.Workers = 0 }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "mystery" }},
		{"unknown strategy", func(c *Config) { c.Matching.Strategy = "vibes" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExtractionError_Is(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := NewExtractionError(CodeMalformedInput, "decode layout", cause)

	assert.True(t, errors.Is(err, ErrMalformedInput))
	assert.False(t, errors.Is(err, ErrEmptyInput))
	assert.True(t, errors.Is(err, cause))

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, CodeMalformedInput, extErr.Code)
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func TestBBoxUnion(t *testing.T) {
	a := BBox{Left: 100, Width: 50, PageWidth: 600}
	b := BBox{Left: 160, Width: 100}

	u := a.Union(b)
	assert.Equal(t, 100.0, u.Left)
	assert.Equal(t, 160.0, u.Width)
	assert.Equal(t, 600.0, u.PageWidth)

	assert.Equal(t, a, a.Union(BBox{}))
}
