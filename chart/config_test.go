package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, 1024, cfg.WindowSize)
	assert.Equal(t, 512, cfg.HopSize)
	assert.Equal(t, 3000, cfg.MaxNotes)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"tiny window", func(c *Config) { c.WindowSize = 1 }},
		{"odd window", func(c *Config) { c.WindowSize = 1023 }},
		{"zero hop", func(c *Config) { c.HopSize = 0 }},
		{"zero max filter", func(c *Config) { c.MaxFilterSize = 0 }},
		{"negative avg span", func(c *Config) { c.AvgFilterPast = -1 }},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }},
		{"negative gap", func(c *Config) { c.MinOnsetGapMs = -1 }},
		{"zero sub-bass limit", func(c *Config) { c.SubBassMaxFreq = 0 }},
		{"descending bands", func(c *Config) { c.BassMaxFreq = 50 }},
		{"zero max notes", func(c *Config) { c.MaxNotes = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
