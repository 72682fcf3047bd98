package chart

import (
	"fmt"
)

// Config holds chart generation configuration. The defaults target
// 44.1 kHz audio; when analyzing files at other rates set SampleRate
// to the decoded rate and keep the remaining fields.
type Config struct {
	SampleRate int `json:"sample_rate"`

	// Spectral analysis
	WindowSize int `json:"window_size"`
	HopSize    int `json:"hop_size"`

	// Onset detection
	MaxFilterSize   int     `json:"max_filter_size"`
	AvgFilterPast   int     `json:"avg_filter_past"`
	AvgFilterFuture int     `json:"avg_filter_future"`
	Threshold       float64 `json:"threshold"`
	MinOnsetGapMs   int     `json:"min_onset_gap_ms"`

	// Band boundaries for flux-based lane assignment
	SubBassMaxFreq float64 `json:"sub_bass_max_freq"`
	BassMaxFreq    float64 `json:"bass_max_freq"`
	LowMidMaxFreq  float64 `json:"low_mid_max_freq"`
	HighMidMaxFreq float64 `json:"high_mid_max_freq"`

	// MaxNotes caps the number of notes in a chart
	MaxNotes int `json:"max_notes"`
}

// DefaultConfig returns the default chart generation configuration
func DefaultConfig() *Config {
	return &Config{
		SampleRate:      44100,
		WindowSize:      1024,
		HopSize:         512,
		MaxFilterSize:   3,
		AvgFilterPast:   8,
		AvgFilterFuture: 4,
		Threshold:       1.5,
		MinOnsetGapMs:   100,
		SubBassMaxFreq:  60.0,
		BassMaxFreq:     250.0,
		LowMidMaxFreq:   2000.0,
		HighMidMaxFreq:  5000.0,
		MaxNotes:        3000,
	}
}

// Validate validates the chart generation configuration
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", c.SampleRate)
	}

	if c.WindowSize < 2 {
		return fmt.Errorf("window size must be at least 2: %d", c.WindowSize)
	}

	if c.WindowSize%2 != 0 {
		return fmt.Errorf("window size must be even: %d", c.WindowSize)
	}

	if c.HopSize <= 0 {
		return fmt.Errorf("hop size must be positive: %d", c.HopSize)
	}

	if c.MaxFilterSize < 1 {
		return fmt.Errorf("max filter size must be at least 1: %d", c.MaxFilterSize)
	}

	if c.AvgFilterPast < 0 || c.AvgFilterFuture < 0 {
		return fmt.Errorf("average filter spans must not be negative: past %d, future %d",
			c.AvgFilterPast, c.AvgFilterFuture)
	}

	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive: %f", c.Threshold)
	}

	if c.MinOnsetGapMs < 0 {
		return fmt.Errorf("minimum onset gap must not be negative: %d", c.MinOnsetGapMs)
	}

	if c.SubBassMaxFreq <= 0 {
		return fmt.Errorf("sub-bass band limit must be positive: %f", c.SubBassMaxFreq)
	}

	if c.BassMaxFreq <= c.SubBassMaxFreq ||
		c.LowMidMaxFreq <= c.BassMaxFreq ||
		c.HighMidMaxFreq <= c.LowMidMaxFreq {
		return fmt.Errorf("band limits must ascend: %f, %f, %f, %f",
			c.SubBassMaxFreq, c.BassMaxFreq, c.LowMidMaxFreq, c.HighMidMaxFreq)
	}

	if c.MaxNotes < 1 {
		return fmt.Errorf("max notes must be at least 1: %d", c.MaxNotes)
	}

	return nil
}
