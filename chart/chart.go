// Package chart turns decoded audio into playable rhythm game charts.
// The pipeline runs spectral analysis over the waveform, detects onsets
// in the spectral flux, estimates tempo, and quantizes the detected
// onsets onto a beat grid across five lanes.
package chart

import (
	"fmt"
	"math"

	"github.com/PetertheMD/nautune-sub004/algorithms/spectral"
	"github.com/PetertheMD/nautune-sub004/algorithms/temporal"
	"github.com/PetertheMD/nautune-sub004/algorithms/windowing"
	"github.com/PetertheMD/nautune-sub004/logging"
)

// Note is a single playable event
type Note struct {
	TimestampMs int `json:"timestamp_ms"`
	Lane        int `json:"lane"`
}

// Chart is the generated note chart for one piece of audio
type Chart struct {
	Notes      []Note  `json:"notes"`
	BPM        float64 `json:"bpm"`
	SampleRate int     `json:"sample_rate"`
	Frames     int     `json:"frames"`
	DurationMs int     `json:"duration_ms"`
}

// Onset is an accepted onset candidate together with the spectral
// features lane assignment needs
type Onset struct {
	Frame    int
	TimeMs   int
	BandFlux [spectral.NumFluxBands]float64
	Centroid float64
}

// Generator runs the full chart generation pipeline
type Generator struct {
	config *Config
	stft   *spectral.STFT
	tempo  *temporal.TempoEstimation
	onsets *temporal.OnsetDetection
	logger logging.Logger
}

// NewGenerator creates a chart generator. A nil config selects defaults.
func NewGenerator(config *Config) *Generator {
	if config == nil {
		config = DefaultConfig()
	}

	logger := logging.WithFields(logging.Fields{
		"component": "chart_generator",
	})

	return &Generator{
		config: config,
		stft:   spectral.NewSTFT(),
		tempo:  temporal.NewTempoEstimation(),
		onsets: temporal.NewOnsetDetection(temporal.PeakPickConfig{
			MaxFilterSize:   config.MaxFilterSize,
			AvgFilterPast:   config.AvgFilterPast,
			AvgFilterFuture: config.AvgFilterFuture,
			Threshold:       config.Threshold,
			MinOnsetGapMs:   config.MinOnsetGapMs,
		}),
		logger: logger,
	}
}

// Generate analyzes mono PCM samples and produces a chart. Inputs too
// short to analyze and inputs without detectable onsets yield an empty
// chart at the fallback tempo rather than an error.
func (g *Generator) Generate(samples []float64) (*Chart, error) {
	logger := g.logger.WithFields(logging.Fields{
		"function": "Generate",
		"samples":  len(samples),
	})

	if err := g.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chart config: %w", err)
	}

	sr := g.config.SampleRate
	durationMs := int(math.Round(float64(len(samples)) * 1000.0 / float64(sr)))

	// The flux needs at least two frames to difference
	if len(samples) < 2*g.config.WindowSize {
		logger.Debug("Input too short for analysis, returning empty chart")
		return g.emptyChart(durationMs, 0), nil
	}

	numFrames := spectral.NumFrames(len(samples), g.config.WindowSize, g.config.HopSize)

	window := windowing.NewHann(g.config.WindowSize, true)
	flux := spectral.NewSpectralFlux(sr, g.config.WindowSize, g.config.MaxFilterSize, spectral.BandLimits{
		SubBassMax: g.config.SubBassMaxFreq,
		BassMax:    g.config.BassMaxFreq,
		LowMidMax:  g.config.LowMidMaxFreq,
		HighMidMax: g.config.HighMidMaxFreq,
	})
	centroid := spectral.NewSpectralCentroid(sr)

	fluxSeries := make([]float64, 0, numFrames)
	bandSeries := make([][spectral.NumFluxBands]float64, 0, numFrames)
	centroids := make([]float64, 0, numFrames)

	err := g.stft.Frames(samples, g.config.WindowSize, g.config.HopSize, window,
		func(frameIdx int, magnitude []float64) {
			total, bands := flux.Process(magnitude)
			fluxSeries = append(fluxSeries, total)
			bandSeries = append(bandSeries, bands)
			centroids = append(centroids, centroid.Compute(magnitude))
		})
	if err != nil {
		return nil, fmt.Errorf("spectral analysis failed: %w", err)
	}

	logger.Debug("Spectral analysis completed", logging.Fields{
		"frames": len(fluxSeries),
	})

	bpm := g.tempo.EstimateFromFlux(fluxSeries, sr, g.config.HopSize)
	onsetFrames := g.onsets.DetectOnsets(fluxSeries, sr, g.config.HopSize)

	logger.Debug("Onset detection completed", logging.Fields{
		"onsets": len(onsetFrames),
		"bpm":    bpm,
	})

	onsets := make([]Onset, len(onsetFrames))
	for i, frame := range onsetFrames {
		onsets[i] = Onset{
			Frame:    frame,
			TimeMs:   frameToMs(frame, g.config.HopSize, sr),
			BandFlux: bandSeries[frame],
			Centroid: centroids[frame],
		}
	}

	notes := assembleNotes(onsets, bpm, g.config.MaxNotes)
	if len(notes) == 0 {
		logger.Debug("No onsets detected, returning empty chart")
		return g.emptyChart(durationMs, numFrames), nil
	}

	logger.Debug("Chart assembled", logging.Fields{
		"notes": len(notes),
		"bpm":   bpm,
	})

	return &Chart{
		Notes:      notes,
		BPM:        bpm,
		SampleRate: sr,
		Frames:     numFrames,
		DurationMs: durationMs,
	}, nil
}

// emptyChart is the "no chart" result: no notes at the fallback tempo
func (g *Generator) emptyChart(durationMs, frames int) *Chart {
	return &Chart{
		Notes:      []Note{},
		BPM:        fallbackBPM,
		SampleRate: g.config.SampleRate,
		Frames:     frames,
		DurationMs: durationMs,
	}
}
