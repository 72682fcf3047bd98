package temporal

import (
	"github.com/PetertheMD/nautune-sub004/algorithms/common"
)

// peakTolerance absorbs floating point noise when a flux value is compared
// against the moving maximum of its neighborhood.
const peakTolerance = 1e-6

// PeakPickConfig tunes the adaptive peak picking stage.
type PeakPickConfig struct {
	// MaxFilterSize is the width in frames of the moving maximum window
	MaxFilterSize int `json:"max_filter_size"`
	// AvgFilterPast and AvgFilterFuture set how many frames before and after
	// the current one contribute to the adaptive threshold baseline
	AvgFilterPast   int `json:"avg_filter_past"`
	AvgFilterFuture int `json:"avg_filter_future"`
	// Threshold is the multiplier applied to the moving average baseline
	Threshold float64 `json:"threshold"`
	// MinOnsetGapMs is the minimum spacing between accepted onsets
	MinOnsetGapMs int `json:"min_onset_gap_ms"`
}

// OnsetDetection picks onset frames out of a spectral flux series using an
// adaptive threshold (moving average) combined with a moving maximum filter,
// then enforces a minimum gap between accepted onsets.
type OnsetDetection struct {
	config PeakPickConfig
}

// NewOnsetDetection creates a new onset detector
func NewOnsetDetection(config PeakPickConfig) *OnsetDetection {
	return &OnsetDetection{config: config}
}

// DetectOnsets returns the frame indices of detected onsets in ascending
// order. A frame qualifies when its flux matches the moving maximum of its
// neighborhood and exceeds the moving average scaled by the threshold. Of
// two candidates closer than the minimum gap the earlier one wins. The
// first and last frames are never reported.
func (od *OnsetDetection) DetectOnsets(flux []float64, sampleRate, hopSize int) []int {
	if len(flux) < 3 {
		return []int{}
	}

	avg := common.MovingAverageWindow(flux, od.config.AvgFilterPast, od.config.AvgFilterFuture)
	localMax := common.MovingMax(flux, od.config.MaxFilterSize)

	minGapFrames := minGapInFrames(od.config.MinOnsetGapMs, sampleRate, hopSize)

	var onsets []int
	lastOnsetFrame := -minGapFrames // Allow first peak

	for i := 1; i < len(flux)-1; i++ {
		if flux[i] < localMax[i]-peakTolerance {
			continue
		}
		if flux[i] <= avg[i]*od.config.Threshold {
			continue
		}
		if i-lastOnsetFrame < minGapFrames {
			continue
		}
		onsets = append(onsets, i)
		lastOnsetFrame = i
	}

	if onsets == nil {
		return []int{}
	}
	return onsets
}

// minGapInFrames converts a gap in milliseconds to a frame count at the
// analyzer's hop resolution.
func minGapInFrames(gapMs, sampleRate, hopSize int) int {
	if hopSize <= 0 {
		return 1
	}
	frames := int(float64(gapMs) / 1000.0 * float64(sampleRate) / float64(hopSize))
	if frames < 1 {
		frames = 1
	}
	return frames
}
