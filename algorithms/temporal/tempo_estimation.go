package temporal

import (
	"math"

	"github.com/PetertheMD/nautune-sub004/algorithms/common"
)

const (
	// Autocorrelation lags are searched across this tempo range
	tempoSearchHighBPM = 200.0
	tempoSearchLowBPM  = 60.0

	// Estimates are clamped to the playable range before being reported
	tempoClampLowBPM  = 70.0
	tempoClampHighBPM = 180.0

	// fallbackTempoBPM is used when the flux carries no periodicity at all
	fallbackTempoBPM = 120.0
)

// TempoEstimation estimates tempo from a spectral flux series by scoring the
// autocorrelation of the mean-subtracted flux at beat-period lags.
type TempoEstimation struct{}

// NewTempoEstimation creates a new tempo estimator
func NewTempoEstimation() *TempoEstimation {
	return &TempoEstimation{}
}

// EstimateFromFlux returns the tempo in BPM for a flux series sampled at the
// analyzer's hop resolution. When no lag scores positive the fallback tempo
// is assumed. The result always lies within the clamp range.
func (te *TempoEstimation) EstimateFromFlux(flux []float64, sampleRate, hopSize int) float64 {
	if len(flux) == 0 || sampleRate <= 0 || hopSize <= 0 {
		return fallbackTempoBPM
	}

	// Mean-subtract so sustained flux does not bias the correlation
	mean := common.Mean(flux)
	diff := make([]float64, len(flux))
	for i, v := range flux {
		diff[i] = v - mean
	}

	minLag := lagForBPM(tempoSearchHighBPM, sampleRate, hopSize)
	maxLag := lagForBPM(tempoSearchLowBPM, sampleRate, hopSize)
	if minLag < 1 {
		minLag = 1
	}

	// Score each candidate beat period by the mean lagged product. Ties go
	// to the shorter lag because the scan ascends.
	bestScore := 0.0
	bestLag := 0

	for lag := minLag; lag <= maxLag; lag++ {
		n := len(diff) - lag
		if n <= 0 {
			break
		}

		sum := 0.0
		for i := 0; i < n; i++ {
			sum += diff[i] * diff[i+lag]
		}
		score := sum / float64(n)

		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag == 0 {
		bestLag = lagForBPM(fallbackTempoBPM, sampleRate, hopSize)
	}
	if bestLag < 1 {
		bestLag = 1
	}

	msPerFrame := float64(hopSize) * 1000.0 / float64(sampleRate)
	bpm := 60000.0 / (float64(bestLag) * msPerFrame)

	return common.Clamp(bpm, tempoClampLowBPM, tempoClampHighBPM)
}

// lagForBPM converts a tempo to its beat period in flux frames
func lagForBPM(bpm float64, sampleRate, hopSize int) int {
	return int(math.Round(60.0 / bpm * float64(sampleRate) / float64(hopSize)))
}
