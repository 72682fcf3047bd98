package spectral

import (
	"math"

	"github.com/PetertheMD/nautune-sub004/algorithms/common"
)

// NumFluxBands is the number of frequency bands tracked by the band flux
// computation: sub-bass, bass, low-mid, high-mid and treble.
const NumFluxBands = 5

// fluxLogFloor keeps ln() defined on silent bins
const fluxLogFloor = 1e-10

// BandLimits defines the upper frequency bound in Hz of the first four flux
// bands. The treble band covers everything above HighMidMax up to Nyquist.
type BandLimits struct {
	SubBassMax float64 `json:"sub_bass_max"`
	BassMax    float64 `json:"bass_max"`
	LowMidMax  float64 `json:"low_mid_max"`
	HighMidMax float64 `json:"high_mid_max"`
}

// SpectralFlux computes onset-strength signals from a stream of magnitude
// spectra: a SuperFlux-style total flux that compares each bin against its
// maximum over the last maxFilterSize frames, and a per-band flux from plain
// consecutive-frame differences. Only positive changes count; the first frame
// of a stream yields zeros.
//
// The instance carries the sliding log-magnitude history between calls, so it
// is not safe for concurrent use. Create one per analysis run.
type SpectralFlux struct {
	maxFilterSize int
	numBins       int
	binBand       []int
	history       *common.FrameRing
	logMag        []float64
	refMax        []float64
}

// NewSpectralFlux creates a flux calculator for spectra of windowSize/2 bins.
// Band boundaries are converted to bin indices at the analyzer's resolution.
func NewSpectralFlux(sampleRate, windowSize, maxFilterSize int, bands BandLimits) *SpectralFlux {
	numBins := windowSize / 2
	if maxFilterSize < 1 {
		maxFilterSize = 1
	}

	sf := &SpectralFlux{
		maxFilterSize: maxFilterSize,
		numBins:       numBins,
		binBand:       make([]int, numBins),
		history:       common.NewFrameRing(maxFilterSize, numBins),
		logMag:        make([]float64, numBins),
		refMax:        make([]float64, numBins),
	}

	edges := [NumFluxBands - 1]int{
		FreqToBin(bands.SubBassMax, sampleRate, windowSize),
		FreqToBin(bands.BassMax, sampleRate, windowSize),
		FreqToBin(bands.LowMidMax, sampleRate, windowSize),
		FreqToBin(bands.HighMidMax, sampleRate, windowSize),
	}

	for bin := range sf.binBand {
		band := NumFluxBands - 1
		for b, edge := range edges {
			if bin < edge {
				band = b
				break
			}
		}
		sf.binBand[bin] = band
	}

	return sf
}

// Process consumes the next magnitude frame and returns the total SuperFlux
// value along with the per-band flux vector for that frame.
func (sf *SpectralFlux) Process(magnitude []float64) (float64, [NumFluxBands]float64) {
	var bands [NumFluxBands]float64

	n := min(len(magnitude), sf.numBins)
	for i := 0; i < n; i++ {
		sf.logMag[i] = math.Log(magnitude[i] + fluxLogFloor)
	}

	total := 0.0
	if sf.history.Len() > 0 {
		// Reference is the per-bin maximum over the stored history, not
		// just the previous frame
		sf.history.MaxInto(sf.refMax)
		for i := 0; i < n; i++ {
			if diff := sf.logMag[i] - sf.refMax[i]; diff > 0 {
				total += diff
			}
		}

		prev := sf.history.Latest()
		for i := 0; i < n; i++ {
			if diff := sf.logMag[i] - prev[i]; diff > 0 {
				bands[sf.binBand[i]] += diff
			}
		}
	}

	sf.history.Push(sf.logMag)

	return total, bands
}

// Reset clears the frame history so the instance can start a new stream
func (sf *SpectralFlux) Reset() {
	sf.history.Reset()
}
