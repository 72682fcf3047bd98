package chart

import (
	"github.com/PetertheMD/nautune-sub004/algorithms/spectral"
)

// laneCount is the number of playable lanes, indexed 0 (lowest) to 4
const laneCount = 5

// defaultFluxLane receives onsets whose band flux carries no energy
const defaultFluxLane = 2

// bassRatioThreshold routes an onset through flux-based assignment when
// a larger share of its band flux sits in the two lowest bands
const bassRatioThreshold = 0.4

const fluxRatioEpsilon = 1e-10

// fluxLaneWeights bias the flux argmax toward the low bands, where
// percussive onsets concentrate
var fluxLaneWeights = [spectral.NumFluxBands]float64{3.0, 2.5, 2.0, 1.5, 0.5}

// pitchLaneBounds are the centroid boundaries in Hz between adjacent lanes
var pitchLaneBounds = [...]float64{150.0, 350.0, 800.0, 1500.0}

// assignLane maps an onset to a lane. Bass-heavy onsets follow the
// strongest flux band, everything else follows the spectral centroid.
func assignLane(o Onset) int {
	total := 0.0
	for _, v := range o.BandFlux {
		total += v
	}

	bassRatio := (o.BandFlux[0] + o.BandFlux[1]) / (total + fluxRatioEpsilon)
	if bassRatio > bassRatioThreshold {
		return fluxLane(o.BandFlux)
	}
	return pitchLane(o.Centroid)
}

// pitchLane buckets a spectral centroid into a lane
func pitchLane(centroidHz float64) int {
	for lane, bound := range pitchLaneBounds {
		if centroidHz < bound {
			return lane
		}
	}
	return laneCount - 1
}

// fluxLane picks the lane of the strongest weighted band. Ties go to
// the lower lane.
func fluxLane(bands [spectral.NumFluxBands]float64) int {
	lane := defaultFluxLane
	best := 0.0
	for i, v := range bands {
		if weighted := v * fluxLaneWeights[i]; weighted > best {
			best = weighted
			lane = i
		}
	}
	return lane
}
