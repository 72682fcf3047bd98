package chart

import (
	"math"
)

// fallbackBPM is reported for charts without notes
const fallbackBPM = 120.0

// frameToMs converts a frame index to its time in milliseconds
func frameToMs(frame, hopSize, sampleRate int) int {
	return int(math.Round(float64(frame) * float64(hopSize) * 1000.0 / float64(sampleRate)))
}

// gridFromBPM returns the sixteenth-note grid spacing in whole ms for a
// tempo. Quantization stays in integer arithmetic end to end.
func gridFromBPM(bpm float64) int {
	beatIntervalMs := int(math.Round(60000.0 / bpm))
	return beatIntervalMs / 4
}

// quantizeMs snaps a timestamp to the nearest grid line
func quantizeMs(rawMs, grid int) int {
	if grid < 1 {
		return rawMs
	}
	return ((rawMs + grid/2) / grid) * grid
}

// assembleNotes turns detected onsets into the final note list: assign
// lanes, quantize timestamps to the beat grid, cap the count in onset
// order, then drop duplicate timestamps.
func assembleNotes(onsets []Onset, bpm float64, maxNotes int) []Note {
	if len(onsets) == 0 {
		return []Note{}
	}

	grid := gridFromBPM(bpm)

	notes := make([]Note, 0, min(len(onsets), maxNotes))
	for _, o := range onsets {
		if len(notes) >= maxNotes {
			break
		}
		notes = append(notes, Note{
			TimestampMs: quantizeMs(o.TimeMs, grid),
			Lane:        assignLane(o),
		})
	}

	return dedupeNotes(notes)
}

// dedupeNotes removes notes landing on an already used timestamp. Input
// arrives in onset order, so the earliest note wins.
func dedupeNotes(notes []Note) []Note {
	seen := make(map[int]struct{}, len(notes))
	result := make([]Note, 0, len(notes))

	for _, n := range notes {
		if _, ok := seen[n.TimestampMs]; ok {
			continue
		}
		seen[n.TimestampMs] = struct{}{}
		result = append(result, n)
	}

	return result
}
