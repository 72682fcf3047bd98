package common

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// MovingAverageWindow calculates a centered moving average with an asymmetric
// context of past frames behind and future frames ahead of each index. The
// window is clipped at the edges and the average taken over the samples that
// remain in range.
func MovingAverageWindow(data []float64, past, future int) []float64 {
	if len(data) == 0 {
		return data
	}
	if past < 0 {
		past = 0
	}
	if future < 0 {
		future = 0
	}

	result := make([]float64, len(data))

	for i := range data {
		start := i - past
		end := i + future + 1

		if start < 0 {
			start = 0
		}
		if end > len(data) {
			end = len(data)
		}

		result[i] = stat.Mean(data[start:end], nil)
	}

	return result
}

// MovingMax calculates a centered moving maximum over a symmetric window of
// windowSize samples, clipped at the edges.
func MovingMax(data []float64, windowSize int) []float64 {
	if len(data) == 0 || windowSize <= 0 {
		return data
	}

	result := make([]float64, len(data))
	halfWindow := windowSize / 2

	for i := range data {
		start := i - halfWindow
		end := i + halfWindow + 1

		if start < 0 {
			start = 0
		}
		if end > len(data) {
			end = len(data)
		}

		result[i] = floats.Max(data[start:end])
	}

	return result
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
