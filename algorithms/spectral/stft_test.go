package spectral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/PetertheMD/nautune-sub004/algorithms/windowing"
)

func TestNumFrames(t *testing.T) {
	cases := []struct {
		name       string
		signalLen  int
		windowSize int
		hopSize    int
		want       int
	}{
		{"one second", 44100, 1024, 512, 85},
		{"two windows", 2048, 1024, 512, 3},
		{"exactly one window", 1024, 1024, 512, 1},
		{"shorter than window", 1023, 1024, 512, 0},
		{"empty", 0, 1024, 512, 0},
		{"no overlap", 4096, 1024, 1024, 4},
		{"zero hop", 4096, 1024, 0, 0},
	}

	for _, tc := range cases {
		if got := NumFrames(tc.signalLen, tc.windowSize, tc.hopSize); got != tc.want {
			t.Errorf("%s: expected %d frames, got %d", tc.name, tc.want, got)
		}
	}
}

func TestFreqToBin(t *testing.T) {
	// 44100/1024 gives 43.07 Hz per bin
	cases := []struct {
		freq float64
		want int
	}{
		{0, 0},
		{60, 1},
		{250, 6},
		{2000, 46},
		{5000, 116},
		{22050, 512},
	}

	for _, tc := range cases {
		if got := FreqToBin(tc.freq, 44100, 1024); got != tc.want {
			t.Errorf("FreqToBin(%.0f): expected bin %d, got %d", tc.freq, tc.want, got)
		}
	}
}

func TestSTFTShape(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	signal := make([]float64, 44100)
	for i := range signal {
		signal[i] = rng.Float64()*2 - 1
	}

	stft := NewSTFT()
	window := windowing.NewHann(1024, true)

	result, err := stft.ComputeWithWindow(signal, 1024, 512, 44100, window)
	if err != nil {
		t.Fatalf("ComputeWithWindow failed: %v", err)
	}

	if result.TimeFrames != 85 {
		t.Errorf("Expected 85 frames, got %d", result.TimeFrames)
	}
	if result.FreqBins != 512 {
		t.Errorf("Expected 512 bins, got %d", result.FreqBins)
	}
	if len(result.Magnitude) != 85 {
		t.Fatalf("Expected 85 magnitude rows, got %d", len(result.Magnitude))
	}
	for frame := range result.Magnitude {
		if len(result.Magnitude[frame]) != 512 {
			t.Fatalf("Frame %d: expected 512 bins, got %d", frame, len(result.Magnitude[frame]))
		}
	}
	if math.Abs(result.FreqResolution-43.066) > 0.01 {
		t.Errorf("Expected ~43.07 Hz resolution, got %f", result.FreqResolution)
	}
}

func TestSTFTSinePeakBin(t *testing.T) {
	sampleRate := 44100
	windowSize := 1024
	targetBin := 64
	freq := float64(targetBin) * float64(sampleRate) / float64(windowSize)

	signal := make([]float64, 4096)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}

	stft := NewSTFT()
	window := windowing.NewHann(windowSize, true)

	result, err := stft.ComputeWithWindow(signal, windowSize, 512, sampleRate, window)
	if err != nil {
		t.Fatalf("ComputeWithWindow failed: %v", err)
	}

	for frame := 0; frame < result.TimeFrames; frame++ {
		peakBin := 0
		peakMag := 0.0
		for bin, mag := range result.Magnitude[frame] {
			if mag > peakMag {
				peakMag = mag
				peakBin = bin
			}
		}
		if peakBin != targetBin {
			t.Errorf("Frame %d: expected peak at bin %d, got %d", frame, targetBin, peakBin)
		}
	}
}

func TestFramesMatchesCompute(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	signal := make([]float64, 8192)
	for i := range signal {
		signal[i] = rng.Float64()*2 - 1
	}

	stft := NewSTFT()
	window := windowing.NewHann(1024, true)

	parallel, err := stft.ComputeWithWindow(signal, 1024, 512, 44100, window)
	if err != nil {
		t.Fatalf("ComputeWithWindow failed: %v", err)
	}

	var streamed [][]float64
	err = stft.Frames(signal, 1024, 512, window, func(frameIdx int, magnitude []float64) {
		frame := make([]float64, len(magnitude))
		copy(frame, magnitude)
		streamed = append(streamed, frame)
	})
	if err != nil {
		t.Fatalf("Frames failed: %v", err)
	}

	if len(streamed) != parallel.TimeFrames {
		t.Fatalf("Expected %d streamed frames, got %d", parallel.TimeFrames, len(streamed))
	}

	for f := range streamed {
		for b := range streamed[f] {
			if math.Abs(streamed[f][b]-parallel.Magnitude[f][b]) > 1e-9 {
				t.Fatalf("Frame %d bin %d: streamed %f, parallel %f",
					f, b, streamed[f][b], parallel.Magnitude[f][b])
			}
		}
	}
}

func TestSTFTInvalidInput(t *testing.T) {
	stft := NewSTFT()

	if _, err := stft.ComputeWithWindow(nil, 1024, 512, 44100, nil); err == nil {
		t.Error("Expected error for empty signal")
	}
	if _, err := stft.ComputeWithWindow(make([]float64, 512), 1024, 512, 44100, nil); err == nil {
		t.Error("Expected error for signal shorter than window")
	}
	if _, err := stft.ComputeWithWindow(make([]float64, 2048), 0, 512, 44100, nil); err == nil {
		t.Error("Expected error for zero window size")
	}
	if _, err := stft.ComputeWithWindow(make([]float64, 2048), 1024, 0, 44100, nil); err == nil {
		t.Error("Expected error for zero hop size")
	}

	err := stft.Frames(make([]float64, 100), 1024, 512, nil, func(int, []float64) {})
	if err == nil {
		t.Error("Expected error for signal shorter than window")
	}
}
