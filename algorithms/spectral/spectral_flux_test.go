package spectral

import (
	"math"
	"testing"
)

func testBandLimits() BandLimits {
	return BandLimits{SubBassMax: 60, BassMax: 250, LowMidMax: 2000, HighMidMax: 5000}
}

func TestSpectralFluxFirstFrame(t *testing.T) {
	sf := NewSpectralFlux(44100, 1024, 3, testBandLimits())

	magnitude := make([]float64, 512)
	magnitude[10] = 1.0

	total, bands := sf.Process(magnitude)
	if total != 0 {
		t.Errorf("Expected zero flux on first frame, got %f", total)
	}
	for b, v := range bands {
		if v != 0 {
			t.Errorf("Band %d: expected zero flux on first frame, got %f", b, v)
		}
	}
}

func TestSpectralFluxSilence(t *testing.T) {
	sf := NewSpectralFlux(44100, 1024, 3, testBandLimits())

	silent := make([]float64, 512)
	for n := 0; n < 5; n++ {
		total, bands := sf.Process(silent)
		if total != 0 {
			t.Errorf("Expected zero flux for silence, got %f", total)
		}
		for b, v := range bands {
			if v != 0 {
				t.Errorf("Band %d: expected zero flux for silence, got %f", b, v)
			}
		}
	}
}

func TestSpectralFluxBurst(t *testing.T) {
	sf := NewSpectralFlux(44100, 1024, 3, testBandLimits())

	sf.Process(make([]float64, 512))

	burst := make([]float64, 512)
	burst[20] = 1.0

	total, bands := sf.Process(burst)

	// ln(1 + 1e-10) - ln(1e-10)
	expected := math.Log(1e10 + 1)
	if math.Abs(total-expected) > 1e-6 {
		t.Errorf("Expected flux %f, got %f", expected, total)
	}

	// bin 20 sits around 861 Hz, inside the low-mid band
	if math.Abs(bands[2]-expected) > 1e-6 {
		t.Errorf("Expected low-mid flux %f, got %f", expected, bands[2])
	}
	for _, b := range []int{0, 1, 3, 4} {
		if bands[b] != 0 {
			t.Errorf("Band %d: expected zero flux, got %f", b, bands[b])
		}
	}
}

func TestSpectralFluxDecayIgnored(t *testing.T) {
	sf := NewSpectralFlux(44100, 1024, 3, testBandLimits())

	loud := make([]float64, 512)
	loud[20] = 1.0
	sf.Process(loud)

	total, bands := sf.Process(make([]float64, 512))
	if total != 0 {
		t.Errorf("Expected zero flux for decaying spectrum, got %f", total)
	}
	if bands[2] != 0 {
		t.Errorf("Expected zero band flux for decaying spectrum, got %f", bands[2])
	}
}

func TestSpectralFluxBandBuckets(t *testing.T) {
	// At 44100/1024 the band edges land on bins 1, 6, 46 and 116
	sf := NewSpectralFlux(44100, 1024, 3, testBandLimits())

	sf.Process(make([]float64, 512))

	burst := make([]float64, 512)
	for _, bin := range []int{0, 3, 20, 60, 200} {
		burst[bin] = 1.0
	}

	_, bands := sf.Process(burst)

	expected := math.Log(1e10 + 1)
	for b, v := range bands {
		if math.Abs(v-expected) > 1e-6 {
			t.Errorf("Band %d: expected %f, got %f", b, expected, v)
		}
	}
}

func TestSpectralFluxTrajectorySuppression(t *testing.T) {
	// A tone wobbling between adjacent bins retriggers a 1-frame
	// reference but not a 2-frame one
	tone := func(bin int) []float64 {
		magnitude := make([]float64, 512)
		magnitude[bin] = 1.0
		return magnitude
	}
	frames := [][]float64{tone(10), tone(11), tone(10), tone(11)}

	narrow := NewSpectralFlux(44100, 1024, 1, testBandLimits())
	wide := NewSpectralFlux(44100, 1024, 2, testBandLimits())

	var narrowTotals, wideTotals []float64
	for _, frame := range frames {
		n, _ := narrow.Process(frame)
		w, _ := wide.Process(frame)
		narrowTotals = append(narrowTotals, n)
		wideTotals = append(wideTotals, w)
	}

	if narrowTotals[2] < 20 {
		t.Errorf("Expected 1-frame reference to retrigger on wobble, got %f", narrowTotals[2])
	}
	if wideTotals[2] > 1e-6 || wideTotals[3] > 1e-6 {
		t.Errorf("Expected 2-frame reference to suppress wobble, got %f and %f",
			wideTotals[2], wideTotals[3])
	}
}

func TestSpectralFluxReset(t *testing.T) {
	sf := NewSpectralFlux(44100, 1024, 3, testBandLimits())

	sf.Process(make([]float64, 512))

	burst := make([]float64, 512)
	burst[10] = 1.0
	total, _ := sf.Process(burst)
	if total == 0 {
		t.Fatal("Expected nonzero flux before reset")
	}

	sf.Reset()

	total, _ = sf.Process(burst)
	if total != 0 {
		t.Errorf("Expected zero flux on first frame after reset, got %f", total)
	}
}
