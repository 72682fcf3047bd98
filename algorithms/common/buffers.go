package common

import "math"

// FrameRing is a fixed-capacity ring of equal-length frames for streaming
// spectral processing. Pushing beyond capacity evicts the oldest frame.
type FrameRing struct {
	frames   [][]float64
	frameLen int
	capacity int
	count    int
	head     int
}

// NewFrameRing creates a ring holding up to capacity frames of frameLen values
func NewFrameRing(capacity, frameLen int) *FrameRing {
	fr := &FrameRing{
		frames:   make([][]float64, capacity),
		frameLen: frameLen,
		capacity: capacity,
	}
	for i := range fr.frames {
		fr.frames[i] = make([]float64, frameLen)
	}
	return fr
}

// Push copies frame into the ring, evicting the oldest entry when full
func (fr *FrameRing) Push(frame []float64) {
	copy(fr.frames[fr.head], frame)
	fr.head = (fr.head + 1) % fr.capacity
	if fr.count < fr.capacity {
		fr.count++
	}
}

// Len returns the number of stored frames
func (fr *FrameRing) Len() int {
	return fr.count
}

// Capacity returns the maximum number of frames the ring can hold
func (fr *FrameRing) Capacity() int {
	return fr.capacity
}

// Latest returns the most recently pushed frame without copying.
// Returns nil when the ring is empty.
func (fr *FrameRing) Latest() []float64 {
	if fr.count == 0 {
		return nil
	}
	idx := (fr.head - 1 + fr.capacity) % fr.capacity
	return fr.frames[idx]
}

// At returns the stored frame k steps back from the newest (At(0) == Latest).
// Returns nil when k is out of range.
func (fr *FrameRing) At(k int) []float64 {
	if k < 0 || k >= fr.count {
		return nil
	}
	idx := (fr.head - 1 - k + 2*fr.capacity) % fr.capacity
	return fr.frames[idx]
}

// MaxInto writes the per-element maximum across all stored frames into dst.
// dst must have the ring's frame length. With no stored frames every element
// is -Inf.
func (fr *FrameRing) MaxInto(dst []float64) {
	for i := range dst {
		dst[i] = math.Inf(-1)
	}
	for k := 0; k < fr.count; k++ {
		frame := fr.At(k)
		for i, v := range frame {
			if v > dst[i] {
				dst[i] = v
			}
		}
	}
}

// Reset empties the ring
func (fr *FrameRing) Reset() {
	fr.head = 0
	fr.count = 0
}
