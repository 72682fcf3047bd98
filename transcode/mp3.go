package transcode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/PetertheMD/nautune-sub004/logging"
)

// go-mp3 emits this many extra samples at the start of every stream
// compared to delay-compensating decoders.
const goMP3DecoderDelay = 924

// Default encoder delay if we can't read it from the LAME header
const defaultEncoderDelay = 576

// DecodeMP3File reads an MP3 file natively, without spawning ffmpeg. The
// stereo output of the decoder is downmixed to mono and the combined
// encoder plus decoder delay is skipped so note timestamps line up with
// the audible audio.
func DecodeMP3File(filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "mp3_decoder",
		"function":  "DecodeMP3File",
		"filename":  filename,
	})

	totalDelay := readLAMEEncoderDelay(filename) + goMP3DecoderDelay

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3 file: %w", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		return nil, fmt.Errorf("mp3 file reports invalid sample rate: %d", sampleRate)
	}

	// Decoded PCM is 16-bit stereo interleaved (4 bytes per sample pair)
	pcmData, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}

	numSamplePairs := len(pcmData) / 4
	if numSamplePairs == 0 {
		return nil, fmt.Errorf("no audio samples in mp3 file")
	}

	samples := make([]float64, numSamplePairs)
	for i := 0; i < numSamplePairs; i++ {
		offset := i * 4
		left := int16(binary.LittleEndian.Uint16(pcmData[offset:]))
		right := int16(binary.LittleEndian.Uint16(pcmData[offset+2:]))

		samples[i] = (float64(left) + float64(right)) / 2.0 / 32768.0
	}

	if len(samples) > totalDelay {
		samples = samples[totalDelay:]
	}

	duration := time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)

	logger.Debug("MP3 decode completed", logging.Fields{
		"sample_rate":   sampleRate,
		"samples":       len(samples),
		"delay_skipped": totalDelay,
		"duration":      duration.Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   duration,
		Source:     filename,
		Codec:      "mp3",
	}, nil
}

// readLAMEEncoderDelay reads the encoder delay from the LAME/Xing header
// if present. The header sits in the first frame, so scanning the first
// 4KB is enough.
func readLAMEEncoderDelay(filename string) int {
	f, err := os.Open(filename)
	if err != nil {
		return defaultEncoderDelay
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, err := f.Read(buf)
	if err != nil || n < 200 {
		return defaultEncoderDelay
	}
	buf = buf[:n]

	lameIdx := bytes.Index(buf, []byte("LAME"))
	if lameIdx == -1 {
		return defaultEncoderDelay
	}

	// At offset 21 from "LAME" sits a 3-byte field holding encoder delay
	// (12 bits) and padding (12 bits)
	delayOffset := lameIdx + 21
	if delayOffset+3 > len(buf) {
		return defaultEncoderDelay
	}

	b := buf[delayOffset : delayOffset+3]
	delay := (int(b[0]) << 4) | (int(b[1]) >> 4)

	// Sanity check, typical values are 576 to 1152
	if delay < 0 || delay > 4096 {
		return defaultEncoderDelay
	}

	return delay
}
