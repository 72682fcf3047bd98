package transcode

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/PetertheMD/nautune-sub004/logging"
)

// DecodeWAVFile reads a PCM WAV file natively, without spawning ffmpeg.
// Multichannel audio is downmixed to mono by averaging across channels.
// No resampling happens here; callers analyze at the file's own rate.
func DecodeWAVFile(filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "wav_decoder",
		"function":  "DecodeWAVFile",
		"filename":  filename,
	})

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file: %s", filename)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read wav data: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("no audio samples in wav file")
	}

	sampleRate := int(decoder.SampleRate)
	if buf.Format != nil && buf.Format.SampleRate > 0 {
		sampleRate = buf.Format.SampleRate
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav file reports invalid sample rate: %d", sampleRate)
	}

	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}

	bitDepth := int(decoder.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	// Full-scale divisor for the source bit depth, e.g. 32768 for 16-bit
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / scale
	}

	duration := time.Duration(frames) * time.Second / time.Duration(sampleRate)

	logger.Debug("WAV decode completed", logging.Fields{
		"sample_rate": sampleRate,
		"channels":    channels,
		"bit_depth":   bitDepth,
		"frames":      frames,
		"duration":    duration.Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   duration,
		Source:     filename,
		Codec:      "wav",
	}, nil
}
