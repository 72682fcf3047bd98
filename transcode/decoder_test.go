package transcode

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDecoderConfig(t *testing.T) {
	cfg := DefaultDecoderConfig()

	assert.Equal(t, 44100, cfg.TargetSampleRate)
	assert.Equal(t, 1, cfg.TargetChannels)
	assert.Equal(t, "s16le", cfg.OutputFormat)
	assert.Equal(t, "medium", cfg.ResampleQuality)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestBytesToFloat64(t *testing.T) {
	d := NewDecoder(nil)

	// 0, -32768 and 32767 as little-endian int16
	data := []byte{0x00, 0x00, 0x00, 0x80, 0xFF, 0x7F}
	samples := d.bytesToFloat64(data)
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.0, samples[0], 1e-12)
	assert.InDelta(t, -1.0, samples[1], 1e-12)
	assert.InDelta(t, 32767.0/32768.0, samples[2], 1e-12)
}

func TestBytesToFloat64OddLength(t *testing.T) {
	d := NewDecoder(nil)

	// The trailing odd byte is trimmed
	samples := d.bytesToFloat64([]byte{0x00, 0x40, 0xFF})
	require.Len(t, samples, 1)
	assert.InDelta(t, 0.5, samples[0], 1e-12)

	assert.Nil(t, d.bytesToFloat64([]byte{0xFF}))
	assert.Nil(t, d.bytesToFloat64(nil))
}

func TestParseFFprobeOutput(t *testing.T) {
	d := NewDecoder(nil)

	jsonData := []byte(`{
		"streams": [{
			"codec_type": "audio",
			"codec_name": "mp3",
			"sample_rate": "44100",
			"channels": 2,
			"duration": "180.5",
			"bit_rate": "320000",
			"codec_long_name": "MP3 (MPEG audio layer 3)"
		}]
	}`)

	metadata, err := d.parseFFprobeOutput(jsonData)
	require.NoError(t, err)
	assert.Equal(t, 44100, metadata.SampleRate)
	assert.Equal(t, 2, metadata.Channels)
	assert.Equal(t, "mp3", metadata.Codec)
	assert.InDelta(t, 180.5, metadata.Duration, 1e-9)
	assert.Equal(t, 320000, metadata.Bitrate)
}

func TestParseFFprobeOutputErrors(t *testing.T) {
	d := NewDecoder(nil)

	_, err := d.parseFFprobeOutput([]byte(`not json`))
	assert.Error(t, err)

	_, err = d.parseFFprobeOutput([]byte(`{"streams": []}`))
	assert.Error(t, err)

	_, err = d.parseFFprobeOutput([]byte(`{"streams": [{"codec_type": "video", "channels": 1}]}`))
	assert.Error(t, err)

	// Channel counts outside 1..8 are rejected
	_, err = d.parseFFprobeOutput([]byte(`{"streams": [{"codec_type": "audio", "channels": 0}]}`))
	assert.Error(t, err)
}

func TestParseFFprobeOutputFallbacks(t *testing.T) {
	d := NewDecoder(nil)

	// Missing sample rate falls back to 44100, missing duration and
	// bitrate to zero
	metadata, err := d.parseFFprobeOutput([]byte(`{"streams": [{"codec_type": "audio", "channels": 1}]}`))
	require.NoError(t, err)
	assert.Equal(t, 44100, metadata.SampleRate)
	assert.Equal(t, 0.0, metadata.Duration)
	assert.Equal(t, 0, metadata.Bitrate)
}

func TestBuildFFmpegArgs(t *testing.T) {
	d := NewDecoder(nil)

	args := d.buildFFmpegArgs(&AudioMetadata{SampleRate: 48000, Channels: 2})
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-f s16le")
	assert.Contains(t, joined, "-ac 1")
	assert.Contains(t, joined, "-ar 44100")
	assert.Contains(t, joined, "soxr:precision=20", "medium quality resample")
	assert.Contains(t, joined, "-v error")
}

func TestBuildFFmpegArgsNoResample(t *testing.T) {
	d := NewDecoder(nil)

	// Input already at the target rate needs no resample filter
	args := d.buildFFmpegArgs(&AudioMetadata{SampleRate: 44100, Channels: 2})
	assert.NotContains(t, strings.Join(args, " "), "aresample")
}

func TestBuildFFmpegArgsMaxDuration(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.MaxDuration = 90 * time.Second
	d := NewDecoder(cfg)

	args := d.buildFFmpegArgs(&AudioMetadata{SampleRate: 44100, Channels: 2})
	assert.Contains(t, strings.Join(args, " "), "-t 90.00")
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = 0
	assert.Error(t, NewDecoder(cfg).ValidateConfig())

	cfg = DefaultDecoderConfig()
	cfg.TargetChannels = 9
	assert.Error(t, NewDecoder(cfg).ValidateConfig())

	cfg = DefaultDecoderConfig()
	cfg.Timeout = 0
	assert.Error(t, NewDecoder(cfg).ValidateConfig())
}

func TestDecoderAccessors(t *testing.T) {
	d := NewDecoder(nil)

	formats := d.GetSupportedFormats()
	assert.Contains(t, formats, "wav")
	assert.Contains(t, formats, "mp3")
	assert.Contains(t, formats, "flac")

	cfg := d.GetConfig()
	assert.Equal(t, 44100, cfg["target_sample_rate"])
	assert.Equal(t, "s16le", cfg["output_format"])

	assert.NoError(t, d.Close())
}
