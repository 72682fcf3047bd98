// CLI for generating rhythm game note charts from audio files.
package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/PetertheMD/nautune-sub004/chart"
	"github.com/PetertheMD/nautune-sub004/logging"
	"github.com/PetertheMD/nautune-sub004/transcode"
)

// TrackChart is the JSON sidecar written next to each analyzed file
type TrackChart struct {
	File       string       `json:"file"`
	DurationMs int          `json:"duration_ms"`
	SampleRate int          `json:"sample_rate"`
	BPM        float64      `json:"bpm"`
	Notes      []chart.Note `json:"notes"`
}

const sidecarSuffix = ".chart.json"

var rootCmd = &cobra.Command{
	Use:   "nautune-chart",
	Short: "Generate rhythm game note charts from audio",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file-or-directory>",
	Short: "Analyze audio files and write chart JSON sidecars",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		useFFmpeg, _ := cmd.Flags().GetBool("ffmpeg")
		workers, _ := cmd.Flags().GetInt("workers")
		verbose, _ := cmd.Flags().GetBool("verbose")
		noColor, _ := cmd.Flags().GetBool("no-color")

		if verbose {
			logging.SetLevel(logging.DebugLevel)
		}
		if noColor {
			logging.DisableColors()
		}

		return runAnalyze(args[0], force, useFFmpeg, workers)
	},
}

func init() {
	analyzeCmd.Flags().BoolP("force", "f", false, "Re-analyze even if a chart sidecar exists")
	analyzeCmd.Flags().Bool("ffmpeg", false, "Decode every format through ffmpeg, skipping the native readers")
	analyzeCmd.Flags().IntP("workers", "w", runtime.NumCPU(), "Number of files to analyze in parallel")
	analyzeCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	analyzeCmd.Flags().Bool("no-color", false, "Disable colored log output")
	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runAnalyze analyzes a single file or every supported file under a
// directory. Per-file failures are logged and do not stop the run.
func runAnalyze(path string, force, useFFmpeg bool, workers int) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	if !info.IsDir() {
		return analyzeFile(path, force, useFFmpeg)
	}

	files, err := collectAudioFiles(path)
	if err != nil {
		return fmt.Errorf("scan directory: %w", err)
	}
	if len(files) == 0 {
		logging.Warn("No supported audio files found", logging.Fields{"dir": path})
		return nil
	}

	if workers < 1 {
		workers = 1
	}

	logging.Info("Analyzing audio files", logging.Fields{
		"files":   len(files),
		"workers": workers,
	})

	jobs := make(chan string, len(files))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				if err := analyzeFile(file, force, useFFmpeg); err != nil {
					logging.Error(err, "Analysis failed", logging.Fields{"file": file})
				}
			}
		}()
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)
	wg.Wait()

	return nil
}

// collectAudioFiles walks a directory for files the decoders accept
func collectAudioFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if isSupportedAudio(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// supportedFormats lists the extensions the decoders accept
var supportedFormats = transcode.NewDecoder(nil).GetSupportedFormats()

// isSupportedAudio reports whether the file extension is decodable
func isSupportedAudio(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// analyzeFile generates a chart for one audio file and writes the
// sidecar next to it
func analyzeFile(path string, force, useFFmpeg bool) error {
	ext := filepath.Ext(path)
	sidecarPath := strings.TrimSuffix(path, ext) + sidecarSuffix

	if !force {
		if _, err := os.Stat(sidecarPath); err == nil {
			logging.Debug("Skipping already analyzed file", logging.Fields{"file": path})
			return nil
		}
	}

	audio, err := decodeAudio(path, useFFmpeg)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	cfg := chart.DefaultConfig()
	cfg.SampleRate = audio.SampleRate

	generator := chart.NewGenerator(cfg)
	result, err := generator.Generate(audio.PCM)
	if err != nil {
		return fmt.Errorf("generate chart for %s: %w", path, err)
	}

	sidecar := TrackChart{
		File:       filepath.Base(path),
		DurationMs: result.DurationMs,
		SampleRate: result.SampleRate,
		BPM:        result.BPM,
		Notes:      result.Notes,
	}

	data, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chart: %w", err)
	}
	if err := os.WriteFile(sidecarPath, data, 0644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}

	logging.Info("Chart written", logging.Fields{
		"file":        filepath.Base(path),
		"notes":       len(result.Notes),
		"bpm":         result.BPM,
		"duration_ms": result.DurationMs,
	})

	return nil
}

// decodeAudio picks a decoder for the file: the native WAV and MP3
// readers when possible, ffmpeg for everything else
func decodeAudio(path string, useFFmpeg bool) (*transcode.AudioData, error) {
	if useFFmpeg {
		return transcode.NewDecoder(nil).DecodeFile(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return transcode.DecodeWAVFile(path)
	case ".mp3":
		return transcode.DecodeMP3File(path)
	default:
		return transcode.NewDecoder(nil).DecodeFile(path)
	}
}
