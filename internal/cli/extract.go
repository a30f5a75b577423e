package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kelriclink/VideoTranSrt/internal/audio"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [media_file]",
	Short: "Extract audio from a video file",
	Long: `Extract the audio track from a video file and save it as a separate audio file.

Supports multiple output formats: wav, mp3, aac, flac.

Examples:
  videotransrt extract video.mp4
  videotransrt extract video.mp4 -o audio.mp3 -f mp3
  videotransrt extract video.mp4 --format wav --sample-rate 44100 --channels 2`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var validAudioFormats = map[string]bool{
	"wav":  true,
	"mp3":  true,
	"aac":  true,
	"flac": true,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		StringP("format", "f", "wav", "Output audio format (wav, mp3, aac, flac)")
	extractCmd.Flags().
		IntP("sample-rate", "r", 16000, "Sample rate in Hz (e.g., 16000, 44100, 48000)")
	extractCmd.Flags().
		Int("channels", 1, "Number of audio channels (1=mono, 2=stereo)")
	extractCmd.Flags().
		StringP("bitrate", "b", "", "Bitrate for lossy formats (e.g., 128k, 320k)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]

	format, _ := cmd.Flags().GetString("format")
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	channels, _ := cmd.Flags().GetInt("channels")
	bitrate, _ := cmd.Flags().GetString("bitrate")
	outputPath, _ := cmd.Flags().GetString("output")

	format = strings.ToLower(strings.TrimSpace(format))
	if !validAudioFormats[format] {
		return fmt.Errorf(
			"invalid format %q: supported formats are wav, mp3, aac, flac",
			format,
		)
	}
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("sample rate and channels must be positive")
	}

	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(mediaPath), audio.OutputName(mediaPath, format))
	}
	if filepath.Clean(outputPath) == filepath.Clean(mediaPath) {
		return fmt.Errorf("output path %s would overwrite the input", outputPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Infow("Extracting audio",
		"input", mediaPath,
		"output", outputPath,
		"format", format,
		"sample_rate", sampleRate,
		"channels", channels,
	)

	extractor := audio.NewExtractor(cfg.Locator(logger), audio.Options{
		Format:     format,
		SampleRate: sampleRate,
		Channels:   channels,
		Bitrate:    bitrate,
	}, logger)

	ctx := context.Background()
	if err := extractor.ExtractTo(ctx, mediaPath, outputPath); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]string{"output_path": absOutput})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Audio extracted successfully: %s\n", absOutput)

	return nil
}
