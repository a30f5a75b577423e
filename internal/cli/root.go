package cli

import (
	"fmt"

	"github.com/kelriclink/VideoTranSrt/internal/config"
	"github.com/kelriclink/VideoTranSrt/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	jsonOutput bool
	configPath string
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "videotransrt",
	Short: "Subtitle generator and translator for audio and video files",
	Long: `VideoTranSrt extracts the audio of a media file, transcribes it,
optionally translates the transcript, and writes SRT, VTT or ASS subtitles.

Settings come from ~/.config/videotransrt/config.toml (or ./videotransrt.toml),
a .env file, and provider environment variables; flags override them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().
		BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Source language code (e.g., en, es, fr)")
}

func loadConfig() (*config.Config, error) {
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Debugw("Configuration loaded", "path", resolved, "exists", exists)
	return cfg, nil
}
