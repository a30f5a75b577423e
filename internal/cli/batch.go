package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelriclink/VideoTranSrt/internal/audio"
)

var batchCmd = &cobra.Command{
	Use:   "batch [media_file_or_dir...]",
	Short: "Generate subtitles for many files",
	Long: `Generate subtitles for several audio or video files, one after another.

Directories are expanded to the supported media files they contain (not recursive).
A failing file is reported and the remaining files are still processed.

Examples:
  videotransrt batch a.mp4 b.mkv
  videotransrt batch ./lectures --output-dir ./subs --translate-to en`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addRunFlags(batchCmd)
	batchCmd.Flags().
		String("output-dir", "", "Directory for subtitle files (default: next to each input)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no supported media files found")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}
	controller, err := newController(ctx, cfg, cmd)
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	base := processingConfig(cmd, cfg, "", "")

	logger.Infow("Starting batch", "files", len(inputs), "output_dir", outputDir)
	start := time.Now()
	results := controller.RunBatch(ctx, base, inputs, outputDir)

	if jsonOutput {
		if err := printJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), resultsTable(results))
	}

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	if !jsonOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Processed %d files in %s (%d failed)\n", len(results), since(start), failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// expands directories to their supported media files; explicit files are
// kept as given so the pipeline reports problems with them
func collectInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", arg, err)
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(arg, entry.Name())
			if audio.IsSupportedInput(path) {
				found = append(found, path)
			}
		}
		sort.Strings(found)
		inputs = append(inputs, found...)
	}
	return inputs, nil
}
