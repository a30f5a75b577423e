package cli

import (
	"fmt"
	"strings"

	"github.com/kelriclink/VideoTranSrt/internal/audio"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
	"github.com/kelriclink/VideoTranSrt/internal/translate"
	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported subtitle formats, media types and translators",
	RunE:  runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

type formatsReport struct {
	Subtitles   []subtitle.FormatInfo `json:"subtitles"`
	Media       []string              `json:"media"`
	Translators []string              `json:"translators"`
}

func runFormats(cmd *cobra.Command, args []string) error {
	report := formatsReport{
		Subtitles:   subtitle.Formats(),
		Media:       audio.SupportedExtensions(),
		Translators: translate.Types(),
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, formatsTable(report.Subtitles))
	fmt.Fprintf(out, "Media files: %s\n", strings.Join(report.Media, " "))
	fmt.Fprintf(out, "Translators: %s\n", strings.Join(report.Translators, ", "))
	return nil
}

func formatsTable(infos []subtitle.FormatInfo) string {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{string(info.Format), info.Name, info.Extension, info.MIMEType})
	}
	return renderTable([]string{"Format", "Name", "Extension", "MIME Type"}, rows, nil)
}
