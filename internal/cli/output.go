package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/kelriclink/VideoTranSrt/internal/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progress callback: a bar on terminals, log lines otherwise
func newProgress(w io.Writer) pipeline.ProgressFunc {
	if jsonOutput || verbose || !isTerminal(w) {
		return func(stage pipeline.Stage, fraction float64, message string) {
			logger.Infow("Progress",
				"stage", stage,
				"percent", int(fraction*100),
				"message", message,
			)
		}
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription(string(pipeline.StageInit)),
	)
	return func(stage pipeline.Stage, fraction float64, message string) {
		bar.Describe(fmt.Sprintf("%-18s", stage))
		_ = bar.Set(int(fraction * 100))
		if stage == pipeline.StageDone || stage == pipeline.StageFailed {
			_ = bar.Finish()
		}
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// one row per run
func resultsTable(results []*pipeline.Result) string {
	headers := []string{"Input", "Output", "Segments", "Size", "Fallbacks", "Time", "Status"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := "OK"
		if !res.Success {
			status = "FAILED: " + res.ErrorMessage
		}
		rows = append(rows, []string{
			filepath.Base(res.InputPath),
			res.OutputPath,
			strconv.Itoa(res.Segments),
			humanize.Bytes(uint64(res.OutputBytes)),
			fallbacksLabel(res),
			res.ProcessingTime.Round(time.Millisecond).String(),
			status,
		})
	}
	return renderTable(headers, rows, aligns)
}

// key/value summary of a single run
func resultSummary(res *pipeline.Result) string {
	rows := [][]string{
		{"Run", res.RunID},
		{"Output", res.OutputPath},
		{"Format", string(res.Format)},
		{"Segments", strconv.Itoa(res.Segments)},
		{"Size", humanize.Bytes(uint64(res.OutputBytes))},
	}
	if t := res.Transcription; t != nil {
		rows = append(rows,
			[]string{"Language", t.Language},
			[]string{"Audio", t.Duration.Round(time.Second).String()},
		)
	}
	if tr := res.Translation; tr != nil {
		rows = append(rows,
			[]string{"Translator", tr.Translator},
			[]string{"Target", tr.TargetLanguage},
			[]string{"Fallbacks", fallbacksLabel(res)},
		)
	}
	rows = append(rows, []string{"Time", res.ProcessingTime.Round(time.Millisecond).String()})
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func fallbacksLabel(res *pipeline.Result) string {
	if res.Translation == nil {
		return "-"
	}
	return humanize.Comma(int64(res.Translation.Fallbacks))
}
