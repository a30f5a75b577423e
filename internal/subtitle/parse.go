package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// parsed subtitle file
type Document struct {
	Format   Format
	Segments []Segment
	// first style of an ASS file, nil for other formats
	Style *ASSStyle
}

var (
	cueTimingRegex = regexp.MustCompile(
		`^\s*((?:\d+:)?\d{1,2}:\d{2}[,.]\d{3})\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}[,.]\d{3})`,
	)
	assOverrideRegex = regexp.MustCompile(`\{[^}]*\}`)
)

// Open parses an SRT, VTT or ASS/SSA file chosen by extension.
func Open(path string) (*Document, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("unsupported subtitle format: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Parse(file, format)
}

func Parse(r io.Reader, format Format) (*Document, error) {
	switch format {
	case FormatSRT, FormatVTT:
		segs, err := parseCues(r)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", format, err)
		}
		return &Document{Format: format, Segments: segs}, nil
	case FormatASS:
		return parseASS(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// SRT and VTT share the block layout: optional identifier, timing line,
// then text up to a blank line. Blocks without a timing line (the WEBVTT
// header, NOTE and STYLE blocks) are skipped.
func parseCues(r io.Reader) ([]Segment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		segs    []Segment
		current *Segment
		lines   []string
		lineNum int
	)

	flush := func() {
		if current != nil && len(lines) > 0 {
			current.Text = strings.Join(lines, "\n")
			segs = append(segs, *current)
		}
		current = nil
		lines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimRight(line, "\r")

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			matches := cueTimingRegex.FindStringSubmatch(line)
			if matches == nil {
				// identifier or header line
				continue
			}
			start, err := parseClock(matches[1])
			if err != nil {
				return nil, fmt.Errorf("invalid start timestamp at line %d: %w", lineNum, err)
			}
			end, err := parseClock(matches[2])
			if err != nil {
				return nil, fmt.Errorf("invalid end timestamp at line %d: %w", lineNum, err)
			}
			current = &Segment{Start: start, End: end}
			continue
		}

		lines = append(lines, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading subtitle file: %w", err)
	}
	return segs, nil
}

// parses [h:]mm:ss(,|.)fff and h:mm:ss.cc
func parseClock(ts string) (time.Duration, error) {
	ts = strings.TrimSpace(ts)
	ts = strings.Replace(ts, ",", ".", 1)

	dot := strings.LastIndex(ts, ".")
	if dot < 0 {
		return 0, fmt.Errorf("missing fraction in %q", ts)
	}
	clockPart, fracPart := ts[:dot], ts[dot+1:]

	parts := strings.Split(clockPart, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed timestamp %q", ts)
	}
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}

	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("malformed timestamp %q: %w", ts, err)
		}
		fields[i] = v
	}

	frac, err := strconv.Atoi(fracPart)
	if err != nil {
		return 0, fmt.Errorf("malformed fraction in %q: %w", ts, err)
	}
	var fraction time.Duration
	switch len(fracPart) {
	case 1:
		fraction = time.Duration(frac) * 100 * time.Millisecond
	case 2:
		fraction = time.Duration(frac) * 10 * time.Millisecond
	case 3:
		fraction = time.Duration(frac) * time.Millisecond
	default:
		return 0, fmt.Errorf("unsupported fraction precision in %q", ts)
	}

	return time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second +
		fraction, nil
}

func parseASS(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{Format: FormatASS}

	var (
		section      string
		styleColumns []string
		eventColumns []string
		lineNum      int
	)
	textColumn, startColumn, endColumn := -1, -1, -1

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.ToLower(strings.Trim(trimmed, "[]"))
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "Format:"):
			columns := splitFormatColumns(strings.TrimPrefix(trimmed, "Format:"))
			if section == "events" {
				eventColumns = columns
				textColumn, startColumn, endColumn = -1, -1, -1
				for i, col := range columns {
					switch strings.ToLower(col) {
					case "text":
						textColumn = i
					case "start":
						startColumn = i
					case "end":
						endColumn = i
					}
				}
				if textColumn == -1 {
					return nil, fmt.Errorf("ASS file missing Text column in Format line")
				}
			} else if strings.HasSuffix(section, "styles") {
				styleColumns = columns
			}

		case strings.HasPrefix(trimmed, "Style:") && doc.Style == nil:
			if style, ok := parseASSStyle(trimmed, styleColumns); ok {
				doc.Style = &style
			}

		case strings.HasPrefix(trimmed, "Dialogue:") && section == "events":
			if eventColumns == nil {
				return nil, fmt.Errorf("dialogue before Format line at line %d", lineNum)
			}
			content := strings.TrimSpace(strings.TrimPrefix(trimmed, "Dialogue:"))
			fields := splitASSFields(content, len(eventColumns))
			if len(fields) < len(eventColumns) {
				return nil, fmt.Errorf(
					"failed to parse Dialogue at line %d: expected %d fields, got %d",
					lineNum,
					len(eventColumns),
					len(fields),
				)
			}

			seg := Segment{Text: unescapeASSText(fields[textColumn])}
			if startColumn >= 0 {
				start, err := parseClock(fields[startColumn])
				if err != nil {
					return nil, fmt.Errorf("invalid start timestamp at line %d: %w", lineNum, err)
				}
				seg.Start = start
			}
			if endColumn >= 0 {
				end, err := parseClock(fields[endColumn])
				if err != nil {
					return nil, fmt.Errorf("invalid end timestamp at line %d: %w", lineNum, err)
				}
				seg.End = end
			}
			doc.Segments = append(doc.Segments, seg)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}
	if eventColumns == nil {
		return nil, fmt.Errorf("ASS file missing Format line in [Events] section")
	}
	return doc, nil
}

func splitFormatColumns(s string) []string {
	columns := strings.Split(s, ",")
	for i, col := range columns {
		columns[i] = strings.TrimSpace(col)
	}
	return columns
}

func parseASSStyle(line string, columns []string) (ASSStyle, bool) {
	if len(columns) == 0 {
		return ASSStyle{}, false
	}
	fields := splitASSFields(strings.TrimSpace(strings.TrimPrefix(line, "Style:")), len(columns))
	if len(fields) < len(columns) {
		return ASSStyle{}, false
	}

	style := DefaultASSStyle()
	for i, col := range columns {
		value := strings.TrimSpace(fields[i])
		switch strings.ToLower(col) {
		case "name":
			style.Name = value
		case "fontname":
			style.FontName = value
		case "fontsize":
			if v, err := strconv.Atoi(value); err == nil {
				style.FontSize = v
			}
		case "primarycolour":
			style.PrimaryColour = value
		case "outline":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				style.Outline = int(v)
			}
		case "shadow":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				style.Shadow = int(v)
			}
		case "alignment":
			if v, err := strconv.Atoi(value); err == nil {
				style.Alignment = v
			}
		}
	}
	return style, true
}

// the last field keeps any commas, ASS text may contain them
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}
	return strings.SplitN(content, ",", numFields)
}

// drops override blocks and turns ASS line breaks into newlines
func unescapeASSText(text string) string {
	text = assOverrideRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\\N", "\n")
	text = strings.ReplaceAll(text, "\\n", "\n")
	text = strings.ReplaceAll(text, "\\h", " ")
	return text
}
