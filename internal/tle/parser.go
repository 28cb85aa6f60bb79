package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Parse reads classic 3-line NORAD TLE blocks (name, line1, line2) from r.
//
// A block with no name line is accepted when its first line starts with "1 "
// and the next with "2 "; the record gets PlaceholderName. Malformed blocks
// are skipped with a warning: on a prefix failure the scan resynchronizes by
// advancing a single line, so one corrupt block never hides the ones after it.
func Parse(r io.Reader, logger *slog.Logger) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n\t ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var records []Record
	for i := 0; i+1 < len(lines); {
		var name, line1, line2 string

		switch {
		case i+2 < len(lines) && strings.HasPrefix(lines[i+1], "1 ") && strings.HasPrefix(lines[i+2], "2 "):
			name, line1, line2 = lines[i], lines[i+1], lines[i+2]
			i += 3
		case strings.HasPrefix(lines[i], "1 ") && strings.HasPrefix(lines[i+1], "2 "):
			// Name line omitted.
			name, line1, line2 = PlaceholderName, lines[i], lines[i+1]
			i += 2
		default:
			logger.Warn("skipping unrecognized TLE line", "line_index", i)
			i++
			continue
		}

		rec, err := newRecord(name, line1, line2)
		if err != nil {
			logger.Warn("skipping rejected TLE block", "name", strings.TrimSpace(name), "error", err)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}
