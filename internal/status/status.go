// Package status summarizes watch session outcomes from the log file.
package status

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logfmt/logfmt"
)

// Stats holds parsed statistics from the log file.
type Stats struct {
	Copied    int
	Converted int
	Skipped   int
	Failed    int
	Last      *Entry
}

// Handled returns the number of files that reached a destination or were
// converted.
func (s *Stats) Handled() int {
	return s.Copied + s.Converted
}

// Entry is one dispatched file as recorded in the log.
type Entry struct {
	Time    time.Time
	Path    string
	Outcome string
	Dest    string
	Reason  string
	Error   string
}

// ParseLogFile parses the log at path, counting outcomes logged at or after
// since. Returns empty stats if the file doesn't exist.
func ParseLogFile(path string, since time.Time) (*Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Stats{}, nil
		}
		return nil, err
	}
	defer file.Close()

	return ParseLog(file, since)
}

// ParseLog reads slog text records. Lines that are not valid records, or
// carry no outcome, are ignored.
func ParseLog(r io.Reader, since time.Time) (*Stats, error) {
	stats := &Stats{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		entry, ok := parseRecord(scanner.Bytes())
		if !ok || entry.Time.Before(since) {
			continue
		}

		switch entry.Outcome {
		case "copied":
			stats.Copied++
		case "converted":
			stats.Converted++
		case "skipped":
			stats.Skipped++
		case "failed":
			stats.Failed++
		default:
			continue
		}
		stats.Last = &entry
	}

	return stats, scanner.Err()
}

func parseRecord(line []byte) (Entry, bool) {
	var e Entry
	d := logfmt.NewDecoder(bytes.NewReader(line))
	if !d.ScanRecord() {
		return e, false
	}
	for d.ScanKeyval() {
		value := string(d.Value())
		switch string(d.Key()) {
		case "time":
			t, err := time.Parse(time.RFC3339Nano, value)
			if err != nil {
				return e, false
			}
			e.Time = t
		case "path":
			e.Path = value
		case "outcome":
			e.Outcome = value
		case "dest":
			e.Dest = value
		case "reason":
			e.Reason = value
		case "error":
			e.Error = value
		}
	}
	if d.Err() != nil || e.Outcome == "" {
		return e, false
	}
	return e, true
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatTimestamp formats a timestamp for display.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02T15:04:05")
}

// BaseName returns just the filename from a path.
func BaseName(path string) string {
	return filepath.Base(strings.TrimRight(path, `/\`))
}
