package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dtnitsch/text-analyzer/pkg/mapreduce"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Output formats understood by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the valid values for Write's format argument.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// ValidFormat reports whether format is one of Formats.
func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Write renders r in the given format.
func Write(w io.Writer, r Report, format string) error {
	switch format {
	case FormatText, "":
		return r.WriteText(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteText prints the report as aligned columns with thousands separators.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Source:\t%s\n", r.Source)
	fmt.Fprintf(tw, "Scan Time:\t%s\n", r.ScanTime.Format(time.RFC3339))
	fmt.Fprintf(tw, "Total Word Count:\t%s\n", humanize.Comma(int64(r.TotalWords)))
	fmt.Fprintf(tw, "Total Letter Count:\t%s\n", humanize.Comma(int64(r.TotalLetters)))
	fmt.Fprintf(tw, "Unique Words:\t%s\n", humanize.Comma(int64(r.UniqueWords)))
	fmt.Fprintf(tw, "Longest Word:\t%s\n", r.LongestWord)
	if r.SkippedWords > 0 {
		fmt.Fprintf(tw, "Non-alphabetic Words:\t%s\n", humanize.Comma(int64(r.SkippedWords)))
	}
	if r.MalformedWords > 0 {
		fmt.Fprintf(tw, "Malformed Words:\t%s\n", humanize.Comma(int64(r.MalformedWords)))
	}
	if r.Language != "" {
		fmt.Fprintf(tw, "Language:\t%s\n", r.Language)
	}
	if r.Run != nil {
		fmt.Fprintf(tw, "Bytes Read:\t%s\n", humanize.Bytes(uint64(r.Run.BytesRead)))
		if r.Run.Cached {
			fmt.Fprintf(tw, "Duration:\tcached\n")
		} else {
			fmt.Fprintf(tw, "Workers:\t%d (block size %s)\n", r.Run.Workers, humanize.Bytes(uint64(r.Run.BlockSize)))
			fmt.Fprintf(tw, "Duration:\t%s\n", r.Run.Duration.Round(time.Millisecond))
		}
		if r.Run.ScanID > 0 {
			fmt.Fprintf(tw, "Scan ID:\t%d\n", r.Run.ScanID)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if err := writeEntries(w, fmt.Sprintf("%d most used words:", len(r.TopWords)), r.TopWords); err != nil {
		return err
	}
	return writeEntries(w, fmt.Sprintf("%d most used letters:", len(r.TopLetters)), r.TopLetters)
}

func writeEntries(w io.Writer, title string, entries []mapreduce.Entry) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for i, e := range entries {
		fmt.Fprintf(tw, "%d.\t%s\t%s\t\n", i+1, e.Key, humanize.Comma(int64(e.Count)))
	}
	return tw.Flush()
}
