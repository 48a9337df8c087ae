package history

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dtnitsch/text-analyzer/internal/analyze"
	dbpkg "github.com/dtnitsch/text-analyzer/pkg/db"
	"github.com/dtnitsch/text-analyzer/pkg/report"
	"github.com/urfave/cli/v2"
)

func openDB(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := analyze.LoadConfig(c)
	if err != nil {
		return nil, err
	}
	return analyze.OpenDB(cfg)
}

// HistoryAction lists saved scans, most recent first.
func HistoryAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	scans, err := database.ListScans(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}

	printScans(os.Stdout, scans)
	return nil
}

func printScans(w io.Writer, scans []dbpkg.ScanRecord) {
	if len(scans) == 0 {
		fmt.Fprintln(w, "No scans found")
		return
	}

	// Print table header
	fmt.Fprintf(w, "%-6s %-20s %-10s %-8s %-10s %-25s %s\n",
		"ID", "Scanned", "Words", "Unique", "Language", "Top Words", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, s := range scans {
		language := s.Language
		if language == "" {
			language = "-"
		}
		fmt.Fprintf(w, "%-6d %-20s %-10d %-8d %-10s %-25s %s\n",
			s.ScanID,
			s.ScannedAt.Local().Format("2006-01-02 15:04:05"),
			s.TotalWords,
			s.UniqueWords,
			language,
			strings.Join(dbpkg.KeywordNames(s.TopKeywords, 3), ","),
			s.SourceName,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d scans\n", len(scans))
	fmt.Fprintf(w, "\nTip: Use 'text-analyzer show <id>' to see details\n")
}

// ShowAction prints one saved scan as a report. Without an ID the latest
// scan is shown.
func ShowAction(c *cli.Context) error {
	cfg, err := analyze.LoadConfig(c)
	if err != nil {
		return err
	}
	database, err := analyze.OpenDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	scanID, err := getScanIDOrLatest(c.Args().First(), database)
	if err != nil {
		return err
	}

	rep, err := scanReport(database, scanID, cfg.Top)
	if err != nil {
		return err
	}

	return report.Write(os.Stdout, rep, cfg.Format)
}

// ForgetAction deletes a saved scan.
func ForgetAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no scan ID provided")
	}
	scanID, err := parseScanID(c.Args().First())
	if err != nil {
		return err
	}

	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.DeleteScan(scanID); err != nil {
		return err
	}
	fmt.Printf("Deleted scan %d\n", scanID)
	return nil
}

func scanReport(database *dbpkg.DB, scanID int64, top int) (report.Report, error) {
	scan, err := database.GetScan(scanID)
	if err != nil {
		return report.Report{}, err
	}

	words, err := database.GetScanWords(scanID, top)
	if err != nil {
		return report.Report{}, fmt.Errorf("failed to get scan words: %w", err)
	}
	letters, err := database.GetScanLetters(scanID, top)
	if err != nil {
		return report.Report{}, fmt.Errorf("failed to get scan letters: %w", err)
	}

	return report.Report{
		Source:         scan.SourceName,
		ScanTime:       scan.ScannedAt,
		TotalWords:     scan.TotalWords,
		TotalLetters:   scan.TotalLetters,
		UniqueWords:    scan.UniqueWords,
		LongestWord:    scan.LongestWord,
		SkippedWords:   scan.SkippedWords,
		MalformedWords: scan.MalformedWords,
		Language:       scan.Language,
		TopWords:       words,
		TopLetters:     letters,
		Run: &report.RunInfo{
			Workers:   scan.Workers,
			BlockSize: scan.BlockSize,
			BytesRead: scan.BytesRead,
			Duration:  scan.Duration,
			ScanID:    scan.ScanID,
			// scans saved from a cache hit record no workers
			Cached: scan.Workers == 0,
		},
	}, nil
}

// getScanIDOrLatest returns the scan ID from arg, or the latest scan if arg is empty
func getScanIDOrLatest(arg string, database *dbpkg.DB) (int64, error) {
	if arg == "" {
		scans, err := database.ListScans(1)
		if err != nil {
			return 0, fmt.Errorf("failed to get latest scan: %w", err)
		}
		if len(scans) == 0 {
			return 0, fmt.Errorf("no scans found. Run 'text-analyzer analyze --save FILE' first")
		}
		return scans[0].ScanID, nil
	}
	return parseScanID(arg)
}

func parseScanID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid scan ID: %s", arg)
	}
	return id, nil
}
