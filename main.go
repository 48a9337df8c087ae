package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/text-analyzer/internal/analyze"
	"github.com/dtnitsch/text-analyzer/internal/history"
	"github.com/dtnitsch/text-analyzer/internal/watch"
	"github.com/dtnitsch/text-analyzer/models"
	"github.com/dtnitsch/text-analyzer/pkg/analyzer"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
		&cli.StringFlag{Name: "db", Usage: "Scan history database (default: next to the binary)"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log debug output"},
	}
}

func analyzeFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.IntFlag{Name: "workers", Aliases: []string{"w", "t"}, Value: analyzer.DefaultWorkerCount(), Usage: "Number of concurrent workers"},
		&cli.IntFlag{Name: "block-size", Aliases: []string{"b"}, Value: analyzer.DefaultBlockSize, Usage: "Bytes each worker reads per block"},
		&cli.IntFlag{Name: "top", Aliases: []string{"n"}, Value: models.DefaultTop, Usage: "Number of most used words and letters to show"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "Output format: text, json or yaml"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the report to a file instead of stdout"},
		&cli.BoolFlag{Name: "html", Usage: "Extract visible text from HTML first (automatic for .html and text/html)"},
		&cli.BoolFlag{Name: "detect-language", Usage: "Guess the language from the most used words"},
		&cli.BoolFlag{Name: "save", Usage: "Store the result in the scan history"},
		&cli.StringFlag{Name: "cache", Usage: "Result cache file"},
		&cli.StringFlag{Name: "max-age", Value: models.DefaultMaxAge.String(), Usage: "Reuse cached results younger than this (0 disables the cache)"},
		&cli.BoolFlag{Name: "no-progress", Usage: "Do not print progress to stderr"},
	)
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "text-analyzer",
		Usage: "Concurrent word and letter statistics for large text files",
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyze a file or URL",
				ArgsUsage: "PATH|URL",
				Flags:     analyzeFlags(),
				Action:    analyze.AnalyzeAction,
			},
			{
				Name:      "watch",
				Usage:     "Analyze a file again every time it changes",
				ArgsUsage: "PATH",
				Flags: append(analyzeFlags(),
					&cli.StringFlag{Name: "debounce", Value: models.DefaultDebounce.String(), Usage: "Quiet period after a change before re-analyzing"},
				),
				Action: watch.WatchAction,
			},
			{
				Name:  "history",
				Usage: "List saved scans",
				Flags: append(commonFlags(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum number of scans to list (0 for all)"},
				),
				Action: history.HistoryAction,
			},
			{
				Name:      "show",
				Usage:     "Show a saved scan (latest if no ID is given)",
				ArgsUsage: "[ID]",
				Flags: append(commonFlags(),
					&cli.IntFlag{Name: "top", Aliases: []string{"n"}, Value: models.DefaultTop, Usage: "Number of most used words and letters to show"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "Output format: text, json or yaml"},
				),
				Action: history.ShowAction,
			},
			{
				Name:      "forget",
				Usage:     "Delete a saved scan",
				ArgsUsage: "ID",
				Flags:     commonFlags(),
				Action:    history.ForgetAction,
			},
		},
	}
}
