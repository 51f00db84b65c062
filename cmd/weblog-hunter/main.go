package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"weblog-hunter/internal/alert"
	"weblog-hunter/internal/parser"
	"weblog-hunter/internal/pipeline"
	"weblog-hunter/internal/report"
	"weblog-hunter/internal/utils"
)

var version = "1.0.0"

type options struct {
	input               string
	reportDir           string
	configFile          string
	dirbustThreshold    int
	bruteForceThreshold int
	windowSeconds       int64
	topTalkers          int
	workers             int
	logLevel            string
	metricsTextfile     string
	dumpConfig          string
	showVersion         bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(opts *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("weblog-hunter", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.input, "input", "", "Path to Apache access.log")
	fs.StringVar(&opts.input, "i", "", "Shorthand for -input")
	fs.StringVar(&opts.reportDir, "report-dir", "", "Directory for CSV/Markdown/HTML reports (default from config, then \"reports\")")
	fs.StringVar(&opts.reportDir, "o", "", "Shorthand for -report-dir")
	fs.StringVar(&opts.configFile, "config", "", "Path to YAML or JSON config")
	fs.StringVar(&opts.configFile, "c", "", "Shorthand for -config")
	fs.IntVar(&opts.dirbustThreshold, "dirbust-threshold", 0, "Min 404s per host within window to flag dirbusting")
	fs.IntVar(&opts.bruteForceThreshold, "bruteforce-threshold", 0, "Min 401s on login paths within window to flag brute force")
	fs.Int64Var(&opts.windowSeconds, "window-seconds", 0, "Time window size for rate checks (default 60)")
	fs.IntVar(&opts.topTalkers, "top-talkers", 0, "How many top talkers to show in reports (default 5)")
	fs.IntVar(&opts.workers, "workers", 0, "Goroutines used to fold records")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR")
	fs.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")
	fs.StringVar(&opts.dumpConfig, "dump-config", "", "Write the effective configuration to this file and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")

	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "weblog-hunter v%s\n", version)
		return 0
	}

	config, err := utils.LoadHunterConfig(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}

	if err := applyOverrides(config, fs, &opts); err != nil {
		fmt.Fprintf(stderr, "Invalid options: %v\n", err)
		return 1
	}

	if opts.dumpConfig != "" {
		if err := config.SaveConfig(opts.dumpConfig); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote: %s\n", opts.dumpConfig)
		return 0
	}

	if opts.input == "" {
		fmt.Fprintln(stderr, "-input is required")
		fs.Usage()
		return 2
	}

	logger := utils.NewLogger(config.Logging.Level, config.Logging.Format)
	logger.SetOutput(stderr)

	metrics := alert.NewMetrics()
	processor := pipeline.NewProcessorFromConfig(config, metrics, logger)

	result, err := processor.Process(ctx, opts.input)
	if err != nil {
		var malformed *parser.MalformedLineError
		if errors.As(err, &malformed) {
			fmt.Fprintf(stderr, "Malformed log line: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "Failed: %v\n", err)
		}
		return 1
	}

	data := report.Data{
		Meta:       report.NewMeta(opts.input, result.Generated, result.RunID),
		Findings:   result.Findings,
		TopTalkers: result.TopTalkers,
	}
	written, err := report.WriteFiles(config.Report.Dir, data, config.Report.Formats)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to write reports: %v\n", err)
		return 1
	}

	if config.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(config.Metrics.Textfile); err != nil {
			logger.Errorf("%v", err)
		}
	}

	fmt.Fprintf(stdout, "Parsed %d lines from %s\n", result.Records, opts.input)
	fmt.Fprintf(stdout, "Findings: %d\n", len(result.Findings))
	for _, path := range written {
		fmt.Fprintf(stdout, "Wrote: %s\n", path)
	}

	return 0
}

// applyOverrides copies explicitly set flags over the file configuration
// and validates the result
func applyOverrides(config *utils.HunterConfig, fs *flag.FlagSet, opts *options) error {
	var overrideErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "report-dir", "o":
			config.Report.Dir = opts.reportDir
		case "dirbust-threshold":
			config.Detection.DirbustThreshold = opts.dirbustThreshold
		case "bruteforce-threshold":
			config.Detection.BruteForceThreshold = opts.bruteForceThreshold
		case "window-seconds":
			config.Detection.WindowSeconds = opts.windowSeconds
		case "top-talkers":
			if opts.topTalkers < 0 {
				overrideErr = fmt.Errorf("%w: -top-talkers cannot be negative", utils.ErrInvalidConfig)
			}
			config.Report.TopTalkers = opts.topTalkers
		case "workers":
			config.Detection.Workers = opts.workers
		case "log-level":
			config.Logging.Level = opts.logLevel
		case "metrics-textfile":
			config.Metrics.Textfile = opts.metricsTextfile
		}
	})
	if overrideErr != nil {
		return overrideErr
	}
	return config.Validate()
}
