package reduce

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/topic-scores/internal/common"
	"github.com/dtnitsch/topic-scores/pkg/procworker"
	"github.com/dtnitsch/topic-scores/pkg/reducer"
	"github.com/dtnitsch/topic-scores/pkg/scoring"
	"github.com/dtnitsch/topic-scores/pkg/tokenizer"
)

// NewLogger builds the stderr JSON logger from --quiet and --verbose.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// ExitCode maps a run error to the process exit code:
// 1 for bad input, 2 for everything else.
func ExitCode(err error) int {
	var malformed *tokenizer.MalformedInputError
	var unknownVerb *scoring.UnknownVerbError
	if errors.As(err, &malformed) || errors.As(err, &unknownVerb) {
		return 1
	}
	return 2
}

// RunAction maps and reduces action records.
func RunAction(c *cli.Context) error {
	return reduceAction(c, "run", Execute)
}

// ReduceAction reduces records that were already scored by map.
func ReduceAction(c *cli.Context) error {
	return reduceAction(c, "reduce", ExecuteScored)
}

type executor func(*Settings, []byte, *slog.Logger) (*reducer.Result, error)

func reduceAction(c *cli.Context, command string, execute executor) error {
	logger := NewLogger(c)
	startTime := time.Now()

	settings, err := LoadSettings(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	input, err := common.ReadInput(settings.InputPath, os.Stdin)
	if err != nil {
		logger.Error("failed to read input", "error", err)
		os.Exit(2)
	}

	logger.Debug("starting run",
		"command", command,
		"substrate", settings.SubstrateName(),
		"capacity", settings.Config.Capacity,
		"max_workers", settings.Config.MaxWorkers,
		"input_bytes", len(input))

	res, cacheHit, runErr := CachedExecute(command, settings, input, execute, logger)
	if cacheHit {
		logger.Info("cache hit", "cache_dir", settings.CacheDir)
	}
	report := NewReport(command, settings, input, res, runErr)

	if settings.Store {
		if err := report.Store(); err != nil {
			logger.Error("failed to store run", "error", err, "run_id", report.RunID)
			os.Exit(2)
		}
		logger.Info("run stored", "run_id", report.RunID)
	}

	if settings.ManifestPath != "" {
		path, err := report.WriteManifest()
		if err != nil {
			logger.Error("failed to write manifest", "error", err)
			os.Exit(2)
		}
		logger.Info("manifest written", "path", path)
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr, "run_id", report.RunID)
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(ExitCode(runErr))
	}

	shown := *res
	shown.Totals, err = settings.Where.Apply(res.Totals)
	if err != nil {
		logger.Error("failed to filter totals", "error", err)
		os.Exit(1)
	}

	elapsed := time.Since(startTime)
	out := BuildOutput(report.RunID, settings.SubstrateName(), &shown, elapsed)
	if err := WriteTotals(os.Stdout, settings.Format, out); err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(2)
	}

	logger.Info("run complete",
		"run_id", report.RunID,
		"records", res.Records,
		"workers", res.Workers,
		"totals", len(res.Totals),
		"queue_high_water", res.HighWater,
		"elapsed", elapsed.String())
	return nil
}

// MapAction scores action records and prints them without reducing.
func MapAction(c *cli.Context) error {
	logger := NewLogger(c)

	settings, err := LoadSettings(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	input, err := common.ReadInput(settings.InputPath, os.Stdin)
	if err != nil {
		logger.Error("failed to read input", "error", err)
		os.Exit(2)
	}

	records, err := MapRecords(settings, input)
	if err != nil {
		logger.Error("map failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCode(err))
	}

	if err := WriteScored(os.Stdout, settings.Format, records); err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(2)
	}

	logger.Debug("map complete", "records", len(records))
	return nil
}

// WorkerAction is the child side of the process substrate. It must not log
// to stdout, which carries the report.
func WorkerAction(c *cli.Context) error {
	key := c.String("key")
	if err := procworker.Serve(key, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "worker %q: %v\n", key, err)
		os.Exit(1)
	}
	return nil
}
