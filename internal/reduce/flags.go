package reduce

import (
	"time"

	"github.com/urfave/cli/v2"
)

// Output formats accepted by --format.
const (
	FormatTuples = "tuples"
	FormatYAML   = "yaml"
	FormatJSON   = "json"
)

// Input formats accepted by --input-format.
const (
	InputText = "text"
	InputHTML = "html"
)

// LogFlags control the stderr logger.
func LogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log worker lifecycle at debug level"},
	}
}

// ConfigFlags load a YAML run config.
func ConfigFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "YAML run config file"},
	}
}

// EngineFlags configure the worker engine. Shared by run and reduce.
func EngineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "capacity", Aliases: []string{"c"}, Value: 8, Usage: "Per-worker queue capacity"},
		&cli.IntFlag{Name: "max-workers", Value: 0, Usage: "Maximum distinct keys (0 = unlimited)"},
		&cli.StringFlag{Name: "substrate", Value: "goroutine", Usage: "Where workers fold: goroutine|process"},
		&cli.BoolFlag{Name: "sequential", Usage: "Single-threaded reference reducer"},
		&cli.StringFlag{Name: "manifest", Usage: "Write a JSON run manifest to this path"},
		&cli.BoolFlag{Name: "store", Usage: "Persist the run and its totals to SQLite"},
		&cli.StringFlag{Name: "db", Usage: "SQLite database path (default: topic-scores.db next to the binary)"},
		&cli.StringFlag{Name: "cache-dir", Usage: "Reuse totals for identical input and scores from this directory"},
		&cli.DurationFlag{Name: "max-age", Value: time.Hour, Usage: "Maximum age of a cached result (0 = no expiry)"},
	}
}

// InputFlags select and parse the input.
func InputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Input file (default: stdin)"},
		&cli.StringFlag{Name: "input-format", Value: InputText, Usage: "Input format: text|html"},
		&cli.StringFlag{Name: "scores", Usage: "YAML verb scores file (replaces the default table)"},
	}
}

// OutputFlags select the stdout format.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: FormatTuples, Usage: "Output format: tuples|yaml|json"},
	}
}

// FilterFlags select which totals are printed.
func FilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "where", Aliases: []string{"w"}, Usage: `Print only totals matching a CEL expression over key, topic, score (e.g. 'score >= 50')`},
	}
}

// Flags concatenates flag groups.
func Flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
