package reduce

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/filter"
	"github.com/dtnitsch/topic-scores/pkg/procworker"
	"github.com/dtnitsch/topic-scores/pkg/scoring"
)

// Settings is everything a command needs after flags and config are merged.
type Settings struct {
	Config       *models.RunConfig
	Table        *scoring.Table
	InputPath    string
	InputFormat  string
	Format       string
	ManifestPath string
	Store        bool
	DBPath       string
	CacheDir     string
	MaxAge       time.Duration
	Where        *filter.Filter

	// Command starts child workers for the process substrate.
	// Nil means re-executing the running binary.
	Command procworker.Command
}

// LoadSettings merges the --config file (or defaults) with flags.
// Flags win only when given explicitly.
func LoadSettings(c *cli.Context) (*Settings, error) {
	config := models.DefaultRunConfig()
	if c.IsSet("config") {
		var err error
		config, err = models.LoadConfig(c.String("config"))
		if err != nil {
			return nil, err
		}
	}

	if c.IsSet("capacity") {
		config.Capacity = c.Int("capacity")
	}
	if c.IsSet("max-workers") {
		config.MaxWorkers = c.Int("max-workers")
	}
	if c.IsSet("substrate") {
		config.Substrate = strings.ToLower(c.String("substrate"))
	}
	if c.IsSet("sequential") {
		config.Sequential = c.Bool("sequential")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	table := scoring.Default().Merge(config.Scores)
	if c.IsSet("scores") {
		var err error
		table, err = scoring.LoadTable(c.String("scores"))
		if err != nil {
			return nil, err
		}
	}

	where, err := filter.New(c.String("where"))
	if err != nil {
		return nil, err
	}

	s := &Settings{
		Config:       config,
		Table:        table,
		InputPath:    c.String("input"),
		InputFormat:  strings.ToLower(c.String("input-format")),
		Format:       strings.ToLower(c.String("format")),
		ManifestPath: c.String("manifest"),
		Store:        c.Bool("store"),
		DBPath:       c.String("db"),
		CacheDir:     c.String("cache-dir"),
		MaxAge:       c.Duration("max-age"),
		Where:        where,
	}
	if s.InputFormat == "" {
		s.InputFormat = InputText
	}
	if s.Format == "" {
		s.Format = FormatTuples
	}

	switch s.InputFormat {
	case InputText, InputHTML:
	default:
		return nil, fmt.Errorf("unknown input format %q (want %s or %s)", s.InputFormat, InputText, InputHTML)
	}
	switch s.Format {
	case FormatTuples, FormatYAML, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q (want %s, %s or %s)", s.Format, FormatTuples, FormatYAML, FormatJSON)
	}

	return s, nil
}

// SubstrateName is the name recorded for a run: the configured substrate,
// or "sequential" when the reference reducer is used.
func (s *Settings) SubstrateName() string {
	if s.Config.Sequential {
		return "sequential"
	}
	return s.Config.Substrate
}
