package reduce

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dtnitsch/topic-scores/internal/common"
	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/db"
	"github.com/dtnitsch/topic-scores/pkg/manifest"
	"github.com/dtnitsch/topic-scores/pkg/reducer"
	"github.com/dtnitsch/topic-scores/pkg/storage"
)

// Report describes a finished run for the store and the manifest.
type Report struct {
	RunID    string
	Command  string
	Settings *Settings
	Input    []byte
	Result   *reducer.Result
	Err      error
}

// NewReport returns a report with a fresh run ID.
func NewReport(command string, s *Settings, input []byte, res *reducer.Result, err error) *Report {
	return &Report{
		RunID:    uuid.NewString(),
		Command:  command,
		Settings: s,
		Input:    input,
		Result:   res,
		Err:      err,
	}
}

func (r *Report) totals() []models.Total {
	if r.Result == nil {
		return nil
	}
	return r.Result.Totals
}

// OpenDB opens the database at path, or the default one next to the binary.
func OpenDB(path string) (*db.DB, error) {
	if path != "" {
		return db.OpenPath(path)
	}
	return db.Open()
}

// Store persists the run and its totals. A failed run is stored without totals.
func (r *Report) Store() error {
	database, err := OpenDB(r.Settings.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	run := &db.Run{
		RunID:      r.RunID,
		Command:    r.Command,
		InputHash:  common.ContentHash(r.Input),
		Substrate:  r.Settings.SubstrateName(),
		Capacity:   r.Settings.Config.Capacity,
		MaxWorkers: r.Settings.Config.MaxWorkers,
		Status:     "success",
	}
	if r.Result != nil {
		run.Records = r.Result.Records
		run.Workers = r.Result.Workers
	}

	totals := r.totals()
	if r.Err != nil {
		run.Status = "failed"
		run.Error = r.Err.Error()
		totals = nil
	}

	if _, err := database.SaveRun(run, totals); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	return nil
}

// WriteManifest writes the JSON run manifest and returns its path.
func (r *Report) WriteManifest() (string, error) {
	info := manifest.RunInfo{
		RunID:      r.RunID,
		Command:    r.Command,
		Substrate:  r.Settings.SubstrateName(),
		Capacity:   r.Settings.Config.Capacity,
		MaxWorkers: r.Settings.Config.MaxWorkers,
		InputPath:  r.Settings.InputPath,
		InputHash:  common.ContentHash(r.Input),
		InputBytes: int64(len(r.Input)),
		Error:      r.Err,
	}
	if r.Result != nil {
		info.Records = r.Result.Records
		info.Workers = r.Result.Workers
		info.HighWater = r.Result.HighWater
	}

	totals := r.totals()
	if r.Err != nil {
		totals = nil
	}
	return manifest.GenerateSummary(info, totals, r.Settings.ManifestPath, &storage.Storage{})
}
