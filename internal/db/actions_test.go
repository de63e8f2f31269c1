package db

import (
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/topic-scores/models"
	dbpkg "github.com/dtnitsch/topic-scores/pkg/db"
)

func openTestDB(t *testing.T) *dbpkg.DB {
	t.Helper()
	database, err := dbpkg.OpenPath(filepath.Join(t.TempDir(), dbpkg.DefaultDBName))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func runIDFor(t *testing.T, database *dbpkg.DB, args ...string) (string, error) {
	t.Helper()

	var id string
	var idErr error
	app := &cli.App{
		Name: "show",
		Action: func(c *cli.Context) error {
			id, idErr = GetRunIDOrLatest(c, database)
			return nil
		},
	}
	if err := app.Run(append([]string{"show"}, args...)); err != nil {
		t.Fatalf("app.Run() error = %v", err)
	}
	return id, idErr
}

func TestGetRunIDOrLatest(t *testing.T) {
	database := openTestDB(t)

	if _, err := runIDFor(t, database); err == nil {
		t.Error("GetRunIDOrLatest() on empty database returned nil error")
	}

	first, err := database.SaveRun(&dbpkg.Run{Command: "run", Substrate: "goroutine", Capacity: 8, Status: "success"}, nil)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	second, err := database.SaveRun(&dbpkg.Run{Command: "run", Substrate: "goroutine", Capacity: 8, Status: "success"}, nil)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no argument", args: nil, want: second},
		{name: "latest", args: []string{"latest"}, want: second},
		{name: "explicit id", args: []string{first}, want: first},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runIDFor(t, database, tt.args...)
			if err != nil {
				t.Fatalf("GetRunIDOrLatest() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetRunIDOrLatest() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStoredOutput(t *testing.T) {
	run := &dbpkg.Run{RunID: "r1", Substrate: "process", Records: 3, Workers: 2}
	totals := []models.Total{
		{Key: "1", Topic: "sports", Score: 70},
		{Key: "2", Topic: "music", Score: 40},
	}

	out := StoredOutput(run, totals)

	if out.RunID != "r1" || out.Status != "success" {
		t.Errorf("StoredOutput() = %+v", out)
	}
	if out.Stats.Records != 3 || out.Stats.Workers != 2 || out.Stats.TotalPairs != 2 {
		t.Errorf("Stats = %+v", out.Stats)
	}
	if out.Stats.Substrate != "process" {
		t.Errorf("Substrate = %q, want process", out.Stats.Substrate)
	}
	if len(out.Stats.TopTopics) != 2 || out.Stats.TopTopics[0] != "sports:70" {
		t.Errorf("TopTopics = %v", out.Stats.TopTopics)
	}
}
