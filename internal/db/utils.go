package db

import (
	"fmt"

	"github.com/urfave/cli/v2"

	dbpkg "github.com/dtnitsch/topic-scores/pkg/db"
)

// GetRunIDOrLatest returns the run ID from args, or the latest run if none
// (or "latest") was given.
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (string, error) {
	arg := c.Args().First()
	if arg != "" && arg != "latest" {
		return arg, nil
	}

	runs, err := database.ListRuns(1)
	if err != nil {
		return "", fmt.Errorf("failed to get latest run: %w", err)
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs found. Run 'topic-scores run --store' first")
	}
	return runs[0].RunID, nil
}
