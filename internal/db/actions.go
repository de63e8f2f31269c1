package db

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/topic-scores/internal/reduce"
	"github.com/dtnitsch/topic-scores/models"
	dbpkg "github.com/dtnitsch/topic-scores/pkg/db"
	"github.com/dtnitsch/topic-scores/pkg/filter"
	"github.com/dtnitsch/topic-scores/pkg/reducer"
)

func RunsAction(c *cli.Context) error {
	database, err := reduce.OpenDB(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	var runs []dbpkg.Run
	if hash := c.String("input-hash"); hash != "" {
		runs, err = database.FindRunsByInput(hash)
	} else {
		runs, err = database.ListRuns(c.Int("limit"))
	}
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	// Print table header
	fmt.Printf("%-36s %-20s %-7s %-11s %-8s %-8s %-8s %-8s\n",
		"Run ID", "Created", "Command", "Substrate", "Records", "Workers", "Totals", "Status")
	fmt.Println(strings.Repeat("-", 116))

	for _, r := range runs {
		fmt.Printf("%-36s %-20s %-7s %-11s %-8d %-8d %-8d %-8s\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Command,
			r.Substrate,
			r.Records,
			r.Workers,
			r.TotalCount,
			r.Status,
		)
	}

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'topic-scores db show <id>' to see totals\n")

	return nil
}

// ShowAction prints the stored totals of a run in any output format.
func ShowAction(c *cli.Context) error {
	database, err := reduce.OpenDB(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	if run.Status != "success" {
		fmt.Fprintf(os.Stderr, "Run %s failed: %s\n", run.RunID, run.Error)
		os.Exit(1)
	}

	totals, err := database.GetRunTotals(runID)
	if err != nil {
		return err
	}

	where, err := filter.New(c.String("where"))
	if err != nil {
		return err
	}
	totals, err = where.Apply(totals)
	if err != nil {
		return err
	}

	out := StoredOutput(run, totals)
	return reduce.WriteTotals(os.Stdout, strings.ToLower(c.String("format")), out)
}

// StoredOutput rebuilds the structured output of a stored run.
func StoredOutput(run *dbpkg.Run, totals []models.Total) *reduce.RunOutput {
	return reduce.BuildOutput(run.RunID, run.Substrate, &reducer.Result{
		Totals:  totals,
		Records: run.Records,
		Workers: run.Workers,
	}, 0)
}

func DeleteAction(c *cli.Context) error {
	if c.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: run ID required")
		fmt.Fprintln(os.Stderr, "Usage: topic-scores db delete <run_id>")
		os.Exit(1)
	}

	database, err := reduce.OpenDB(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runID := c.Args().First()
	if err := database.DeleteRun(runID); err != nil {
		return err
	}

	fmt.Printf("Deleted run %s\n", runID)
	return nil
}
