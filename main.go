package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	dbactions "github.com/dtnitsch/topic-scores/internal/db"
	"github.com/dtnitsch/topic-scores/internal/reduce"
	"github.com/dtnitsch/topic-scores/pkg/help"
	"github.com/dtnitsch/topic-scores/pkg/procworker"
)

func main() {
	app := &cli.App{
		Name:  "topic-scores",
		Usage: "Score (key, verb, topic) action records and total them per key and topic",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Map and reduce action records: one worker per key",
				Flags:  reduce.Flags(reduce.ConfigFlags(), reduce.EngineFlags(), reduce.InputFlags(), reduce.OutputFlags(), reduce.FilterFlags(), reduce.LogFlags()),
				Action: reduce.RunAction,
			},
			{
				Name:   "map",
				Usage:  "Score action records and print (key,topic,score) without reducing",
				Flags:  reduce.Flags(reduce.ConfigFlags(), reduce.InputFlags(), reduce.OutputFlags(), reduce.LogFlags()),
				Action: reduce.MapAction,
			},
			{
				Name:  "reduce",
				Usage: "Total already-scored (key,topic,score) records",
				Flags: reduce.Flags(reduce.ConfigFlags(), reduce.EngineFlags(), reduce.OutputFlags(), reduce.FilterFlags(), reduce.LogFlags(), []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Input file (default: stdin)"},
				}),
				Action: reduce.ReduceAction,
			},
			{
				Name:   procworker.WorkerCommand,
				Usage:  "Child worker process (internal)",
				Hidden: true,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Required: true, Usage: "Key this worker owns"},
				},
				Action: reduce.WorkerAction,
			},
			{
				Name:  "db",
				Usage: "Query stored runs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Usage: "SQLite database path (default: topic-scores.db next to the binary)"},
				},
				Subcommands: []*cli.Command{
					{
						Name:  "runs",
						Usage: "List stored runs",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum runs to list (0 = all)"},
							&cli.StringFlag{Name: "input-hash", Usage: "Only successful runs over this input"},
						},
						Action: dbactions.RunsAction,
					},
					{
						Name:      "show",
						Usage:     "Print a stored run's totals",
						ArgsUsage: "[run_id|latest]",
						Flags:     reduce.Flags(reduce.OutputFlags(), reduce.FilterFlags()),
						Action:    dbactions.ShowAction,
					},
					{
						Name:      "delete",
						Usage:     "Remove a stored run and its totals",
						ArgsUsage: "<run_id>",
						Action:    dbactions.DeleteAction,
					},
				},
			},
			{
				Name:  "coldstart",
				Usage: "Print a quick-start guide",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
