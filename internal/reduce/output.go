package reduce

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/mapreduce"
	"github.com/dtnitsch/topic-scores/pkg/reducer"
)

const topTopicsInStats = 10

// BuildOutput assembles the structured output for a successful run.
func BuildOutput(runID, substrate string, res *reducer.Result, elapsed time.Duration) *RunOutput {
	totals := res.Totals
	if totals == nil {
		totals = []models.Total{}
	}
	return &RunOutput{
		Status: "success",
		RunID:  runID,
		Totals: totals,
		Stats: Stats{
			Records:          res.Records,
			Workers:          res.Workers,
			TotalPairs:       len(totals),
			QueueHighWater:   res.HighWater,
			Substrate:        substrate,
			TotalTimeSeconds: elapsed.Seconds(),
			TopTopics:        mapreduce.TopTopics(totals, topTopicsInStats),
		},
	}
}

// WriteTotals writes out to w: one (key,topic,score) line per total for the
// tuples format, or the whole document for yaml and json.
func WriteTotals(w io.Writer, format string, out *RunOutput) error {
	if format == FormatTuples || format == "" {
		for _, t := range out.Totals {
			if _, err := fmt.Fprintln(w, t.String()); err != nil {
				return err
			}
		}
		return nil
	}
	return marshalTo(w, format, out)
}

// WriteScored writes mapped records in the given format.
func WriteScored(w io.Writer, format string, records []models.ScoredRecord) error {
	if format == FormatTuples || format == "" {
		for _, r := range records {
			if _, err := fmt.Fprintln(w, r.String()); err != nil {
				return err
			}
		}
		return nil
	}
	if records == nil {
		records = []models.ScoredRecord{}
	}
	return marshalTo(w, format, &MapOutput{Records: records})
}

func marshalTo(w io.Writer, format string, v any) error {
	var data []byte
	var err error
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(v)
	case FormatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	_, err = w.Write(data)
	return err
}
