package reduce

import "github.com/dtnitsch/topic-scores/models"

// RunOutput is the structured (yaml/json) output of run and reduce.
type RunOutput struct {
	Status string         `json:"status" yaml:"status"`
	RunID  string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Totals []models.Total `json:"totals" yaml:"totals"`
	Stats  Stats          `json:"stats" yaml:"stats"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	Records          int      `json:"records" yaml:"records"`
	Workers          int      `json:"workers" yaml:"workers"`
	TotalPairs       int      `json:"total_pairs" yaml:"total_pairs"`
	QueueHighWater   int      `json:"queue_high_water" yaml:"queue_high_water"`
	Substrate        string   `json:"substrate" yaml:"substrate"`
	TotalTimeSeconds float64  `json:"total_time_seconds" yaml:"total_time_seconds"`
	TopTopics        []string `json:"top_topics,omitempty" yaml:"top_topics,omitempty"`
}

// MapOutput is the structured output of map.
type MapOutput struct {
	Records []models.ScoredRecord `json:"records" yaml:"records"`
}
