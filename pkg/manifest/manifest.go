package manifest

// RunManifest is the JSON summary written for a run. It gives the counts,
// the busiest topics, and a per-key breakdown without re-reading the totals.
type RunManifest struct {
	RunID       string       `json:"run_id"`
	GeneratedAt string       `json:"generated_at"`
	Command     string       `json:"command"`
	Substrate   string       `json:"substrate"`
	Capacity    int          `json:"capacity"`
	MaxWorkers  int          `json:"max_workers,omitempty"`
	InputPath   string       `json:"input_path,omitempty"`
	InputHash   string       `json:"input_hash,omitempty"`
	InputBytes  int64        `json:"input_bytes"`
	Records     int          `json:"records"`
	Workers     int          `json:"workers"`
	HighWater   int          `json:"queue_high_water"`
	TotalPairs  int          `json:"total_pairs"`
	Status      string       `json:"status"` // "success" or "error"
	Error       string       `json:"error,omitempty"`
	TopTopics   []string     `json:"top_topics"`
	Keys        []KeySummary `json:"keys"`
}

// KeySummary is one key's slice of the manifest.
type KeySummary struct {
	Key       string   `json:"key"`
	Topics    int      `json:"topics"`
	Score     int      `json:"score"`
	TopTopics []string `json:"top_topics,omitempty"`
}
