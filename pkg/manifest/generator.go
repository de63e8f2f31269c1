package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/mapreduce"
	"github.com/dtnitsch/topic-scores/pkg/storage"
)

// TopN bounds the top_topics lists.
const TopN = 10

// RunInfo describes a finished run.
// This is passed from the CLI layer to avoid importing the reducer here.
type RunInfo struct {
	RunID      string
	Command    string
	Substrate  string
	Capacity   int
	MaxWorkers int
	InputPath  string
	InputHash  string
	InputBytes int64
	Records    int
	Workers    int
	HighWater  int
	Error      error
}

// Build assembles the manifest for a run and its totals.
func Build(info RunInfo, totals []models.Total) RunManifest {
	m := RunManifest{
		RunID:       info.RunID,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Command:     info.Command,
		Substrate:   info.Substrate,
		Capacity:    info.Capacity,
		MaxWorkers:  info.MaxWorkers,
		InputPath:   info.InputPath,
		InputHash:   info.InputHash,
		InputBytes:  info.InputBytes,
		Records:     info.Records,
		Workers:     info.Workers,
		HighWater:   info.HighWater,
		TotalPairs:  len(totals),
		Status:      "success",
		TopTopics:   mapreduce.TopTopics(totals, TopN),
		Keys:        []KeySummary{},
	}
	if info.Error != nil {
		m.Status = "error"
		m.Error = info.Error.Error()
	}

	// Group by key, keeping the collected order
	index := make(map[string]int)
	var groups [][]models.Total
	for _, t := range totals {
		i, ok := index[t.Key]
		if !ok {
			i = len(groups)
			index[t.Key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], t)
	}

	for _, g := range groups {
		summary := KeySummary{
			Key:       g[0].Key,
			Topics:    len(g),
			TopTopics: mapreduce.TopTopics(g, TopN),
		}
		for _, t := range g {
			summary.Score += t.Score
		}
		m.Keys = append(m.Keys, summary)
	}

	return m
}

// GenerateSummary builds the manifest and saves it to path.
// Returns the path to the generated manifest file and any error.
func GenerateSummary(info RunInfo, totals []models.Total, path string, s *storage.Storage) (string, error) {
	if path == "" {
		path = fmt.Sprintf("results/summary-%s.json", time.Now().Format("2006-01-02"))
	}

	manifestData, err := json.MarshalIndent(Build(info, totals), "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshalling manifest: %w", err)
	}

	if err := s.SaveFile(path, manifestData); err != nil {
		return "", fmt.Errorf("error saving manifest: %w", err)
	}

	return path, nil
}
