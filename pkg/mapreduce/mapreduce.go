package mapreduce

import (
	"errors"
	"fmt"
	"io"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/scoring"
)

// Map scores a single action record.
func Map(rec models.ActionRecord, table *scoring.Table) (models.ScoredRecord, error) {
	score, err := table.Score(rec.Verb)
	if err != nil {
		return models.ScoredRecord{}, err
	}
	return models.ScoredRecord{Key: rec.Key, Topic: rec.Topic, Score: score}, nil
}

// Reduce aggregates scored records into per-(key, topic) totals,
// ordered by first appearance of key, then of topic within the key.
func Reduce(records []models.ScoredRecord) []models.Total {
	var keys []string
	aggregates := make(map[string]*Aggregate)

	for _, rec := range records {
		agg, ok := aggregates[rec.Key]
		if !ok {
			agg = NewAggregate()
			aggregates[rec.Key] = agg
			keys = append(keys, rec.Key)
		}
		agg.Add(rec.Topic, rec.Score)
	}

	finalResults := []models.Total{}
	for _, key := range keys {
		finalResults = append(finalResults, aggregates[key].Totals(key)...)
	}
	return finalResults
}

// ActionSource yields action records until io.EOF.
type ActionSource interface {
	Next() (models.ActionRecord, error)
}

// MapAll drains src through Map. It stops at the first error and returns
// the records mapped so far alongside it.
func MapAll(src ActionSource, table *scoring.Table) ([]models.ScoredRecord, error) {
	var out []models.ScoredRecord
	for n := 1; ; n++ {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}

		scored, err := Map(rec, table)
		if err != nil {
			return out, fmt.Errorf("record #%d (%s,%s,%s): %w", n, rec.Key, rec.Verb, rec.Topic, err)
		}
		out = append(out, scored)
	}
}
