package models

import "fmt"

// ActionRecord is one parsed (key, verb, topic) input record.
type ActionRecord struct {
	Key   string
	Verb  string
	Topic string
}

// ScoredRecord is an action record whose verb has been replaced by its score.
// It is the output of the map stage and the input of the reduce stage.
type ScoredRecord struct {
	Key   string `json:"key" yaml:"key"`
	Topic string `json:"topic" yaml:"topic"`
	Score int    `json:"score" yaml:"score"`
}

func (r ScoredRecord) String() string {
	return fmt.Sprintf("(%s,%s,%d)", r.Key, r.Topic, r.Score)
}

// ScoredTuple is the unit routed into a single worker's queue.
type ScoredTuple struct {
	Topic string `json:"topic"`
	Score int    `json:"score"`
}

// Total is the accumulated score of one topic for one key.
type Total struct {
	Key   string `json:"key" yaml:"key"`
	Topic string `json:"topic" yaml:"topic"`
	Score int    `json:"score" yaml:"score"`
}

func (t Total) String() string {
	return fmt.Sprintf("(%s,%s,%d)", t.Key, t.Topic, t.Score)
}
