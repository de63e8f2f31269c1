package mapreduce

import "github.com/dtnitsch/topic-scores/models"

// Aggregate sums scores per topic and remembers the order topics were first seen.
// It is not safe for concurrent use; each worker owns its own.
type Aggregate struct {
	topics []string
	scores map[string]int
}

func NewAggregate() *Aggregate {
	return &Aggregate{scores: make(map[string]int)}
}

// Add merges score into topic's running total.
func (a *Aggregate) Add(topic string, score int) {
	if _, ok := a.scores[topic]; !ok {
		a.topics = append(a.topics, topic)
	}
	a.scores[topic] += score
}

// Len returns the number of distinct topics.
func (a *Aggregate) Len() int {
	return len(a.topics)
}

// Totals returns one Total per topic, in first-seen order.
func (a *Aggregate) Totals(key string) []models.Total {
	out := make([]models.Total, 0, len(a.topics))
	for _, topic := range a.topics {
		out = append(out, models.Total{Key: key, Topic: topic, Score: a.scores[topic]})
	}
	return out
}
