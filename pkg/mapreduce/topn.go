package mapreduce

import (
	"fmt"
	"sort"

	"github.com/dtnitsch/topic-scores/models"
)

// TopicScores sums totals across all keys, per topic.
func TopicScores(totals []models.Total) map[string]int {
	byTopic := make(map[string]int)
	for _, t := range totals {
		byTopic[t.Topic] += t.Score
	}
	return byTopic
}

// TopTopics returns the top N topics across all keys as "topic:score" strings.
// Ties are broken alphabetically so the result is stable.
func TopTopics(totals []models.Total, n int) []string {
	type kv struct {
		Key   string
		Value int
	}

	var ss []kv
	for k, v := range TopicScores(totals) {
		ss = append(ss, kv{k, v})
	}

	// Sort by score (descending)
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Value != ss[j].Value {
			return ss[i].Value > ss[j].Value
		}
		return ss[i].Key < ss[j].Key
	})

	limit := n
	if len(ss) < n {
		limit = len(ss)
	}
	if limit < 0 {
		limit = 0
	}

	topics := make([]string, limit)
	for i := 0; i < limit; i++ {
		topics[i] = fmt.Sprintf("%s:%d", ss[i].Key, ss[i].Value)
	}
	return topics
}

// SortTotals orders totals by key, then topic. Used when output is compared as a set.
func SortTotals(totals []models.Total) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Key != totals[j].Key {
			return totals[i].Key < totals[j].Key
		}
		return totals[i].Topic < totals[j].Topic
	})
}
