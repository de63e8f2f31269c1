// Package scoring maps action verbs to point values.
package scoring

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Verb codes understood by the default table.
const (
	VerbPost    = "P"
	VerbLike    = "L"
	VerbDislike = "D"
	VerbComment = "C"
	VerbShare   = "S"
)

// UnknownVerbError is returned when a verb has no entry in the table.
type UnknownVerbError struct {
	Verb string
}

func (e *UnknownVerbError) Error() string {
	return fmt.Sprintf("unknown verb %q", e.Verb)
}

// Table is an immutable verb -> score lookup.
type Table struct {
	points map[string]int
}

// Default returns the standard table: post 50, like 20, dislike -10, comment 30, share 40.
func Default() *Table {
	return NewTable(map[string]int{
		VerbPost:    50,
		VerbLike:    20,
		VerbDislike: -10,
		VerbComment: 30,
		VerbShare:   40,
	})
}

// NewTable copies points into a new table.
func NewTable(points map[string]int) *Table {
	t := &Table{points: make(map[string]int, len(points))}
	for verb, score := range points {
		t.points[verb] = score
	}
	return t
}

// Score returns the point value for verb.
func (t *Table) Score(verb string) (int, error) {
	score, ok := t.points[verb]
	if !ok {
		return 0, &UnknownVerbError{Verb: verb}
	}
	return score, nil
}

// Verbs returns all verbs in the table, sorted.
func (t *Table) Verbs() []string {
	verbs := make([]string, 0, len(t.points))
	for v := range t.points {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)
	return verbs
}

// Merge returns a new table with overrides applied on top of t.
func (t *Table) Merge(overrides map[string]int) *Table {
	merged := NewTable(t.points)
	for verb, score := range overrides {
		merged.points[verb] = score
	}
	return merged
}

type tableFile struct {
	Scores map[string]int `yaml:"scores"`
}

// LoadTable reads a YAML file of the form `scores: {P: 50, ...}`.
// The file replaces the default table entirely.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scores file: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scores file %s: %w", path, err)
	}
	if len(f.Scores) == 0 {
		return nil, fmt.Errorf("scores file %s defines no verbs", path)
	}

	return NewTable(f.Scores), nil
}
