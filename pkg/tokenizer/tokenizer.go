// Package tokenizer turns raw "(key, verb, topic)" text into records.
package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dtnitsch/topic-scores/models"
)

// FieldsPerRecord is the number of fields in every input record.
const FieldsPerRecord = 3

// MalformedInputError reports a record that could not be assembled.
type MalformedInputError struct {
	Record int // 1-based index of the offending record
	Fields []string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed record #%d (%s): %s", e.Record, strings.Join(e.Fields, ","), e.Reason)
}

// Tokenizer reads records lazily from an io.Reader.
// It is not restartable; once Next returns an error every later call returns it too.
type Tokenizer struct {
	scanner *bufio.Scanner
	records int
	err     error
}

// New creates a Tokenizer over r.
func New(r io.Reader) *Tokenizer {
	scanner := bufio.NewScanner(r)
	scanner.Split(splitFields)
	return &Tokenizer{scanner: scanner}
}

// Next returns the next action record, or io.EOF when the input is exhausted.
func (t *Tokenizer) Next() (models.ActionRecord, error) {
	fields, err := t.next()
	if err != nil {
		return models.ActionRecord{}, err
	}
	return models.ActionRecord{Key: fields[0], Verb: fields[1], Topic: fields[2]}, nil
}

// NextScored reads a (key, topic, score) record, the output format of the map stage.
func (t *Tokenizer) NextScored() (models.ScoredRecord, error) {
	fields, err := t.next()
	if err != nil {
		return models.ScoredRecord{}, err
	}

	score, convErr := strconv.Atoi(fields[2])
	if convErr != nil {
		t.err = &MalformedInputError{Record: t.records, Fields: fields, Reason: "score is not an integer"}
		return models.ScoredRecord{}, t.err
	}
	return models.ScoredRecord{Key: fields[0], Topic: fields[1], Score: score}, nil
}

func (t *Tokenizer) next() ([]string, error) {
	if t.err != nil {
		return nil, t.err
	}

	fields := make([]string, 0, FieldsPerRecord)
	for len(fields) < FieldsPerRecord && t.scanner.Scan() {
		fields = append(fields, t.scanner.Text())
	}

	if err := t.scanner.Err(); err != nil {
		t.err = fmt.Errorf("failed to read input: %w", err)
		return nil, t.err
	}

	switch len(fields) {
	case 0:
		t.err = io.EOF
	case FieldsPerRecord:
		t.records++
		return fields, nil
	default:
		t.records++
		t.err = &MalformedInputError{
			Record: t.records,
			Fields: fields,
			Reason: fmt.Sprintf("expected %d fields, got %d", FieldsPerRecord, len(fields)),
		}
	}
	return nil, t.err
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', ',', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// splitFields is a bufio.SplitFunc yielding the runs of bytes between delimiters.
func splitFields(data []byte, atEOF bool) (int, []byte, error) {
	start := 0
	for start < len(data) && isDelim(data[start]) {
		start++
	}
	for i := start; i < len(data); i++ {
		if isDelim(data[i]) {
			return i + 1, data[start:i], nil
		}
	}
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
