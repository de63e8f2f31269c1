package reduce

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/mapreduce"
	"github.com/dtnitsch/topic-scores/pkg/procworker"
	"github.com/dtnitsch/topic-scores/pkg/reducer"
	"github.com/dtnitsch/topic-scores/pkg/tokenizer"
)

// NewSource parses data as action records in the given input format.
func NewSource(format string, data []byte) (reducer.RecordSource, error) {
	switch format {
	case InputHTML:
		src, err := tokenizer.FromHTML(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return src, nil
	case InputText, "":
		return tokenizer.New(bytes.NewReader(data)), nil
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

func engineOptions(s *Settings, logger *slog.Logger) (reducer.Options, error) {
	opts := reducer.Options{
		Capacity:   s.Config.Capacity,
		MaxWorkers: s.Config.MaxWorkers,
		Logger:     logger,
	}

	if s.Config.Substrate == models.SubstrateProcess {
		command := s.Command
		if command == nil {
			var err error
			command, err = procworker.SelfCommand()
			if err != nil {
				return opts, err
			}
		}
		opts.Folders = procworker.Folders(command)
	}
	return opts, nil
}

// Execute maps and reduces action records. The result is non-nil whenever
// the input could be opened, and carries partial totals alongside an error.
func Execute(s *Settings, data []byte, logger *slog.Logger) (*reducer.Result, error) {
	src, err := NewSource(s.InputFormat, data)
	if err != nil {
		return nil, err
	}

	if s.Config.Sequential {
		records, err := mapreduce.MapAll(src, s.Table)
		return sequentialResult(records), err
	}

	opts, err := engineOptions(s, logger)
	if err != nil {
		return nil, err
	}
	return reducer.Run(src, s.Table, opts)
}

// ExecuteScored reduces pre-scored (key, topic, score) records.
func ExecuteScored(s *Settings, data []byte, logger *slog.Logger) (*reducer.Result, error) {
	tok := tokenizer.New(bytes.NewReader(data))

	if s.Config.Sequential {
		var records []models.ScoredRecord
		for {
			rec, err := tok.NextScored()
			if errors.Is(err, io.EOF) {
				return sequentialResult(records), nil
			}
			if err != nil {
				return sequentialResult(records), err
			}
			records = append(records, rec)
		}
	}

	opts, err := engineOptions(s, logger)
	if err != nil {
		return nil, err
	}
	return reducer.RunScored(tok, opts)
}

// MapRecords scores action records without reducing them.
func MapRecords(s *Settings, data []byte) ([]models.ScoredRecord, error) {
	src, err := NewSource(s.InputFormat, data)
	if err != nil {
		return nil, err
	}
	return mapreduce.MapAll(src, s.Table)
}

func sequentialResult(records []models.ScoredRecord) *reducer.Result {
	keys := make(map[string]struct{})
	for _, r := range records {
		keys[r.Key] = struct{}{}
	}
	return &reducer.Result{
		Totals:  mapreduce.Reduce(records),
		Records: len(records),
		Workers: len(keys),
	}
}
