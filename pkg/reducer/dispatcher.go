package reducer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/scoring"
)

// RecordSource yields action records until io.EOF.
type RecordSource interface {
	Next() (models.ActionRecord, error)
}

// ScoredSource yields already-scored records until io.EOF.
type ScoredSource interface {
	NextScored() (models.ScoredRecord, error)
}

// Dispatcher is the single producer of a run. It owns the Registry.
type Dispatcher struct {
	table    *scoring.Table
	registry *Registry
	logger   *slog.Logger
	records  int
}

// NewDispatcher creates a dispatcher with a fresh registry built from opts.
func NewDispatcher(table *scoring.Table, opts Options) *Dispatcher {
	registry := NewRegistry(opts)
	return &Dispatcher{
		table:    table,
		registry: registry,
		logger:   registry.opts.Logger,
	}
}

// Registry returns the registry the dispatcher routes into.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Records returns how many records were routed to workers.
func (d *Dispatcher) Records() int { return d.records }

// Run scores and routes every record from src. On io.EOF it sends the sentinel
// to every worker. On any other error it sends the same sentinel so no worker
// is left blocked, and returns the error.
func (d *Dispatcher) Run(src RecordSource) error {
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return d.abort(err)
		}

		score, err := d.table.Score(rec.Verb)
		if err != nil {
			return d.abort(fmt.Errorf("record #%d (%s,%s,%s): %w", d.records+1, rec.Key, rec.Verb, rec.Topic, err))
		}

		if err := d.route(rec.Key, models.ScoredTuple{Topic: rec.Topic, Score: score}); err != nil {
			return d.abort(err)
		}
	}

	d.registry.Broadcast()
	d.logger.Debug("Dispatcher finished", "records", d.records, "workers", d.registry.Len())
	return nil
}

// RunScored routes pre-scored records, skipping the scoring table.
func (d *Dispatcher) RunScored(src ScoredSource) error {
	for {
		rec, err := src.NextScored()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return d.abort(err)
		}

		if err := d.route(rec.Key, models.ScoredTuple{Topic: rec.Topic, Score: rec.Score}); err != nil {
			return d.abort(err)
		}
	}

	d.registry.Broadcast()
	d.logger.Debug("Dispatcher finished", "records", d.records, "workers", d.registry.Len())
	return nil
}

func (d *Dispatcher) route(key string, t models.ScoredTuple) error {
	w, _, err := d.registry.GetOrCreate(key)
	if err != nil {
		return err
	}
	w.Push(t)
	d.records++
	return nil
}

func (d *Dispatcher) abort(err error) error {
	d.logger.Error("Dispatcher aborting run", "records", d.records, "workers", d.registry.Len(), "error", err)
	d.registry.Broadcast()
	return err
}
