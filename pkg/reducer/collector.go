package reducer

import (
	"errors"
	"fmt"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/scoring"
)

// Collect waits for every worker in reg to reach Done and returns their totals
// in discovery order of key, then topic. It must be called after the registry's
// sentinel broadcast. Totals of workers that failed are omitted and their errors joined.
func Collect(reg *Registry) ([]models.Total, error) {
	var totals []models.Total
	var errs []error

	for _, w := range reg.Workers() {
		t, err := w.Wait()
		if err != nil {
			errs = append(errs, fmt.Errorf("worker %d (key %q): %w", w.ID(), w.Key(), err))
			continue
		}
		totals = append(totals, t...)
	}

	return totals, errors.Join(errs...)
}

// Result is the outcome of a complete run.
type Result struct {
	Totals    []models.Total
	Records   int
	Workers   int
	HighWater int
}

// Run dispatches src, waits for all workers, and collects their totals.
// On a dispatch error the workers already started are still drained and
// whatever they accumulated is returned with the error.
func Run(src RecordSource, table *scoring.Table, opts Options) (*Result, error) {
	d := NewDispatcher(table, opts)
	return finish(d, d.Run(src))
}

// RunScored is Run for pre-scored input.
func RunScored(src ScoredSource, opts Options) (*Result, error) {
	d := NewDispatcher(nil, opts)
	return finish(d, d.RunScored(src))
}

func finish(d *Dispatcher, dispatchErr error) (*Result, error) {
	reg := d.Registry()
	totals, collectErr := Collect(reg)

	res := &Result{
		Totals:  totals,
		Records: d.Records(),
		Workers: reg.Len(),
	}
	for _, w := range reg.Workers() {
		if hw := w.HighWater(); hw > res.HighWater {
			res.HighWater = hw
		}
	}

	return res, errors.Join(dispatchErr, collectErr)
}
