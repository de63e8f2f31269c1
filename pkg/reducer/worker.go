// Package reducer routes scored tuples to one worker per key and collects their totals.
//
// A single Dispatcher reads records, scores them, and pushes each tuple into
// the bounded queue of the worker owning the record's key. Workers are created
// by the Registry the first time a key is seen. End of input, and any fatal
// error, is signalled by pushing a sentinel through every worker's queue.
package reducer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/mapreduce"
	"github.com/dtnitsch/topic-scores/pkg/queue"
)

// State is a worker's lifecycle stage.
type State int32

const (
	Running State = iota
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Folder accumulates the tuples of one key.
// Add is called once per tuple in FIFO order; Finish once, after the sentinel.
type Folder interface {
	Add(t models.ScoredTuple) error
	Finish() ([]models.Total, error)
}

// FolderFactory creates the Folder for a newly discovered key.
type FolderFactory func(key string) (Folder, error)

// memoryFolder folds tuples in the worker's own goroutine.
type memoryFolder struct {
	key string
	agg *mapreduce.Aggregate
}

// MemoryFolders is the default FolderFactory.
func MemoryFolders(key string) (Folder, error) {
	return &memoryFolder{key: key, agg: mapreduce.NewAggregate()}, nil
}

func (f *memoryFolder) Add(t models.ScoredTuple) error {
	f.agg.Add(t.Topic, t.Score)
	return nil
}

func (f *memoryFolder) Finish() ([]models.Total, error) {
	return f.agg.Totals(f.key), nil
}

// Worker owns the queue and aggregate for exactly one key.
type Worker struct {
	id     int
	key    string
	queue  *queue.Queue[models.ScoredTuple]
	folder Folder
	logger *slog.Logger

	mu    sync.Mutex
	state State

	sentinel sync.Once
	done     chan struct{}

	// Written by run before done is closed; read only after.
	totals []models.Total
	tuples int
	err    error
}

func newWorker(id int, key string, capacity int, folder Folder, logger *slog.Logger) *Worker {
	return &Worker{
		id:     id,
		key:    key,
		queue:  queue.New[models.ScoredTuple](capacity),
		folder: folder,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// ID returns the 1-based creation index of the worker.
func (w *Worker) ID() int { return w.id }

// Key returns the key this worker aggregates.
func (w *Worker) Key() string { return w.key }

// State returns the current lifecycle stage.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// HighWater returns the deepest the worker's queue has been.
func (w *Worker) HighWater() int { return w.queue.HighWater() }

// Push enqueues a tuple, blocking while the worker's queue is full.
func (w *Worker) Push(t models.ScoredTuple) {
	w.queue.Push(t)
}

// finish enqueues the end-of-stream sentinel. Only the first call has effect.
func (w *Worker) finish() {
	w.sentinel.Do(w.queue.PushDone)
}

// Wait blocks until the worker is Done and returns its totals.
func (w *Worker) Wait() ([]models.Total, error) {
	<-w.done
	return w.totals, w.err
}

// Tuples returns how many tuples the worker consumed. Valid after Wait.
func (w *Worker) Tuples() int {
	<-w.done
	return w.tuples
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		t, done := w.queue.Pop()
		if done {
			break
		}
		w.tuples++

		// After a fold failure keep draining so the producer never stalls on a dead worker.
		if w.err != nil {
			continue
		}
		if err := w.folder.Add(t); err != nil {
			w.err = fmt.Errorf("fold tuple %d: %w", w.tuples, err)
			w.logger.Error("Worker fold failed", "worker_id", w.id, "key", w.key, "error", err)
		}
	}

	w.setState(Draining)
	totals, err := w.folder.Finish()
	if w.err == nil && err != nil {
		w.err = fmt.Errorf("finish: %w", err)
	}
	if w.err == nil {
		w.totals = totals
	}
	w.setState(Done)

	w.logger.Debug("Worker done", "worker_id", w.id, "key", w.key, "tuples", w.tuples, "topics", len(w.totals), "high_water", w.queue.HighWater())
}
