package reducer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrWorkerLimit is returned when a new key would exceed Options.MaxWorkers.
	ErrWorkerLimit = errors.New("worker limit reached")
	// ErrRegistryClosed is returned when a key is first seen after the sentinel broadcast.
	ErrRegistryClosed = errors.New("registry closed")
)

// Options configures a registry and the workers it creates.
type Options struct {
	// Capacity is the bounded queue size of every worker. Must be positive.
	Capacity int
	// MaxWorkers caps the number of distinct keys; 0 means unlimited.
	MaxWorkers int
	// Folders creates each worker's folder. Defaults to MemoryFolders.
	Folders FolderFactory
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Folders == nil {
		o.Folders = MemoryFolders
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Registry maps keys to workers, creating each worker at most once.
// Its mutex guards only the map and is never held across a queue push.
type Registry struct {
	opts Options

	mu      sync.Mutex
	workers map[string]*Worker
	order   []*Worker
	closed  bool
}

// NewRegistry returns an empty registry. It panics if opts.Capacity is not positive.
func NewRegistry(opts Options) *Registry {
	if opts.Capacity <= 0 {
		panic(fmt.Sprintf("reducer: capacity must be positive, got %d", opts.Capacity))
	}
	return &Registry{
		opts:    opts.withDefaults(),
		workers: make(map[string]*Worker),
	}
}

// GetOrCreate returns the worker for key, creating and starting it if the key is new.
// created reports whether this call made the worker.
func (r *Registry) GetOrCreate(key string) (w *Worker, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workers[key]; ok {
		return w, false, nil
	}
	if r.closed {
		return nil, false, fmt.Errorf("key %q: %w", key, ErrRegistryClosed)
	}
	if r.opts.MaxWorkers > 0 && len(r.order) >= r.opts.MaxWorkers {
		return nil, false, fmt.Errorf("key %q needs worker %d of %d: %w", key, len(r.order)+1, r.opts.MaxWorkers, ErrWorkerLimit)
	}

	folder, err := r.opts.Folders(key)
	if err != nil {
		return nil, false, fmt.Errorf("start worker for key %q: %w", key, err)
	}

	w = newWorker(len(r.order)+1, key, r.opts.Capacity, folder, r.opts.Logger)
	r.workers[key] = w
	r.order = append(r.order, w)
	go w.run()

	r.opts.Logger.Debug("Worker created", "worker_id", w.id, "key", key, "capacity", w.queue.Cap())
	return w, true, nil
}

// Broadcast pushes the end-of-stream sentinel to every registered worker and
// closes the registry to new keys. It is used both on normal completion and to
// abort a run after a fatal error. Calling it more than once is harmless.
func (r *Registry) Broadcast() {
	r.mu.Lock()
	r.closed = true
	workers := make([]*Worker, len(r.order))
	copy(workers, r.order)
	r.mu.Unlock()

	// Outside the lock: PushDone blocks while a worker's queue is full.
	for _, w := range workers {
		w.finish()
	}
}

// Workers returns the registered workers in discovery order.
func (r *Registry) Workers() []*Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Worker, len(r.order))
	copy(out, r.order)
	return out
}

// Keys returns the registered keys in discovery order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.order))
	for i, w := range r.order {
		keys[i] = w.key
	}
	return keys
}

// Len returns the number of workers created so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
