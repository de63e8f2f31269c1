package reducer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/mapreduce"
	"github.com/dtnitsch/topic-scores/pkg/scoring"
	"github.com/dtnitsch/topic-scores/pkg/tokenizer"
)

// sliceSource replays a fixed list of records, then an optional error.
type sliceSource struct {
	records []models.ActionRecord
	pos     int
	err     error
}

func (s *sliceSource) Next() (models.ActionRecord, error) {
	if s.pos < len(s.records) {
		s.pos++
		return s.records[s.pos-1], nil
	}
	if s.err != nil {
		return models.ActionRecord{}, s.err
	}
	return models.ActionRecord{}, io.EOF
}

func parse(input string) *tokenizer.Tokenizer {
	return tokenizer.New(strings.NewReader(input))
}

func sorted(totals []models.Total) []models.Total {
	out := append([]models.Total(nil), totals...)
	mapreduce.SortTotals(out)
	return out
}

func TestRun_Scenario(t *testing.T) {
	res, err := Run(parse("(1,P,sports)(1,L,sports)(2,S,music)"), scoring.Default(), Options{Capacity: 1})
	require.NoError(t, err)

	assert.ElementsMatch(t, []models.Total{
		{Key: "1", Topic: "sports", Score: 70},
		{Key: "2", Topic: "music", Score: 40},
	}, res.Totals)
	assert.Equal(t, 3, res.Records)
	assert.Equal(t, 2, res.Workers)
	assert.Equal(t, 1, res.HighWater)
}

func TestRun_DiscoveryOrder(t *testing.T) {
	res, err := Run(parse("(b,P,x)(a,P,y)(b,L,z)(b,S,x)(a,C,y)"), scoring.Default(), Options{Capacity: 4})
	require.NoError(t, err)

	assert.Equal(t, []models.Total{
		{Key: "b", Topic: "x", Score: 90},
		{Key: "b", Topic: "z", Score: 20},
		{Key: "a", Topic: "y", Score: 80},
	}, res.Totals)
}

func TestRun_UnknownVerb(t *testing.T) {
	res, err := Run(parse("(1,X,sports)"), scoring.Default(), Options{Capacity: 1})
	require.Error(t, err)

	var uve *scoring.UnknownVerbError
	require.True(t, errors.As(err, &uve))
	assert.Equal(t, "X", uve.Verb)
	assert.Contains(t, err.Error(), "(1,X,sports)")
	assert.Empty(t, res.Totals)
	assert.Equal(t, 0, res.Workers)
}

func TestRun_EmptyInput(t *testing.T) {
	res, err := Run(parse(""), scoring.Default(), Options{Capacity: 3})
	require.NoError(t, err)
	assert.Empty(t, res.Totals)
	assert.Equal(t, 0, res.Workers)
	assert.Equal(t, 0, res.Records)
}

func TestRun_OneWorkerPerKey(t *testing.T) {
	var sb strings.Builder
	const keys = 25
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&sb, "(user%d, L, t%d)\n", i%keys, i%3)
	}

	d := NewDispatcher(scoring.Default(), Options{Capacity: 2})
	require.NoError(t, d.Run(parse(sb.String())))
	_, err := Collect(d.Registry())
	require.NoError(t, err)

	workers := d.Registry().Workers()
	require.Len(t, workers, keys)
	seen := make(map[string]bool)
	for i, w := range workers {
		assert.Equal(t, Done, w.State(), "worker %s", w.Key())
		assert.Equal(t, i+1, w.ID())
		assert.False(t, seen[w.Key()], "duplicate worker for %s", w.Key())
		seen[w.Key()] = true
		assert.Equal(t, 400/keys, w.Tuples())
	}
}

func TestRun_MatchesSequentialReducer(t *testing.T) {
	verbs := []string{"P", "L", "D", "C", "S"}
	rng := rand.New(rand.NewSource(42))

	for _, capacity := range []int{1, 2, 16} {
		t.Run(fmt.Sprintf("capacity=%d", capacity), func(t *testing.T) {
			records := make([]models.ActionRecord, 2000)
			for i := range records {
				records[i] = models.ActionRecord{
					Key:   fmt.Sprintf("k%d", rng.Intn(40)),
					Verb:  verbs[rng.Intn(len(verbs))],
					Topic: fmt.Sprintf("topic%d", rng.Intn(7)),
				}
			}

			scored, err := mapreduce.MapAll(&sliceSource{records: records}, scoring.Default())
			require.NoError(t, err)
			want := mapreduce.Reduce(scored)

			res, err := Run(&sliceSource{records: records}, scoring.Default(), Options{Capacity: capacity})
			require.NoError(t, err)

			assert.Equal(t, sorted(want), sorted(res.Totals))
			assert.Equal(t, want, res.Totals, "discovery order should match the sequential reducer")
			assert.LessOrEqual(t, res.HighWater, capacity)
		})
	}
}

// gateFolder blocks every Add until its gate is closed. entered is closed the
// first time Add is called.
type gateFolder struct {
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
	Folder
}

func (f *gateFolder) Add(t models.ScoredTuple) error {
	f.once.Do(func() { close(f.entered) })
	<-f.gate
	return f.Folder.Add(t)
}

func TestRun_BackpressureStallsDispatcher(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	opts := Options{
		Capacity: 2,
		Folders: func(key string) (Folder, error) {
			inner, _ := MemoryFolders(key)
			return &gateFolder{gate: gate, entered: entered, Folder: inner}, nil
		},
	}

	d := NewDispatcher(scoring.Default(), opts)
	dispatched := make(chan error, 1)
	go func() {
		dispatched <- d.Run(parse("(1,P,a)(1,P,a)(1,P,a)(1,P,a)(1,P,a)"))
	}()

	// The worker is stuck on tuple 1, so only the dispatcher can still move.
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never started folding")
	}

	// Two tuples queued behind it, the fourth push blocked.
	require.Eventually(t, func() bool {
		ws := d.Registry().Workers()
		return len(ws) == 1 && ws[0].queue.Len() == 2 && ws[0].queue.PushWaiters() == 1
	}, 2*time.Second, time.Millisecond)

	w := d.Registry().Workers()[0]
	assert.Equal(t, 2, w.queue.Len())
	assert.Equal(t, Running, w.State())
	select {
	case <-dispatched:
		t.Fatal("dispatcher finished while a queue was full")
	default:
	}

	close(gate)
	require.NoError(t, <-dispatched)

	totals, err := Collect(d.Registry())
	require.NoError(t, err)
	assert.Equal(t, []models.Total{{Key: "1", Topic: "a", Score: 250}}, totals)
	assert.Equal(t, 2, w.HighWater())
}

func TestRun_WorkerLimit(t *testing.T) {
	res, err := Run(parse("(a,P,x)(b,P,x)(a,L,x)(c,P,x)(a,S,x)"), scoring.Default(), Options{Capacity: 1, MaxWorkers: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWorkerLimit))
	assert.Contains(t, err.Error(), `"c"`)

	assert.Equal(t, 2, res.Workers)
	assert.ElementsMatch(t, []models.Total{
		{Key: "a", Topic: "x", Score: 70},
		{Key: "b", Topic: "x", Score: 50},
	}, res.Totals)
}

func TestRun_AbortReleasesWorkers(t *testing.T) {
	boom := errors.New("read failed")
	src := &sliceSource{
		records: []models.ActionRecord{
			{Key: "1", Verb: "P", Topic: "a"},
			{Key: "2", Verb: "P", Topic: "b"},
			{Key: "3", Verb: "P", Topic: "c"},
		},
		err: boom,
	}

	d := NewDispatcher(scoring.Default(), Options{Capacity: 1})
	err := d.Run(src)
	require.ErrorIs(t, err, boom)

	done := make(chan struct{})
	go func() {
		_, _ = Collect(d.Registry())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not finish after abort broadcast")
	}

	for _, w := range d.Registry().Workers() {
		assert.Equal(t, Done, w.State())
	}
}

func TestRun_MalformedInputKeepsPartialTotals(t *testing.T) {
	res, err := Run(parse("(1,P,sports)(2,L"), scoring.Default(), Options{Capacity: 1})

	var mie *tokenizer.MalformedInputError
	require.True(t, errors.As(err, &mie))
	assert.Equal(t, []models.Total{{Key: "1", Topic: "sports", Score: 50}}, res.Totals)
}

// failFolder rejects every tuple.
type failFolder struct{}

func (failFolder) Add(models.ScoredTuple) error     { return errors.New("pipe closed") }
func (failFolder) Finish() ([]models.Total, error) { return nil, nil }

func TestCollect_FolderFailure(t *testing.T) {
	opts := Options{
		Capacity: 1,
		Folders: func(key string) (Folder, error) {
			if key == "bad" {
				return failFolder{}, nil
			}
			return MemoryFolders(key)
		},
	}

	res, err := Run(parse("(good,P,x)(bad,P,x)(bad,L,x)(good,L,x)"), scoring.Default(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "bad"`)
	assert.Contains(t, err.Error(), "pipe closed")
	assert.Equal(t, []models.Total{{Key: "good", Topic: "x", Score: 70}}, res.Totals)
}

func TestRun_FolderFactoryFailure(t *testing.T) {
	opts := Options{
		Capacity: 1,
		Folders: func(key string) (Folder, error) {
			return nil, errors.New("exec: not found")
		},
	}

	res, err := Run(parse("(1,P,x)"), scoring.Default(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec: not found")
	assert.Equal(t, 0, res.Workers)
}

func TestRunScored(t *testing.T) {
	res, err := RunScored(parse("(1, sports, 50)\n(2, music, 40)\n(1, sports, 20)\n"), Options{Capacity: 1})
	require.NoError(t, err)
	assert.Equal(t, []models.Total{
		{Key: "1", Topic: "sports", Score: 70},
		{Key: "2", Topic: "music", Score: 40},
	}, res.Totals)
}

func TestRegistry_GetOrCreateOnce(t *testing.T) {
	reg := NewRegistry(Options{Capacity: 4})
	keys := []string{"a", "b", "c", "d", "e"}

	var created sync.Map
	var mu sync.Mutex
	createdCount := 0

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := keys[i%len(keys)]
				w, isNew, err := reg.GetOrCreate(key)
				if !assert.NoError(t, err) {
					return
				}
				prev, loaded := created.LoadOrStore(key, w)
				if loaded {
					assert.Same(t, prev, w)
				}
				if isNew {
					mu.Lock()
					createdCount++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(keys), createdCount)
	assert.Equal(t, len(keys), reg.Len())
	assert.ElementsMatch(t, keys, reg.Keys())

	reg.Broadcast()
	_, err := Collect(reg)
	require.NoError(t, err)
}

func TestRegistry_ClosedAfterBroadcast(t *testing.T) {
	reg := NewRegistry(Options{Capacity: 1})
	w, _, err := reg.GetOrCreate("a")
	require.NoError(t, err)

	reg.Broadcast()
	reg.Broadcast()

	_, _, err = reg.GetOrCreate("b")
	assert.ErrorIs(t, err, ErrRegistryClosed)

	same, created, err := reg.GetOrCreate("a")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, w, same)

	totals, err := w.Wait()
	require.NoError(t, err)
	assert.Empty(t, totals)
	assert.Equal(t, Done, w.State())
}

func TestRegistry_MultipleProducers(t *testing.T) {
	reg := NewRegistry(Options{Capacity: 2})

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				w, _, err := reg.GetOrCreate(fmt.Sprintf("k%d", i%5))
				if !assert.NoError(t, err) {
					return
				}
				w.Push(models.ScoredTuple{Topic: "t", Score: 1})
			}
		}(p)
	}
	wg.Wait()
	reg.Broadcast()

	totals, err := Collect(reg)
	require.NoError(t, err)
	require.Len(t, totals, 5)
	for _, total := range totals {
		assert.Equal(t, 200, total.Score, "key %s", total.Key)
	}
}

func TestNewRegistry_InvalidCapacity(t *testing.T) {
	assert.Panics(t, func() { NewRegistry(Options{}) })
}

func TestRegistry_LogsQueueCapacity(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := NewRegistry(Options{Capacity: 3, Logger: logger})

	_, _, err := reg.GetOrCreate("a")
	require.NoError(t, err)
	reg.Broadcast()
	_, err = Collect(reg)
	require.NoError(t, err)

	var created map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "Worker created" {
			created = entry
		}
	}
	require.NotNil(t, created, "no Worker created entry in %s", buf.String())
	assert.Equal(t, "a", created["key"])
	assert.EqualValues(t, 3, created["capacity"])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "state(9)", State(9).String())
}
