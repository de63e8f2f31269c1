// Package procworker runs a worker's fold in a child process.
//
// The parent streams one JSON object per line to the child's stdin: a tuple
// {"topic":..,"score":..} or the end-of-stream sentinel {"done":true}. After
// the sentinel the child writes a single report {"key":..,"totals":[..]} to
// stdout and exits. Backpressure stays in the parent's bounded queue; the pipe
// only carries what the worker has already dequeued.
package procworker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/mapreduce"
	"github.com/dtnitsch/topic-scores/pkg/reducer"
)

// WorkerCommand is the CLI subcommand a child is started with.
const WorkerCommand = "worker"

type message struct {
	Topic string `json:"topic,omitempty"`
	Score int    `json:"score,omitempty"`
	Done  bool   `json:"done,omitempty"`
}

type report struct {
	Key    string               `json:"key"`
	Totals []models.ScoredTuple `json:"totals"`
}

// Command builds the child process command for a key.
type Command func(key string) *exec.Cmd

// SelfCommand returns a Command that re-executes the running binary as
// `<binary> worker --key <key>`.
func SelfCommand() (Command, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return func(key string) *exec.Cmd {
		return exec.Command(exe, WorkerCommand, "--key", key)
	}, nil
}

// Folders returns a reducer.FolderFactory that starts one child per key.
func Folders(command Command) reducer.FolderFactory {
	return func(key string) (reducer.Folder, error) {
		return Start(key, command(key))
	}
}

// Folder is the parent-side handle of one child worker process.
type Folder struct {
	key    string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	enc    *json.Encoder
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// Start launches cmd as the worker process for key.
func Start(key string, cmd *exec.Cmd) (*Folder, error) {
	f := &Folder{key: key, cmd: cmd}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdin: %w", err)
	}
	cmd.Stdout = &f.stdout
	cmd.Stderr = &f.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker process: %w", err)
	}

	f.stdin = stdin
	f.enc = json.NewEncoder(stdin)
	return f, nil
}

// Add forwards one tuple to the child.
func (f *Folder) Add(t models.ScoredTuple) error {
	return f.enc.Encode(message{Topic: t.Topic, Score: t.Score})
}

// Finish sends the sentinel, waits for the child to exit, and decodes its report.
func (f *Folder) Finish() ([]models.Total, error) {
	sendErr := f.enc.Encode(message{Done: true})
	closeErr := f.stdin.Close()

	if err := f.cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(f.stderr.String()); msg != "" {
			return nil, fmt.Errorf("worker process exited: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("worker process exited: %w", err)
	}
	var rep report
	if err := json.Unmarshal(f.stdout.Bytes(), &rep); err != nil {
		return nil, fmt.Errorf("failed to decode worker report: %w", err)
	}
	if rep.Key != f.key {
		return nil, fmt.Errorf("worker reported key %q, want %q", rep.Key, f.key)
	}
	if err := errors.Join(sendErr, closeErr); err != nil {
		return nil, fmt.Errorf("failed to send sentinel: %w", err)
	}

	totals := make([]models.Total, len(rep.Totals))
	for i, t := range rep.Totals {
		totals[i] = models.Total{Key: f.key, Topic: t.Topic, Score: t.Score}
	}
	return totals, nil
}

// Serve is the child side: it folds tuples from r until the sentinel and
// writes the report for key to w. Input that ends without a sentinel is an error.
func Serve(key string, r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(r)
	agg := mapreduce.NewAggregate()

	for {
		var m message
		if err := dec.Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("input ended before the done sentinel")
			}
			return fmt.Errorf("failed to decode tuple: %w", err)
		}
		if m.Done {
			break
		}
		agg.Add(m.Topic, m.Score)
	}

	rep := report{Key: key, Totals: make([]models.ScoredTuple, 0, agg.Len())}
	for _, t := range agg.Totals(key) {
		rep.Totals = append(rep.Totals, models.ScoredTuple{Topic: t.Topic, Score: t.Score})
	}
	return json.NewEncoder(w).Encode(rep)
}
