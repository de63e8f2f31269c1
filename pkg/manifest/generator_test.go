package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/topic-scores/models"
	"github.com/dtnitsch/topic-scores/pkg/storage"
)

func totals() []models.Total {
	return []models.Total{
		{Key: "1", Topic: "sports", Score: 70},
		{Key: "2", Topic: "music", Score: 40},
		{Key: "2", Topic: "sports", Score: -10},
	}
}

func TestBuild(t *testing.T) {
	m := Build(RunInfo{RunID: "r1", Command: "run", Substrate: "goroutine", Capacity: 1, Records: 4, Workers: 2, HighWater: 1}, totals())

	if m.Status != "success" || m.Error != "" {
		t.Errorf("Status = %q Error = %q, want success", m.Status, m.Error)
	}
	if m.TotalPairs != 3 {
		t.Errorf("TotalPairs = %d, want 3", m.TotalPairs)
	}

	wantTop := []string{"sports:60", "music:40"}
	if len(m.TopTopics) != len(wantTop) {
		t.Fatalf("TopTopics = %v, want %v", m.TopTopics, wantTop)
	}
	for i := range wantTop {
		if m.TopTopics[i] != wantTop[i] {
			t.Errorf("TopTopics[%d] = %s, want %s", i, m.TopTopics[i], wantTop[i])
		}
	}

	if len(m.Keys) != 2 {
		t.Fatalf("Keys = %+v, want 2 entries", m.Keys)
	}
	if m.Keys[0].Key != "1" || m.Keys[1].Key != "2" {
		t.Errorf("Keys order = %s,%s, want 1,2", m.Keys[0].Key, m.Keys[1].Key)
	}
	if m.Keys[1].Topics != 2 || m.Keys[1].Score != 30 {
		t.Errorf("Keys[1] = %+v, want 2 topics with score 30", m.Keys[1])
	}
}

func TestBuild_Error(t *testing.T) {
	m := Build(RunInfo{Error: errors.New(`unknown verb "X"`)}, nil)

	if m.Status != "error" {
		t.Errorf("Status = %q, want error", m.Status)
	}
	if m.Error != `unknown verb "X"` {
		t.Errorf("Error = %q", m.Error)
	}
	if m.Keys == nil || len(m.Keys) != 0 {
		t.Errorf("Keys = %v, want empty non-nil", m.Keys)
	}
}

func TestGenerateSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "manifest.json")

	got, err := GenerateSummary(RunInfo{RunID: "r2", Command: "reduce"}, totals(), path, &storage.Storage{})
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}
	if got != path {
		t.Errorf("GenerateSummary() path = %s, want %s", got, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if m.RunID != "r2" || m.Command != "reduce" {
		t.Errorf("manifest = %+v", m)
	}
}
