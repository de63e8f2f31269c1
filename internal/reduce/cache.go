package reduce

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dtnitsch/topic-scores/pkg/caching"
	"github.com/dtnitsch/topic-scores/pkg/reducer"
)

// The worker limit decides whether a run succeeds at all and the capacity
// bounds the reported queue high water, so both are part of the key.
// Substrate and sequential mode never change the result.
func cacheKey(command string, s *Settings, input []byte) string {
	var table strings.Builder
	for _, verb := range s.Table.Verbs() {
		score, _ := s.Table.Score(verb)
		fmt.Fprintf(&table, "%s=%d;", verb, score)
	}
	limits := fmt.Sprintf("capacity=%d;max_workers=%d", s.Config.Capacity, s.Config.MaxWorkers)
	return caching.Key([]byte(command), []byte(s.InputFormat), []byte(limits), []byte(table.String()), input)
}

// CachedExecute runs execute unless a fresh result for the same input is in
// s.CacheDir. Only successful results are cached. The bool reports a hit.
func CachedExecute(command string, s *Settings, input []byte, execute executor, logger *slog.Logger) (*reducer.Result, bool, error) {
	if s.CacheDir == "" {
		res, err := execute(s, input, logger)
		return res, false, err
	}

	cache, err := caching.NewCache(s.CacheDir, s.MaxAge)
	if err != nil {
		return nil, false, err
	}
	key := cacheKey(command, s, input)

	if data, ok := cache.Get(key); ok {
		var res reducer.Result
		if err := json.Unmarshal(data, &res); err == nil {
			return &res, true, nil
		}
		if logger != nil {
			logger.Warn("ignoring unreadable cache entry", "key", key)
		}
	}

	res, err := execute(s, input, logger)
	if err != nil {
		return res, false, err
	}

	data, err := json.Marshal(res)
	if err == nil {
		err = cache.Set(key, data)
	}
	if err != nil && logger != nil {
		logger.Warn("failed to cache result", "error", err)
	}
	return res, false, nil
}
