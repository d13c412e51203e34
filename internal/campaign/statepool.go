package campaign

import (
	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
	"github.com/fluxfuzzer/fluxfuzzer/internal/state"
)

// StatefulSeeder extracts dynamic values (tokens, IDs, session cookies) out
// of response bodies as they come back from the target and recycles them
// into the corpus as new seeds. A value a server just handed back -
// e.g. a freshly minted object ID - is often a far more productive
// mutation starting point than whatever the original seed was.
type StatefulSeeder struct {
	pool      *state.Pool
	extractor *state.Extractor
	key       string
}

// NewStatefulSeeder builds a seeder with one named extraction rule. Values
// it extracts from rule are pooled under key and replayed into the corpus
// by Harvest.
func NewStatefulSeeder(key string, rule *state.ExtractionRule) (*StatefulSeeder, error) {
	extractor := state.NewExtractor()
	if err := extractor.AddRule(rule); err != nil {
		return nil, err
	}
	return &StatefulSeeder{
		pool:      state.NewPool(nil),
		extractor: extractor,
		key:       key,
	}, nil
}

// Observe runs the extraction rules against one response body and pools
// whatever matches.
func (s *StatefulSeeder) Observe(statusCode int, body []byte) {
	results := s.extractor.Extract(&state.ExtractionInput{
		Body:       body,
		StatusCode: statusCode,
	})
	for _, r := range results {
		if r.Found && r.Value != "" {
			s.pool.AddWithSource(s.key, r.Value, "response")
		}
	}
}

// Harvest drains newly pooled values not yet added to corpus, seeding each
// as its own testcase so the scheduler can pick it up like any other entry.
func (s *StatefulSeeder) Harvest(corpus fuzzcore.MutableCorpus, seen map[string]bool) int {
	values := s.pool.GetAll(s.key)
	added := 0
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		data := []byte(v)
		entry := &coverage.CorpusEntry{
			Data:   data,
			Hash:   coverage.ContentHash(data),
			Size:   len(data),
			IsSeed: true,
		}
		corpus.Add(fuzzcore.NewTestcase(entry))
		added++
	}
	return added
}

// Close stops the pool's background cleanup goroutine.
func (s *StatefulSeeder) Close() {
	s.pool.Close()
}
