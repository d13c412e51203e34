package campaign

import (
	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/crawler"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
	"github.com/fluxfuzzer/fluxfuzzer/internal/state"
)

// SeedFromCrawl crawls startURL and adds every discovered parameter value
// for the named param as a corpus seed, giving the scheduler a richer
// starting population than a single hand-picked seed — the same role
// FluxFuzzer's wordlist flag plays for the plain OWASP scan mode, but
// populated from values the target actually exposes rather than a static
// file.
//
// templates, if non-empty, are rendered through state.TemplateEngine once
// per discovered value (bound to the "value" variable) and added as
// additional seeds alongside the raw value itself — e.g. a template of
// `{{value}}' OR '1'='1` turns a crawled numeric id into an injection-
// shaped starting point without the caller hand-writing one per value.
func SeedFromCrawl(corpus fuzzcore.MutableCorpus, startURL, param string, cfg *crawler.Config, templates ...string) (int, error) {
	c := crawler.New(cfg)
	results, err := c.Crawl(startURL)
	if err != nil {
		return 0, err
	}

	engine := state.NewTemplateEngine(nil)
	addSeed := func(data []byte) {
		entry := &coverage.CorpusEntry{
			Data:   data,
			Hash:   coverage.ContentHash(data),
			Size:   len(data),
			IsSeed: true,
		}
		corpus.Add(fuzzcore.NewTestcase(entry))
	}

	seen := make(map[string]bool)
	added := 0
	for _, r := range results {
		for _, p := range r.Parameters {
			if p.Name != param || p.Value == "" || seen[p.Value] {
				continue
			}
			seen[p.Value] = true

			addSeed([]byte(p.Value))
			added++

			if len(templates) == 0 {
				continue
			}
			engine.SetVariable("value", p.Value)
			for _, tmpl := range templates {
				rendered := engine.Substitute(tmpl)
				if rendered == "" || seen[rendered] {
					continue
				}
				seen[rendered] = true
				addSeed([]byte(rendered))
				added++
			}
		}
	}
	return added, nil
}
