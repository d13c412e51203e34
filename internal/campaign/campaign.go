// Package campaign wires the coverage-feedback core (internal/coverage),
// the scheduler core (internal/scheduler), and FluxFuzzer's existing
// mutation and request-execution packages into a single fuzzing loop: pick
// a testcase, mutate it, execute it, score the result, and decide whether
// to retain it in the corpus.
package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
	"github.com/fluxfuzzer/fluxfuzzer/internal/mutator"
	"github.com/fluxfuzzer/fluxfuzzer/internal/report"
	"github.com/fluxfuzzer/fluxfuzzer/internal/scheduler"
)

// Executor runs a single input against the target and reports what came
// back. HTTPExecutor (executor.go) is the production implementation;
// tests supply a stub.
type Executor interface {
	Execute(ctx context.Context, input []byte) (*coverage.ExecutionResult, *coverage.Observers[byte], error)
}

// Stats is a snapshot of campaign progress, read by cmd/fluxfuzzer's
// terminal progress bar and final summary.
type Stats struct {
	Executions  int64
	CorpusSize  int
	Crashes     int64
	LastNewCov  time.Time
	QueueCycles uint64
}

// Loop runs the mutate-execute-feedback cycle over a corpus, using a
// scheduler to pick testcases and a MapFeedback to decide whether a
// mutated input is novel enough to keep.
type Loop struct {
	corpus    fuzzcore.MutableCorpus
	sched     scheduler.Scheduler[byte]
	state     *scheduler.State
	feedback  *coverage.MapFeedback[byte]
	mutator   *mutator.MutatorEngine
	executor  Executor
	observers *coverage.Observers[byte]
	logger    zerolog.Logger
	targetURL string

	mu     sync.Mutex
	stats  Stats
	report *report.Report
	seeder *StatefulSeeder
	seen   map[string]bool
}

// LoopConfig configures a new Loop.
type LoopConfig struct {
	Corpus    fuzzcore.MutableCorpus
	Scheduler scheduler.Scheduler[byte]
	Rand      scheduler.Rand
	Feedback  *coverage.MapFeedback[byte]
	Mutator   *mutator.MutatorEngine
	Executor  Executor
	Logger    zerolog.Logger
	TargetURL string

	// Seeder, when set, recycles values extracted from response bodies
	// (session tokens, object IDs) back into the corpus as new seeds.
	Seeder *StatefulSeeder
}

// NewLoop wires the given components into a Loop. Step evaluates the
// observers the executor returns for each execution; NewLoop registers
// none of its own.
func NewLoop(cfg LoopConfig) *Loop {
	observers := coverage.NewObservers[byte]()
	return &Loop{
		corpus:    cfg.Corpus,
		sched:     cfg.Scheduler,
		state:     scheduler.NewState(cfg.Corpus, cfg.Rand),
		feedback:  cfg.Feedback,
		mutator:   cfg.Mutator,
		executor:  cfg.Executor,
		observers: observers,
		logger:    cfg.Logger,
		targetURL: cfg.TargetURL,
		report:    report.NewReport("coverage-guided campaign", cfg.TargetURL),
		seeder:    cfg.Seeder,
		seen:      make(map[string]bool),
	}
}

// Step runs one iteration: select a testcase via the scheduler, mutate it,
// execute it, evaluate feedback, and retain or discard it. It returns
// whether the mutated input was retained as a new corpus entry.
func (l *Loop) Step(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.sched.Next(l.state)
	if err != nil {
		return false, fmt.Errorf("scheduler next: %w", err)
	}

	tc, err := l.corpus.Get(id)
	if err != nil {
		return false, fmt.Errorf("corpus get: %w", err)
	}
	entry, ok := tc.Payload.(*coverage.CorpusEntry)
	if !ok {
		return false, fmt.Errorf("campaign: testcase %s payload is not *coverage.CorpusEntry", id)
	}

	mutated := l.mutator.MutateChain(entry.Data)
	if mutated.Error != nil {
		return false, fmt.Errorf("mutate: %w", mutated.Error)
	}

	result, observers, err := l.executor.Execute(ctx, mutated.Mutated)
	if err != nil {
		return false, fmt.Errorf("execute: %w", err)
	}
	l.stats.Executions++

	if l.seeder != nil {
		l.seeder.Observe(result.ExitCode, result.Output)
		l.seeder.Harvest(l.corpus, l.seen)
	}

	if err := l.sched.OnEvaluation(l.state, observers); err != nil {
		return false, fmt.Errorf("on evaluation: %w", err)
	}

	novel, err := l.feedback.IsInteresting(observers)
	if err != nil {
		return false, fmt.Errorf("is interesting: %w", err)
	}

	if result.ExitCode != 0 {
		l.stats.Crashes++
		l.logger.Warn().Int("exit_code", result.ExitCode).Str("parent", id.String()).Msg("crash observed")
		l.report.AddAnomaly(report.Anomaly{
			ID:         id.String(),
			Type:       report.AnomalyStatusCode,
			Severity:   severityForStatus(result.ExitCode),
			URL:        l.targetURL,
			StatusCode: result.ExitCode,
			Timestamp:  timeNow(),
		})
	}

	if novel == 0 {
		l.feedback.DiscardMetadata()
		return false, nil
	}

	newEntry := &coverage.CorpusEntry{
		Data:           mutated.Mutated,
		Hash:           coverage.ContentHash(mutated.Mutated),
		Size:           len(mutated.Mutated),
		DiscoveredAt:   timeNow(),
		LastExecTimeUs: result.ExecTimeUs,
	}
	newTc := fuzzcore.NewTestcase(newEntry)
	newID := l.corpus.Add(newTc)

	l.feedback.AppendMetadata(newTc.Metadata())
	if err := l.sched.OnAdd(l.state, newID); err != nil {
		return false, fmt.Errorf("on add: %w", err)
	}

	l.stats.CorpusSize = l.corpus.Count()
	l.stats.LastNewCov = timeNow()
	l.logger.Info().Str("id", newID.String()).Uint32("novel_cells", novel).Msg("new coverage")

	return true, nil
}

// Stats returns a snapshot of progress so far.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := l.stats
	if hasCycles, ok := l.sched.(scheduler.HasQueueCycles); ok {
		snapshot.QueueCycles = hasCycles.QueueCycles()
	}
	return snapshot
}

// Report returns the accumulated anomaly report, with final statistics
// folded in from the current stats snapshot. Reads l.stats and l.report
// under the same lock Step uses, rather than going through Stats, since
// sync.Mutex isn't reentrant.
func (l *Loop) Report() *report.Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report.SetStatistics(report.Statistics{
		TotalRequests: l.stats.Executions,
		FailureCount:  l.stats.Crashes,
	})
	return l.report
}

// severityForStatus classifies an HTTP-ish exit code into a report
// severity: server errors outrank client errors, and a negative code
// (executor-level failure, e.g. a connection error) is treated as high
// severity since it may indicate a crashed or unreachable target.
func severityForStatus(code int) report.Severity {
	switch {
	case code < 0:
		return report.SeverityHigh
	case code >= 500:
		return report.SeverityCritical
	case code >= 400:
		return report.SeverityMedium
	default:
		return report.SeverityInfo
	}
}

// Close releases background resources (the stateful seeder's cleanup
// goroutine, if one was configured). Safe to call even when no seeder was
// configured.
func (l *Loop) Close() {
	if l.seeder != nil {
		l.seeder.Close()
	}
}

// timeNow is a thin indirection so tests can substitute a fixed clock
// without reaching into Loop's internals.
var timeNow = time.Now
