// FluxFuzzer - Smart Stateful Web Fuzzer
// A coverage-guided & state-aware DAST for modern web applications

package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fluxfuzzer/fluxfuzzer/internal/campaign"
	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
	"github.com/fluxfuzzer/fluxfuzzer/internal/memory"
	"github.com/fluxfuzzer/fluxfuzzer/internal/mutator"
	"github.com/fluxfuzzer/fluxfuzzer/internal/owasp"
	"github.com/fluxfuzzer/fluxfuzzer/internal/report"
	"github.com/fluxfuzzer/fluxfuzzer/internal/requester"
	"github.com/fluxfuzzer/fluxfuzzer/internal/scheduler"
	"github.com/fluxfuzzer/fluxfuzzer/internal/state"
	"github.com/fluxfuzzer/fluxfuzzer/internal/ui"
	"github.com/fluxfuzzer/fluxfuzzer/internal/web"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"

	// CLI flags
	targetURL  string
	wordlist   string
	threads    int
	rps        int
	timeout    int
	configFile string
	outputFile string
	verbose    bool
	webMode    bool
	webPort    string

	scheduleStrategy string
	randomSeed       int64
	fuzzParam        string
	maxIterations    int
	crawlSeeds       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fluxfuzzer",
		Short: "FluxFuzzer - Smart Stateful Web Fuzzer",
		Long: `FluxFuzzer is a smart, stateful web fuzzer that uses
coverage-guided and state-aware techniques for effective DAST.

Features:
  - Structural Differential Analysis (SimHash/TLSH)
  - Stateful Fuzzing (Producer-Consumer tracking)
  - High-performance async HTTP engine
  - Smart type-aware mutation
  - Web-based Dashboard`,
		Run: runFuzzer,
	}

	// Define flags
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "Target URL to fuzz")
	rootCmd.Flags().StringVarP(&wordlist, "wordlist", "w", "", "Path to wordlist file")
	rootCmd.Flags().IntVarP(&threads, "threads", "t", 50, "Number of concurrent threads")
	rootCmd.Flags().IntVarP(&rps, "rate", "r", 100, "Requests per second limit")
	rootCmd.Flags().IntVar(&timeout, "timeout", 10, "Request timeout in seconds")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to config file (YAML)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.Flags().BoolVar(&webMode, "web", false, "Start web dashboard mode")
	rootCmd.Flags().StringVar(&webPort, "port", ":9090", "Web dashboard port")

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("FluxFuzzer version %s\n", version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	// Web command (dedicated)
	webCmd := &cobra.Command{
		Use:   "web",
		Short: "Start web dashboard",
		Run:   runWebDashboard,
	}
	webCmd.Flags().StringVarP(&webPort, "port", "p", ":9090", "Web dashboard port")
	rootCmd.AddCommand(webCmd)

	// Coverage-guided fuzz command
	fuzzCmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Run the coverage-guided scheduling loop against a target",
		Run:   runCoverageCampaign,
	}
	fuzzCmd.Flags().StringVarP(&targetURL, "url", "u", "", "Target URL to fuzz (must contain the parameter to mutate)")
	fuzzCmd.Flags().StringVar(&fuzzParam, "param", "", "Query parameter to mutate (defaults to the first one present in --url)")
	fuzzCmd.Flags().StringVar(&scheduleStrategy, "schedule", "queue", "Scheduling strategy: rand, queue, weighted, probability")
	fuzzCmd.Flags().Int64Var(&randomSeed, "seed", 0, "RNG seed (0 picks a fixed default for reproducible runs)")
	fuzzCmd.Flags().IntVar(&maxIterations, "iterations", 1000, "Number of scheduler iterations to run")
	fuzzCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write a JSON anomaly report to this path")
	fuzzCmd.Flags().BoolVar(&crawlSeeds, "crawl", false, "Crawl the target first and seed the corpus from discovered parameter values")
	rootCmd.AddCommand(fuzzCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Println()
	fmt.Println("  â•”â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•—")
	fmt.Println("  â•‘   â–ˆâ–ˆâ–ˆâ–ˆâ–ˆâ–ˆâ–ˆâ•—â–ˆâ–ˆâ•—     â–ˆâ–ˆâ•—   â–ˆâ–ˆâ•—â–ˆâ–ˆâ•—  â–ˆâ–ˆâ•—    FluxFuzzer         â•‘")
	fmt.Println("  â•‘   â–ˆâ–ˆâ•”â•â•â•â•â•â–ˆâ–ˆâ•‘     â–ˆâ–ˆâ•‘   â–ˆâ–ˆâ•‘â•šâ–ˆâ–ˆâ•—â–ˆâ–ˆâ•”â•    Smart Stateful     â•‘")
	fmt.Println("  â•‘   â–ˆâ–ˆâ–ˆâ–ˆâ–ˆâ•—  â–ˆâ–ˆâ•‘     â–ˆâ–ˆâ•‘   â–ˆâ–ˆâ•‘ â•šâ–ˆâ–ˆâ–ˆâ•”â•     Web Fuzzer         â•‘")
	fmt.Println("  â•‘   â–ˆâ–ˆâ•”â•â•â•  â–ˆâ–ˆâ•‘     â–ˆâ–ˆâ•‘   â–ˆâ–ˆâ•‘ â–ˆâ–ˆâ•”â–ˆâ–ˆâ•—                        â•‘")
	fmt.Println("  â•‘   â–ˆâ–ˆâ•‘     â–ˆâ–ˆâ–ˆâ–ˆâ–ˆâ–ˆâ–ˆâ•—â•šâ–ˆâ–ˆâ–ˆâ–ˆâ–ˆâ–ˆâ•”â•â–ˆâ–ˆâ•”â• â–ˆâ–ˆâ•—    v" + version + "          â•‘")
	fmt.Println("  â•‘   â•šâ•â•     â•šâ•â•â•â•â•â•â• â•šâ•â•â•â•â•â• â•šâ•â•  â•šâ•â•                       â•‘")
	fmt.Println("  â•šâ•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•â•")
	fmt.Println()
}

func runFuzzer(cmd *cobra.Command, args []string) {
	printBanner()

	// If web mode is enabled, start web dashboard
	if webMode {
		runWebDashboard(cmd, args)
		return
	}

	// Validate required flags
	if targetURL == "" && configFile == "" {
		fmt.Println("  [!] No target specified. Use --url or --config")
		fmt.Println()
		fmt.Println("  Quick start:")
		fmt.Println("    fluxfuzzer -u http://target.com/FUZZ -w wordlists/common.txt")
		fmt.Println()
		fmt.Println("  Or start web dashboard:")
		fmt.Println("    fluxfuzzer web")
		fmt.Println()
		return
	}

	if verbose {
		fmt.Printf("  [*] Target: %s\n", targetURL)
		fmt.Printf("  [*] Threads: %d\n", threads)
		fmt.Printf("  [*] Rate: %d RPS\n", rps)
		fmt.Printf("  [*] Timeout: %ds\n", timeout)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize fuzzing engine
	fmt.Println("  [*] Initializing scanning engine...")

	detector := owasp.NewDetector(nil)

	fmt.Printf("  [*] Scanning target: %s\n", targetURL)

	// Parse URL to extract parameters
	u, err := url.Parse(targetURL)
	if err != nil {
		fmt.Printf("  [!] Invalid URL: %v\n", err)
		return
	}

	params := make(map[string]string)
	query := u.Query()
	for k, v := range query {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	// Also add some default params for testing if none exist
	if len(params) == 0 {
		params["id"] = "1"
		params["search"] = "test"
	}

	target := &owasp.Target{
		URL:        targetURL,
		Method:     "GET",
		Parameters: params,
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	// Run scan in goroutine to allow cancellation
	done := make(chan struct{})

	go func() {
		findings, err := detector.Scan(ctx, target)
		if err != nil {
			fmt.Printf("\n  [!] Scan error: %v\n", err)
		} else {
			fmt.Printf("\n  [*] Scan complete. Found %d issues.\n", len(findings))
			for _, f := range findings {
				fmt.Printf("  [+] [%s] %s: %s\n", f.Severity, f.Type, f.Description)
				if f.Payload != "" {
					fmt.Printf("      Payload: %s\n", f.Payload)
				}
			}
		}
		close(done)
	}()

	// Wait for completion or signal
	select {
	case <-done:
		// Completed
	case <-sigChan:
		fmt.Println("\n  [*] Shutting down gracefully...")
		cancel()
	}
}

func runWebDashboard(cmd *cobra.Command, args []string) {
	printBanner()

	fmt.Println("  [*] Starting Web Dashboard...")
	fmt.Println()
	fmt.Printf("  ðŸŒ Open your browser at: http://localhost%s\n", webPort)
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start web server
	server := web.NewServer()

	go func() {
		if err := server.Start(webPort); err != nil {
			fmt.Printf("  [!] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// Wait for signal
	<-sigChan
	fmt.Println("\n  [*] Shutting down web server...")
	server.Stop()
}

// runCoverageCampaign drives the scheduling/feedback core against a single
// HTTP target, reporting progress on stdout as it runs.
func runCoverageCampaign(cmd *cobra.Command, args []string) {
	printBanner()

	if targetURL == "" {
		fmt.Println("  [!] No target specified. Use --url")
		return
	}

	param := fuzzParam
	if param == "" {
		if p, ok := campaign.ParamFromQuery(targetURL); ok {
			param = p
		} else {
			param = "q"
		}
	}

	u, err := url.Parse(targetURL)
	if err != nil {
		fmt.Printf("  [!] Invalid URL: %v\n", err)
		return
	}
	if u.Query().Get(param) == "" {
		q := u.Query()
		q.Set(param, "seed")
		u.RawQuery = q.Encode()
		targetURL = u.String()
	}

	seed := randomSeed
	if seed == 0 {
		seed = 1
	}

	corpus := fuzzcore.NewInMemoryCorpus()
	seedEntry := &coverage.CorpusEntry{Data: []byte("seed"), Hash: coverage.ContentHash([]byte("seed")), Size: 4, IsSeed: true}
	corpus.Add(fuzzcore.NewTestcase(seedEntry))

	if crawlSeeds {
		added, err := campaign.SeedFromCrawl(corpus, targetURL, param, nil,
			`{{value}}' OR '1'='1`,
			`<script>{{value}}</script>`,
			`../../../../etc/passwd{{value}}`,
		)
		if err != nil {
			fmt.Printf("  [!] crawl seeding failed: %v\n", err)
		} else {
			fmt.Printf("  [*] Seeded %d additional corpus entries from crawl\n", added)
		}
	}

	sched := buildScheduler(scheduleStrategy)

	feedback := coverage.NewMapFeedback[byte]("http", 4096, coverage.MaxReducer[byte]{})
	feedback.TrackNovelties(true)

	client := requester.NewClient(nil)
	executor := campaign.NewHTTPExecutor(client, targetURL, "GET", param, 4096)

	engine := mutator.NewMutatorEngine()
	engine.Register(mutator.NewBitFlipMutator(4))
	engine.Register(mutator.NewByteFlipMutator(2))
	engine.Register(mutator.NewArithmeticMutator(4, 35))
	engine.Register(mutator.NewInterestingValueMutator(4))
	engine.Register(mutator.NewDeleteMutator(8))
	engine.Register(mutator.NewInsertMutator(8))
	engine.Register(mutator.NewBoundaryMutator())

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	seeder, err := campaign.NewStatefulSeeder("id", &state.ExtractionRule{
		Name:    "id",
		Type:    state.ExtractorJSONPath,
		Pattern: "id",
	})
	if err != nil {
		fmt.Printf("  [!] stateful seeder disabled: %v\n", err)
		seeder = nil
	}

	loop := campaign.NewLoop(campaign.LoopConfig{
		Corpus:    corpus,
		Scheduler: sched,
		Rand:      scheduler.NewStdRand(seed),
		Feedback:  feedback,
		Mutator:   engine,
		Executor:  executor,
		Logger:    logger,
		TargetURL: targetURL,
		Seeder:    seeder,
	})
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("  [*] Fuzzing %s (param=%s, schedule=%s, seed=%d)\n", targetURL, param, scheduleStrategy, seed)

	bar := ui.NewProgressBar(40)
	bar.ShowETA(false)

	memMonitor := memory.NewMonitor(5*time.Second, memory.DefaultThreshold())
	memMonitor.Start()
	defer memMonitor.Stop()
	go func() {
		for alert := range memMonitor.GetAlerts() {
			logger.Warn().Str("type", string(alert.Type)).Uint64("value", alert.Value).Msg(alert.Message)
		}
	}()

	for i := 0; i < maxIterations; i++ {
		select {
		case <-sigChan:
			fmt.Println("\n  [*] Shutting down gracefully...")
			cancel()
		default:
		}
		if ctx.Err() != nil {
			break
		}
		if _, err := loop.Step(ctx); err != nil {
			fmt.Printf("  [!] step %d: %v\n", i, err)
			continue
		}
		if i%50 == 0 || i == maxIterations-1 {
			bar.SetProgress(float64(i+1) / float64(maxIterations))
			bar.SetLabel(fmt.Sprintf("corpus=%d crashes=%d", loop.Stats().CorpusSize, loop.Stats().Crashes))
			fmt.Printf("\r  %s", bar.RenderWithLabel())
		}
	}
	fmt.Println()

	stats := loop.Stats()
	fmt.Printf("\n  [*] Done. executions=%d corpus=%d crashes=%d queue_cycles=%d\n",
		stats.Executions, stats.CorpusSize, stats.Crashes, stats.QueueCycles)

	if outputFile != "" {
		gen := &report.JSONGenerator{Indent: true}
		data, err := gen.GenerateBytes(loop.Report())
		if err != nil {
			fmt.Printf("  [!] report generation failed: %v\n", err)
			return
		}
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			fmt.Printf("  [!] writing report: %v\n", err)
			return
		}
		fmt.Printf("  [*] Report written to %s\n", outputFile)
	}
}

// buildScheduler maps the --schedule flag to a concrete Scheduler[byte].
func buildScheduler(strategy string) scheduler.Scheduler[byte] {
	switch strategy {
	case "rand":
		return scheduler.NewRandScheduler[byte]()
	case "weighted":
		return scheduler.NewWeightedScheduler[byte]("http", scheduler.LenTimeMulScore{})
	case "probability":
		return scheduler.NewProbabilitySamplingScheduler[byte](scheduler.LenTimeMulScore{})
	default:
		return scheduler.NewQueueScheduler[byte]("http")
	}
}
