package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type smokeConfig struct {
	BaseURL     string
	RedisAddr   string
	Live        bool
	Strict      bool
	Timeout     time.Duration
	Concurrency int
	Duration    time.Duration
}

var smokeCfg smokeConfig

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run HTTP checks and a short load probe against a running API",
	Long: `Runs a fixed list of checks against --base-url and prints PASS/FAIL/SKIP per check.
Checks that call the model or the search provider only run with --live.`,
	RunE: runSmoke,
}

func init() {
	f := smokeCmd.Flags()
	f.StringVar(&smokeCfg.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	f.StringVar(&smokeCfg.RedisAddr, "redis", "", "Redis address of the search cache (optional)")
	f.BoolVar(&smokeCfg.Live, "live", false, "Also run checks that call the model and search provider")
	f.BoolVar(&smokeCfg.Strict, "strict", false, "Treat skipped checks as failures")
	f.DurationVar(&smokeCfg.Timeout, "timeout", 3*time.Minute, "Total timeout")
	f.IntVar(&smokeCfg.Concurrency, "concurrency", 20, "Concurrent clients for the load probe")
	f.DurationVar(&smokeCfg.Duration, "duration", 5*time.Second, "Duration of the load probe")
}

func runSmoke(cmd *cobra.Command, args []string) error {
	cfg := smokeCfg
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	runner := NewRunner(cfg)
	results := runner.RunAll(ctx, cmd)

	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			pass++
		case statusFail:
			fail++
		case statusSkip:
			skipped++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n== Summary ==\nPASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		return fmt.Errorf("%d checks failed, %d skipped", fail, skipped)
	}
	return nil
}

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   smokeConfig
	httpc *http.Client
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type Check struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg smokeConfig) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (r *Runner) RunAll(ctx context.Context, cmd *cobra.Command) []Result {
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer r.redis.Close()
	}

	out := cmd.OutOrStdout()
	checks := r.checks()
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		res := c.Run(ctx, r)
		results = append(results, res)
		fmt.Fprintf(out, "%-5s %s", res.Status, c.Name)
		if res.Latency > 0 {
			fmt.Fprintf(out, " (%s)", res.Latency.Round(time.Millisecond))
		}
		if res.Note != "" {
			fmt.Fprintf(out, " - %s", res.Note)
		}
		fmt.Fprintln(out)
	}
	return results
}
