package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	blankQuery       = `{}`
	queenstownQuery  = `{"destination":"Queenstown","dates":"March","activity1":"Skyline Gondola","dealmaker":"under $100"}`
	invalidQuery     = `{"destination":42}`
	queenstownDetail = `{"routing":"Details","extracted":{"activity":"Skyline Gondola","destination":"Queenstown","date":"March","deal_maker":"under $100"}}`
)

func (r *Runner) checks() []Check {
	base := r.cfg.BaseURL
	return []Check{
		statusCheck("GET /health", http.MethodGet, base+"/health", "", http.StatusOK),
		statusCheck("GET /metrics", http.MethodGet, base+"/metrics", "", http.StatusOK),
		statusCheck("OPTIONS preflight", http.MethodOptions, base+"/api/agent", "", http.StatusNoContent),
		statusCheck("POST /api/classify rejects bad body", http.MethodPost, base+"/api/classify", invalidQuery, http.StatusBadRequest),
		{
			Name: "POST /api/classify blank query is Unknown",
			Run: func(ctx context.Context, r *Runner) Result {
				body, res := r.do(ctx, http.MethodPost, base+"/api/classify", blankQuery, http.StatusOK)
				if res.Status != statusPass {
					return res
				}
				var d struct {
					Routing string `json:"routing"`
				}
				if err := json.Unmarshal(body, &d); err != nil || d.Routing != "Unknown" {
					res.Status, res.Note = statusFail, fmt.Sprintf("routing=%q", d.Routing)
				}
				return res
			},
		},
		{
			Name: "POST /api/agent invalid body is one error event",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.streamCheck(ctx, base+"/api/agent", `{"routing":"Details"}`, []string{"error"})
			},
		},
		r.liveCheck("POST /api/classify Queenstown is Details", func(ctx context.Context, r *Runner) Result {
			body, res := r.do(ctx, http.MethodPost, base+"/api/classify", queenstownQuery, http.StatusOK)
			if res.Status == statusPass && !strings.Contains(string(body), `"Details"`) {
				res.Status, res.Note = statusFail, string(body)
			}
			return res
		}),
		r.liveCheck("POST /api/agent Queenstown streams cards", func(ctx context.Context, r *Runner) Result {
			return r.streamCheck(ctx, base+"/api/agent", queenstownDetail, nil)
		}),
		r.liveCheck("POST /api/options/both", func(ctx context.Context, r *Runner) Result {
			_, res := r.do(ctx, http.MethodPost, base+"/api/options/both", queenstownDetail, http.StatusOK)
			return res
		}),
		{
			Name: "Redis search cache reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "--redis not set"}
				}
				start := time.Now()
				keys, _, err := r.redis.Scan(ctx, 0, "wondura:search:*", 100).Result()
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass, Latency: time.Since(start), Note: fmt.Sprintf("cached_searches>=%d", len(keys))}
			},
		},
		{
			Name: "Load: blank classify (no model call)",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.load(ctx, base+"/api/classify", blankQuery)
			},
		},
	}
}

func (r *Runner) liveCheck(name string, run func(ctx context.Context, r *Runner) Result) Check {
	return Check{Name: name, Run: func(ctx context.Context, r *Runner) Result {
		if !r.cfg.Live {
			return Result{Status: statusSkip, Note: "--live not set"}
		}
		return run(ctx, r)
	}}
}

func statusCheck(name, method, url, body string, want int) Check {
	return Check{Name: name, Run: func(ctx context.Context, r *Runner) Result {
		_, res := r.do(ctx, method, url, body, want)
		return res
	}}
}

func (r *Runner) do(ctx context.Context, method, url, body string, want int) ([]byte, Result) {
	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(body))
	if err != nil {
		return nil, Result{Status: statusFail, Note: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, Result{Status: statusFail, Note: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	latency := time.Since(start)

	if resp.StatusCode != want {
		return raw, Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	}
	return raw, Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
}

// streamCheck reads an event stream to the end. With want set the event kinds must match exactly;
// otherwise the stream must end in exactly one terminal event, done.
func (r *Runner) streamCheck(ctx context.Context, url, body string, want []string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return Result{Status: statusFail, Note: "content-type=" + ct}
	}

	var kinds []string
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		if k, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			kinds = append(kinds, k)
		}
	}
	latency := time.Since(start)
	if err := sc.Err(); err != nil {
		return Result{Status: statusFail, Latency: latency, Note: err.Error()}
	}

	note := strings.Join(kinds, ",")
	if want != nil {
		if note != strings.Join(want, ",") {
			return Result{Status: statusFail, Latency: latency, Note: note}
		}
		return Result{Status: statusPass, Latency: latency, Note: note}
	}
	terminals := 0
	for _, k := range kinds {
		if k == "done" || k == "error" {
			terminals++
		}
	}
	if terminals != 1 || len(kinds) == 0 || kinds[len(kinds)-1] != "done" {
		return Result{Status: statusFail, Latency: latency, Note: note}
	}
	return Result{Status: statusPass, Latency: latency, Note: note}
}

func (r *Runner) load(ctx context.Context, url, body string) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					errCount.Add(1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}()
	}
	wg.Wait()

	if count.Load() == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}
