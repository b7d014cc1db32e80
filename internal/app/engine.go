// README: Engine wiring; builds the model gateway, search stack, generators and planner from config for the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"wondura/internal/ai"
	"wondura/internal/cache"
	"wondura/internal/config"
	"wondura/internal/logger"
	"wondura/internal/maps"
	"wondura/internal/modules/classify"
	"wondura/internal/modules/options"
	"wondura/internal/modules/providers"
	"wondura/internal/prompts"
	"wondura/internal/service"
	"wondura/internal/validation"
)

type Engine struct {
	Validator     *validation.Validator
	Classifier    *classify.Service
	Options       *options.Service
	Planner       *service.ExperiencePlanner
	SearchEnabled bool

	closers []func() error
}

// Close releases the model client and the cache. It is safe to call once.
func (e *Engine) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewLLM returns the gateway selected by cfg.Provider and its close function.
func NewLLM(ctx context.Context, cfg config.AIConfig) (ai.LLMProvider, func() error, error) {
	switch cfg.Provider {
	case "openai":
		p, err := ai.NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, nil, err
		}
		return p, func() error { return nil }, nil
	default:
		p, err := ai.NewGeminiProvider(ctx, cfg.GeminiKey)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}
}

// Build wires every component. Search and Maps are optional; without a search key every
// provider result is Unavailable.
func Build(ctx context.Context, cfg config.Config, log logger.Logger) (*Engine, error) {
	e := &Engine{}
	fail := func(err error) (*Engine, error) {
		_ = e.Close()
		return nil, err
	}

	set, err := prompts.Load(cfg.AI.PromptsFile)
	if err != nil {
		return fail(fmt.Errorf("load prompts: %w", err))
	}

	llm, closeLLM, err := NewLLM(ctx, cfg.AI)
	if err != nil {
		return fail(fmt.Errorf("init %s provider: %w", cfg.AI.Provider, err))
	}
	e.closers = append(e.closers, closeLLM)

	e.Validator, err = validation.New()
	if err != nil {
		return fail(err)
	}

	var searcher providers.Searcher
	e.SearchEnabled = cfg.Search.Enabled()
	if e.SearchEnabled {
		parallel, err := providers.NewParallelClient(cfg.Search)
		if err != nil {
			return fail(fmt.Errorf("init search client: %w", err))
		}
		searcher = parallel

		store, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			return fail(fmt.Errorf("init search cache: %w", err))
		}
		if store != nil {
			e.closers = append(e.closers, store.Close)
			searcher = providers.NewCachedSearcher(parallel, store, cfg.Cache.TTL, cfg.Search.Timeout, log)
			log.Info("search cache enabled", map[string]interface{}{"mode": cfg.Cache.Mode, "ttl": cfg.Cache.TTL.String()})
		}
	} else {
		log.Warn("PARALLEL_API_KEY not set; provider lookups will report Unavailable", nil)
	}

	var locator providers.VenueLocator
	if cfg.Maps.APIKey != "" {
		vl, err := maps.NewVenueLocator(cfg.Maps.APIKey)
		if err != nil {
			return fail(fmt.Errorf("init maps: %w", err))
		}
		locator = vl
	}

	e.Classifier = classify.NewService(llm, set.Classifier, e.Validator, log)
	e.Options = options.NewService(llm, set, log)
	e.Planner = service.NewExperiencePlanner(service.PlannerDeps{
		Classifier:      e.Classifier,
		Options:         e.Options,
		LLM:             llm,
		CardPrompt:      set.Cards,
		Adapters:        providers.DefaultSet(searcher, locator),
		SearchEnabled:   e.SearchEnabled,
		ProviderTimeout: cfg.Search.Timeout,
		Logger:          log,
	})
	return e, nil
}
