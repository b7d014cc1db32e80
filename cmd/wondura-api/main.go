// README: Entry point; loads config, wires the engine and serves the HTTP API until interrupted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"wondura/internal/app"
	"wondura/internal/config"
	httptransport "wondura/internal/http"
	"wondura/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logr, err := logger.NewStructured(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.Build(ctx, cfg, logr)
	if err != nil {
		logr.WithError(err).Error("engine init failed", nil)
		os.Exit(1)
	}
	defer engine.Close()

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Validator:     engine.Validator,
		Classifier:    engine.Classifier,
		Options:       engine.Options,
		Planner:       engine.Planner,
		Logger:        logr,
		CORSOrigin:    cfg.HTTP.CORSOrigin,
		SearchEnabled: engine.SearchEnabled,
	})

	logr.Info("starting wondura api", map[string]interface{}{
		"provider":       cfg.AI.Provider,
		"search_enabled": engine.SearchEnabled,
		"cache_mode":     cfg.Cache.Mode,
	})
	if err := httptransport.NewServer(cfg.HTTP.Addr, router, logr).Run(ctx); err != nil {
		logr.WithError(err).Error("http server stopped", nil)
		os.Exit(1)
	}
}
