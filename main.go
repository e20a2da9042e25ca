package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/investify/onboard/internal/client"
	"github.com/investify/onboard/internal/config"
	"github.com/investify/onboard/internal/formcache"
	"github.com/investify/onboard/internal/handler"
	"github.com/investify/onboard/internal/logging"
	"github.com/investify/onboard/internal/router"
	"github.com/investify/onboard/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.GELFAddr)
	defer log.Sync()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		serve(cfg, log)
	case "cache-refresh":
		cacheRefresh(cfg, log)
	case "reset":
		resetSession(cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want serve, cache-refresh, or reset)\n", cmd)
		os.Exit(2)
	}
}

func serve(cfg *config.Config, log *zap.Logger) {
	api := client.New(cfg.APIBaseURL,
		client.WithLogger(log),
		client.WithUploadBase(cfg.UploadBaseURL),
	)
	cache := formcache.New(cfg.CachePath, api, log)
	cache.Interval = cfg.CacheInterval

	authH := handler.NewAuthHandler(cfg.SecretHash, cfg.JWTSecret)
	uploadH := handler.NewUploadHandler(cfg.UploadDir, log)
	cacheH := handler.NewCacheHandler(cache, log)
	kycH := handler.NewKYCHandler(cfg.KYCBaseURL)

	r := router.New(log, cfg.JWTSecret, cfg.UploadDir, cfg.UploadRPS, cfg.UploadBurst,
		authH, uploadH, cacheH, kycH)

	if cfg.AutoRefresh {
		go cache.StartAutoRefresh(context.Background())
		log.Info("form cache auto-refresh enabled",
			zap.Duration("interval", cfg.CacheInterval))
	}

	log.Info("onboard server starting", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func cacheRefresh(cfg *config.Config, log *zap.Logger) {
	api := client.New(cfg.APIBaseURL, client.WithLogger(log))
	cache := formcache.New(cfg.CachePath, api, log)
	cache.Interval = cfg.CacheInterval

	if err := cache.Refresh(context.Background()); err != nil {
		log.Error("cache refresh failed", zap.Error(err))
		os.Exit(1)
	}
	forms, _ := cache.Read()
	log.Info("cache refresh done", zap.Int("forms", len(forms)))
}

// resetSession abandons any resumable wizard session on this machine.
func resetSession(cfg *config.Config, log *zap.Logger) {
	store, err := session.Open(cfg.SessionPath)
	if err != nil {
		log.Error("open session store failed", zap.Error(err))
		os.Exit(1)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	if _, ok := store.Get(session.KeySubmissionID); !ok {
		log.Info("no session to reset")
		return
	}
	if err := store.Clear(); err != nil {
		log.Error("clear session failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("session cleared", zap.String("path", cfg.SessionPath))
}
