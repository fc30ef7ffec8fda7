package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DealSentinel/internal/cache"
	"DealSentinel/internal/config"
	"DealSentinel/internal/httpapi"
	"DealSentinel/internal/notifier"
	"DealSentinel/internal/recorder"
	"DealSentinel/internal/scheduler"
	"DealSentinel/internal/service"
	"DealSentinel/internal/tables"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] DealSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load lookup tables
	tbl := tables.Default()
	if cfg.Tables.Path != "" {
		if tbl, err = tables.Load(cfg.Tables.Path); err != nil {
			log.Fatalf("[FATAL] load tables: %v", err)
		}
		log.Printf("[INFO] lookup tables loaded from %s", cfg.Tables.Path)
	}

	// Init recorder
	var rec recorder.Recorder
	switch {
	case cfg.Database.PostgresURL != "":
		pr, err := recorder.NewPostgresRecorder(ctx, cfg.Database.PostgresURL)
		if err != nil {
			log.Fatalf("[FATAL] init postgres recorder: %v", err)
		}
		rec = pr
	case cfg.Database.SQLitePath != "":
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	default:
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Init cache
	var c cache.Cache
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.CacheTTL())
		if err != nil {
			log.Printf("[WARN] init redis cache failed, using memory: %v", err)
			c = cache.NewMemoryCache(cfg.CacheTTL())
		} else {
			c = rc
			log.Printf("[INFO] redis cache: %s", cfg.Cache.RedisAddr)
		}
	} else {
		c = cache.NewMemoryCache(cfg.CacheTTL())
	}
	defer c.Close()

	// Init Telegram notifier
	var n notifier.Notifier = notifier.NoopNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	} else {
		log.Println("[INFO] telegram not configured, alerts disabled")
	}

	svc := service.NewService(tbl, c, rec, n, cfg.Batch.Workers)
	defer svc.Wait()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, svc, n, cfg.RetentionPeriod())
	if err := sched.RegisterAll(cfg.Schedule.DigestCron, cfg.Schedule.PruneCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           httpapi.New(svc).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	log.Printf("[INFO] listening on %s", cfg.Server.ListenAddr)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("[INFO] %s received, stopping...", sig)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] server error: %v", err)
		}
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] DealSentinel stopped")
}
