package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"frauddetect/config"
	"frauddetect/fraud"
	qhttp "frauddetect/http"
	"frauddetect/logger"
	"frauddetect/ml"
	"frauddetect/monitoring"
)

func main() {
	// 1. Load config (config.yaml in the working directory or its parent)
	cfg, configPath, err := config.Resolve()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()
	if configPath == "" {
		zlog.Info("no config file found, using defaults")
	} else {
		zlog.Info("config loaded", zap.String("path", configPath))
	}

	metrics := monitoring.NewMetrics()

	// 3. Load the model; failure is fatal
	store := ml.NewStore(cfg.ML.ModelType, cfg.ML.ModelPath, zlog.Named("model"))
	loaded, err := store.Load()
	if err != nil {
		zlog.Fatal("failed to load model", zap.String("path", cfg.ML.ModelPath), zap.Error(err))
	}
	metrics.SetModelGeneration(loaded.Generation)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.ML.Watch {
		store.OnReload(func(err error) {
			metrics.ObserveModelReload(err)
			if current, cerr := store.Current(); cerr == nil {
				metrics.SetModelGeneration(current.Generation)
			}
		})
		go func() {
			if err := store.Watch(ctx); err != nil {
				zlog.Error("model watcher stopped", zap.Error(err))
			}
		}()
	}

	detector, err := fraud.NewDetector(store, cfg.ML.CacheSize, zlog.Named("detector"), metrics)
	if err != nil {
		zlog.Fatal("failed to create detector", zap.Error(err))
	}

	handlers, err := qhttp.NewHandlers(detector, store, zlog.Named("http"), cfg.Decision.DefaultThreshold)
	if err != nil {
		zlog.Fatal("failed to create handlers", zap.Error(err))
	}

	// 4. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		RateLimitRPS:   cfg.Http.RateLimit.RPS,
		RateLimitBurst: cfg.Http.RateLimit.Burst,
	}, handlers, metrics, zlog.Named("http"))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			zlog.Error("http server failed", zap.Error(err))
		}
	}

	cancel()
	if err := server.Stop(); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("exiting")
}
