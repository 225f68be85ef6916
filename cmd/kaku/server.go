package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/kaku/internal/config"
	"github.com/hyperjump/kaku/internal/generator"
	"github.com/hyperjump/kaku/internal/server"
	"github.com/hyperjump/kaku/internal/watcher"
	"github.com/hyperjump/kaku/pkg/utils"
	"go.uber.org/zap"
)

func runServer() {
	fset := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fset.String("config", defaultConfigPath, "config file path")
	debug := fset.Bool("debug", false, "enable debug logging")
	_ = fset.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("model", cfg.Generation.Model),
	)
	warnMissingCredentials(cfg, logger)

	srv := server.NewServer(generator.FromConfig(cfg, logger), &cfg.Server, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if resolvedConfigPath != "" {
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(nil, func(path string) {
			gen, next, err := reloadGenerator(path, cfg, logger)
			if err != nil {
				logger.Warn("config reload failed; keeping the current generator", zap.String("path", path), zap.Error(err))
				return
			}
			srv.SetGenerator(gen)
			warnMissingCredentials(next, logger)
			logger.Info("config reloaded", zap.String("path", path), zap.String("model", next.Generation.Model))
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Warn("config hot reload disabled", zap.Error(err))
		} else if err := watchSvc.AddFile(resolvedConfigPath); err != nil {
			logger.Warn("config hot reload disabled", zap.Error(err))
		} else {
			logger.Info("watching config for changes", zap.Strings("files", watchSvc.Files()))
		}
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// reloadGenerator loads path and builds a fresh generator from it. Server
// settings (host, port, timeouts) only take effect on restart.
func reloadGenerator(path string, current *config.Config, logger *zap.Logger) (*generator.Generator, *config.Config, error) {
	next, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if current != nil && (next.Server.Host != current.Server.Host || next.Server.Port != current.Server.Port ||
		next.Server.RequestTimeout != current.Server.RequestTimeout) {
		logger.Warn("server settings changed; restart to apply them")
	}
	return generator.FromConfig(next, logger), next, nil
}

func warnMissingCredentials(cfg *config.Config, logger *zap.Logger) {
	if _, err := cfg.Search.SearchCredential(); err != nil {
		logger.Warn("search is not configured; posts cannot be generated", zap.Error(err))
	}
	if _, err := cfg.Generation.GenerationCredential(); err != nil {
		logger.Warn("generation is not configured; every attempt will fail", zap.Error(err))
	}
}
