package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mcoot/connectaword/internal/api"
	"github.com/mcoot/connectaword/internal/config"
	"github.com/mcoot/connectaword/internal/factory"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/auth"
	mongostorage "github.com/mcoot/connectaword/internal/storage/mongo"
	redisstorage "github.com/mcoot/connectaword/internal/storage/redis"
	sqlitestorage "github.com/mcoot/connectaword/internal/storage/sqlite"
	"github.com/mcoot/connectaword/internal/transport/ws"
)

// catalogFiles lists the word list files per language, relative to CATALOG_DIR
var catalogFiles = map[model.Language][]string{
	model.LanguageEnglish: {"words_en.json"},
	model.LanguageSerbian: {"words_sr_1.json", "words_sr_2.json"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	logger := cfg.Logger(os.Stdout)
	slog.SetDefault(logger)

	if cfg.UsingDevSecret() {
		logger.Warn("AUTH_SECRET not set, signing tokens with the development secret")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create application factory
	app, err := factory.New(ctx, factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loadCatalogs(ctx, app, cfg.CatalogDir, logger)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		AuthService:  app.AuthService,
		RoomService:  app.RoomService,
		Registry:     app.Registry,
		SocketConfig: ws.DefaultConfig(),
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Close sockets before the HTTP server so hijacked connections do not hold up Shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancelShutdown()
	if err := app.Close(shutdownCtx); err != nil {
		logger.Error("close error", slog.String("error", err.Error()))
		exitCode = 1
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}

func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		AuthConfig: auth.Config{
			Secret:   cfg.AuthSecret,
			TokenTTL: cfg.TokenTTL,
		},
		Logger:      logger,
		StorageType: cfg.StorageType,
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fc.RedisConfig = &redisCfg
	case factory.StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		sqliteCfg.Path = cfg.SQLitePath
		fc.SQLiteConfig = &sqliteCfg
	case factory.StorageTypeMongo:
		mongoCfg := mongostorage.DefaultConfig()
		mongoCfg.URI = cfg.MongoURI
		mongoCfg.Database = cfg.MongoDatabase
		fc.MongoConfig = &mongoCfg
	}
	return fc
}

// loadCatalogs reads each language's files, falling back to the copy in storage.
// A language with neither stays unavailable; rooms using it cannot start a round.
func loadCatalogs(ctx context.Context, app *factory.App, dir string, logger *slog.Logger) {
	for lang, files := range catalogFiles {
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = filepath.Join(dir, f)
		}

		loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := app.CatalogService.LoadFromFiles(loadCtx, lang, paths...)
		if err == nil {
			cancel()
			continue
		}
		logger.Warn("could not load word files, trying storage",
			slog.String("language", string(lang)),
			slog.String("error", err.Error()))

		err = app.CatalogService.LoadFromStorage(loadCtx, lang)
		cancel()
		if errors.Is(err, model.ErrCatalogNotLoaded) {
			logger.Error("no word list available", slog.String("language", string(lang)))
		} else if err != nil {
			logger.Error("could not load word list from storage",
				slog.String("language", string(lang)),
				slog.String("error", err.Error()))
		}
	}
}
