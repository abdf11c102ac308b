package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/connectaword/internal/dependencies/clock"
	"github.com/mcoot/connectaword/internal/dependencies/random"
	"github.com/mcoot/connectaword/internal/services/auth"
	"github.com/mcoot/connectaword/internal/services/catalog"
	"github.com/mcoot/connectaword/internal/services/rating"
	"github.com/mcoot/connectaword/internal/services/registry"
	"github.com/mcoot/connectaword/internal/services/rooms"
	"github.com/mcoot/connectaword/internal/services/session"
	"github.com/mcoot/connectaword/internal/storage"
	"github.com/mcoot/connectaword/internal/storage/memory"
	mongostorage "github.com/mcoot/connectaword/internal/storage/mongo"
	redisstorage "github.com/mcoot/connectaword/internal/storage/redis"
	sqlitestorage "github.com/mcoot/connectaword/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
	StorageTypeMongo  = "mongo"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	CatalogService *catalog.Service
	RatingService  *rating.Service
	AuthService    *auth.Service
	RoomService    *rooms.Service
	Registry       *registry.Registry
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service.
	// Secret is required; other zero fields take defaults.
	AuthConfig auth.Config
	// CatalogConfig filters round words; zero value means catalog.DefaultConfig()
	CatalogConfig catalog.Config
	// SessionConfig is passed to every room session; zero value means session.DefaultConfig()
	SessionConfig session.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis", "sqlite" or "mongo")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLiteConfig holds SQLite settings (required if StorageType is "sqlite")
	SQLiteConfig *sqlitestorage.Config
	// MongoConfig holds MongoDB settings (required if StorageType is "mongo")
	MongoConfig *mongostorage.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

func newStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQLite:
		if cfg.SQLiteConfig == nil {
			return nil, errors.New("SQLiteConfig required when StorageType is sqlite")
		}
		return sqlitestorage.New(ctx, *cfg.SQLiteConfig)
	case StorageTypeMongo:
		if cfg.MongoConfig == nil {
			return nil, errors.New("MongoConfig required when StorageType is mongo")
		}
		return mongostorage.New(ctx, *cfg.MongoConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, redis, sqlite or mongo", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	catalogCfg := cfg.CatalogConfig
	if catalogCfg.RoundSize == 0 {
		catalogCfg = catalog.DefaultConfig()
	}
	sessionCfg := cfg.SessionConfig
	if sessionCfg.RatingTimeout == 0 {
		sessionCfg = session.DefaultConfig()
	}

	catalogService := catalog.New(store, rnd, catalogCfg, logger)
	ratingService := rating.New(rating.DefaultConfig())
	authService := auth.New(store, clk, cfg.AuthConfig)
	roomService := rooms.New(store, store, clk, logger)
	reg := registry.New(store, store, catalogService, ratingService, clk, rnd, logger, sessionCfg)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		CatalogService: catalogService,
		RatingService:  ratingService,
		AuthService:    authService,
		RoomService:    roomService,
		Registry:       reg,
	}
}

// Close shuts down live sessions and releases the storage backend
func (a *App) Close(ctx context.Context) error {
	err := a.Registry.Shutdown(ctx)
	if closer, ok := a.Storage.(io.Closer); ok {
		err = errors.Join(err, closer.Close())
	}
	return err
}
