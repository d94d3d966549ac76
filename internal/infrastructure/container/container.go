package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/introductions-backend/internal/config"
	"github.com/gdugdh24/introductions-backend/internal/delivery/http"
	"github.com/gdugdh24/introductions-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/introductions-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/introductions-backend/internal/gateway"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/database"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/gemini"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/lock"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/notify"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/secure"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/server"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/gdugdh24/introductions-backend/internal/repository/memory"
	"github.com/gdugdh24/introductions-backend/internal/repository/postgres"
	"github.com/gdugdh24/introductions-backend/internal/usecase/auth"
	"github.com/gdugdh24/introductions-backend/internal/usecase/introduction"
	"github.com/gdugdh24/introductions-backend/internal/usecase/profile"
	"github.com/gdugdh24/introductions-backend/internal/usecase/search"
	"github.com/gdugdh24/introductions-backend/internal/usecase/sweeper"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *slog.Logger
	DB         *sqlx.DB
	Redis      *redis.Client
	Gemini     *gemini.GeminiClient
	Dispatcher *gateway.Dispatcher
	Sweeper    *sweeper.Sweeper
	Server     *server.Server
}

type stores struct {
	profiles repository.ProfileRepository
	requests repository.RequestRepository
	chats    gateway.ChatGateway
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	st, err := c.initStores(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	var (
		notifier gateway.NotificationGateway = notify.NewLogNotifier(logger)
		locker   sweeper.Locker              = lock.NewLocalLocker()
	)
	if cfg.Redis.Enabled() {
		redisClient, err := database.NewRedisClient(ctx, &cfg.Redis, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = redisClient
		notifier = notify.NewRedisNotifier(redisClient, logger)
		locker = lock.NewRedisLocker(redisClient)
	}

	var enricher gateway.Enricher
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			// Enrichment is optional.
			logger.Warn("gemini client unavailable, chat rooms will not be enriched", "error", err)
		} else {
			c.Gemini = geminiClient
			enricher = geminiClient
		}
	}

	c.Dispatcher = gateway.NewDispatcher(st.profiles, st.chats, notifier, enricher, logger)
	c.Sweeper = sweeper.NewSweeper(st.requests, locker, sweeper.Config{
		Interval:  cfg.Sweeper.Interval,
		BatchSize: cfg.Sweeper.BatchSize,
		LockTTL:   cfg.Sweeper.LockTTL,
	}, logger)

	// Initialize use cases
	profileUseCase := profile.NewProfileUseCase(st.profiles, logger)
	searchUseCase := search.NewSearchUseCase(st.profiles, search.Config{
		CandidateCap:    cfg.Matching.CandidateCap,
		DefaultPageSize: cfg.Matching.DefaultPageSize,
		MaxPageSize:     cfg.Matching.MaxPageSize,
		FallbackDefault: cfg.Matching.FallbackDefault,
	}, logger)
	introductionUseCase := introduction.NewIntroductionUseCase(st.profiles, st.requests, c.Dispatcher, introduction.Config{
		RequestTTL:      cfg.Matching.RequestTTL,
		GuardianEnforce: cfg.Matching.GuardianEnforce,
		DefaultPageSize: cfg.Matching.DefaultPageSize,
		MaxPageSize:     cfg.Matching.MaxPageSize,
	}, logger)

	// Initialize router
	router := http.NewRouter(
		handler.NewProfileHandler(profileUseCase, logger),
		handler.NewSearchHandler(searchUseCase, logger),
		handler.NewRequestHandler(introductionUseCase, logger),
		middleware.NewAuthMiddleware(auth.NewTokenService(cfg.JWT.AccessSecret)),
		logger,
	)

	c.Server = server.NewServer(&cfg.Server, router.Setup(), logger)
	return c, nil
}

func (c *Container) initStores(ctx context.Context) (*stores, error) {
	if c.Config.Storage.Type == config.StorageMemory {
		c.Logger.Warn("using in-memory storage, data is lost on restart")
		return &stores{
			profiles: memory.NewProfileRepository(),
			requests: memory.NewRequestRepository(),
			chats:    memory.NewChatRoomRepository(),
		}, nil
	}

	db, err := database.NewPostgresDB(ctx, &c.Config.Database, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	if c.Config.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		c.Logger.Info("database schema applied")
	}

	sealer, err := secure.NewSealer([]byte(c.Config.Encryption.Key))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sealer: %w", err)
	}
	return &stores{
		profiles: postgres.NewProfileRepository(db, sealer),
		requests: postgres.NewRequestRepository(db),
		chats:    postgres.NewChatRoomRepository(db),
	}, nil
}

// Close waits for in-flight side effects, then closes all connections
func (c *Container) Close() error {
	if c.Dispatcher != nil {
		c.Dispatcher.Wait()
	}
	if c.Gemini != nil {
		c.Gemini.Close()
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Error("failed to close redis", "error", err)
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
