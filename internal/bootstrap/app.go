package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"gezy-backend/internal/cases"
	"gezy-backend/internal/casework"
	"gezy-backend/internal/diligence"
	"gezy-backend/internal/documents"
	"gezy-backend/internal/extract"
	"gezy-backend/internal/feedback"
	"gezy-backend/internal/interview"
	"gezy-backend/internal/letters"
	"gezy-backend/internal/llm"
	"gezy-backend/internal/llm/anthropic"
	"gezy-backend/internal/llm/gemini"
	"gezy-backend/internal/llm/openai"
	"gezy-backend/internal/queue"
	"gezy-backend/internal/services/health"
	"gezy-backend/internal/shared/auth"
	"gezy-backend/internal/shared/config"
	"gezy-backend/internal/shared/server"
	"gezy-backend/internal/shared/server/middleware"
	"gezy-backend/internal/shared/storage/db"
	"gezy-backend/internal/shared/storage/object"
	localstore "gezy-backend/internal/shared/storage/object/local"
	s3store "gezy-backend/internal/shared/storage/object/s3"
	"gezy-backend/internal/shared/telemetry"
	"gezy-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	DB          *sql.DB
	Redis       *redis.Client
	Store       object.ObjectStore
	Queue       queue.Client
	ReviewQueue *queue.SQSClient
	Health      *health.Service
	LLM         *llm.Registry

	CasesService     *cases.Service
	DocumentsService *documents.Service
	UsersService     *users.Service
	FeedbackService  *feedback.Service
	Sessions         interview.Store
	Generator        *letters.Generator
	Archive          *letters.Archive
	CaseworkService  *casework.Service

	UsersHandler    *users.Handler
	CaseworkHandler *casework.Handler

	closers []func() error
}

// Option adjusts how Build wires the app.
type Option func(*buildOptions)

type buildOptions struct {
	dbOptions db.Options
	migrate   bool
}

// WithDBOptions overrides the connection pool defaults.
func WithDBOptions(opts db.Options) Option {
	return func(b *buildOptions) { b.dbOptions = opts }
}

// WithoutMigrations skips applying migrations on startup.
func WithoutMigrations() Option {
	return func(b *buildOptions) { b.migrate = false }
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	bo := buildOptions{dbOptions: db.DefaultServerOptions(), migrate: true}
	for _, opt := range opts {
		opt(&bo)
	}
	ctx := context.Background()

	app := &App{Config: cfg, Health: health.NewService()}

	verifier, err := auth.NewVerifier(auth.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Env:      cfg.Env,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg, bo)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		app.closers = append(app.closers, sqlDB.Close)
		app.Health.Register("database", sqlDB.PingContext)
	}

	rdb, err := buildRedis(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	if rdb != nil {
		app.Redis = rdb
		app.closers = append(app.closers, rdb.Close)
		app.Health.Register("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	if err := buildQueue(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	if err := buildServices(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		Health:          app.Health,
		UserHandler:     app.UsersHandler,
		CaseworkHandler: app.CaseworkHandler,
		Limiter:         middleware.NewRateLimiter(time.Now),
		Verifier:        verifier,
	})

	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config, bo buildOptions) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(bo.dbOptions))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if bo.migrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.redis.disabled", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Options{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
			Endpoint: cfg.S3Endpoint,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, app *App) error {
	if strings.TrimSpace(app.Config.ReviewQueueURL) == "" {
		if !isDevLike(app.Config.Env) {
			telemetry.Warn("bootstrap.queue.memory", map[string]any{"reason": "REVIEW_QUEUE_URL empty"})
		}
		app.Queue = &queue.MemoryClient{}
		return nil
	}
	client, err := queue.NewSQSClient(ctx, app.Config.AWSRegion, app.Config.ReviewQueueURL)
	if err != nil {
		return err
	}
	app.ReviewQueue = client
	app.Queue = client
	return nil
}

func buildSessions(app *App) interview.Store {
	ttl := app.Config.SessionTTL
	switch {
	case app.DB != nil && app.Redis != nil:
		return interview.NewCachedStore(&interview.PGStore{DB: app.DB}, app.Redis, ttl)
	case app.DB != nil:
		return &interview.PGStore{DB: app.DB}
	case app.Redis != nil:
		return interview.NewRedisStore(app.Redis, ttl)
	default:
		return interview.NewMemoryStore()
	}
}

func buildExtractor(ctx context.Context, app *App) (*extract.Extractor, string, error) {
	cfg := app.Config
	if cfg.OCRProvider == "documentai" {
		dai, err := extract.NewDocumentAI(ctx, extract.DocumentAIConfig{
			Project:   cfg.DocumentAIProject,
			Location:  cfg.DocumentAILocation,
			Processor: cfg.DocumentAIProcessor,
		})
		if err != nil {
			return nil, "", fmt.Errorf("document ai: %w", err)
		}
		app.closers = append(app.closers, dai.Close)
		return extract.NewExtractor(dai, cfg.OCRTimeout), dai.Name(), nil
	}
	source := extract.TextLayer{}
	return extract.NewExtractor(source, cfg.OCRTimeout), source.Name(), nil
}

// NewLLMRegistry registers every provider with its server-side key.
func NewLLMRegistry(cfg config.Config) *llm.Registry {
	reg := llm.NewRegistry(cfg.LLMProvider, cfg.LLMModel, cfg.LLMTimeout, cfg.LLMMaxAttempts)
	reg.Register(llm.ProviderOpenAI, cfg.OpenAIAPIKey, openai.Factory)
	reg.Register(llm.ProviderGemini, cfg.GeminiAPIKey, gemini.Factory)
	reg.Register(llm.ProviderAnthropic, cfg.AnthropicAPIKey, anthropic.Factory)
	return reg
}

func buildServices(ctx context.Context, app *App) error {
	var (
		caseRepo     cases.Repo
		docRepo      documents.DocumentsRepo
		userRepo     users.Repo
		letterRepo   letters.Repo
		feedbackRepo feedback.Repo
	)
	if app.DB != nil {
		caseRepo = &cases.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
		letterRepo = &letters.PGRepo{DB: app.DB}
		feedbackRepo = &feedback.PGRepo{DB: app.DB}
	} else {
		caseRepo = cases.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		letterRepo = letters.NewMemoryRepo()
		feedbackRepo = feedback.NewMemoryRepo()
	}

	extractor, source, err := buildExtractor(ctx, app)
	if err != nil {
		return err
	}

	templates, err := letters.LoadTemplates()
	if err != nil {
		return fmt.Errorf("load letter templates: %w", err)
	}
	app.LLM = NewLLMRegistry(app.Config)

	app.CasesService = cases.NewService(caseRepo)
	app.DocumentsService = &documents.Service{
		Store:     app.Store,
		Repo:      docRepo,
		Extractor: extractor,
		Provider:  source,
	}
	app.UsersService = users.NewService(userRepo)
	app.FeedbackService = feedback.NewService(feedbackRepo, app.Queue)
	app.Sessions = buildSessions(app)
	app.Generator = letters.NewGenerator(templates, app.LLM)
	app.Archive = &letters.Archive{Repo: letterRepo, Objects: app.Store}

	app.CaseworkService = &casework.Service{
		Cases:     app.CasesService,
		Documents: app.DocumentsService,
		Sessions:  app.Sessions,
		Users:     app.UsersService,
		Scorer:    diligence.NewScorer(),
		Letters:   app.Generator,
		Archive:   app.Archive,
		Feedback:  app.FeedbackService,
	}

	app.UsersHandler = users.NewHandler(app.UsersService)
	app.CaseworkHandler = casework.NewHandler(app.CaseworkService)

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":            app.Config.Env,
		"store":          app.Config.ObjectStoreType,
		"db":             app.DB != nil,
		"redis":          app.Redis != nil,
		"text_source":    source,
		"llm_provider":   app.LLM.Default,
		"llm_configured": app.LLM.Providers(),
		"review_queue":   app.ReviewQueue != nil,
	})
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
