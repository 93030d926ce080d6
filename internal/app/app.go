// Package app assembles the quiz service from its stores and services.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"adaptivequiz/internal/cache"
	"adaptivequiz/internal/completion"
	"adaptivequiz/internal/config"
	"adaptivequiz/internal/event"
	"adaptivequiz/internal/logging"
	"adaptivequiz/internal/metrics"
	"adaptivequiz/internal/model"
	"adaptivequiz/internal/repository"
	"adaptivequiz/internal/selection"
	"adaptivequiz/internal/service"
	"adaptivequiz/internal/transport/rest"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Stores are the backing stores of an App
type Stores struct {
	QuestionRepo   repository.QuestionRepo
	ResultRepo     repository.ResultRepo
	SelectionCache selection.Cache
	Publisher      event.Publisher
}

type App struct {
	Config *config.Config
	Logger *zap.Logger

	Stores
	Completion completion.Client
	Engine     *selection.Engine
	Metrics    *metrics.Selection

	AuthService      *service.AuthService
	QuestionService  *service.QuestionService
	SelectionService *service.SelectionService
	ResultService    *service.ResultService

	closers []func(context.Context) error
}

// New connects MongoDB (required), Redis and RabbitMQ (optional) and wires
// the services. Without REDIS_URI the selection cache lives in memory; without
// RABBITMQ_URI events are dropped.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	var closers []func(context.Context) error
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](context.Background())
		}
		return nil, err
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fail(fmt.Errorf("connect mongodb: %w", err))
	}
	closers = append(closers, mongoClient.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return fail(fmt.Errorf("ping mongodb: %w", err))
	}
	logger.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))

	db := mongoClient.Database(cfg.MongoDatabase)
	stores := Stores{
		QuestionRepo: repository.NewQuestionRepo(db),
		ResultRepo:   repository.NewResultRepo(db),
	}
	if err := stores.ResultRepo.EnsureIndexes(ctx); err != nil {
		return fail(fmt.Errorf("ensure result indexes: %w", err))
	}

	if cfg.RedisURI != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr(),
			// honor the engine's deadlines instead of the socket timeouts
			ContextTimeoutEnabled: true,
		})
		closers = append(closers, func(context.Context) error { return rdb.Close() })
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return fail(fmt.Errorf("ping redis: %w", err))
		}
		stores.SelectionCache = cache.NewSelectionCache(rdb, cfg.Selection.CacheTTL)
		logger.Info("connected to redis")
	} else {
		stores.SelectionCache = cache.NewMemorySelectionCache(cfg.Selection.CacheTTL)
		logger.Warn("REDIS_URI not set, selection cache is in memory")
	}

	if cfg.RabbitMQURI != "" {
		pub, err := event.NewAMQPPublisher(cfg.RabbitMQURI, cfg.Exchange, logger)
		if err != nil {
			return fail(fmt.Errorf("connect rabbitmq: %w", err))
		}
		stores.Publisher = pub
		logger.Info("connected to rabbitmq", zap.String("exchange", cfg.Exchange))
	} else {
		stores.Publisher = event.Nop{}
	}
	closers = append(closers, func(context.Context) error { return stores.Publisher.Close() })

	client, err := completion.New(ctx, cfg.Completion, logger)
	if err != nil {
		return fail(fmt.Errorf("completion client: %w", err))
	}

	a := assemble(cfg, logger, stores, client)
	a.closers = closers
	return a, nil
}

// NewInMemory wires the services over in-memory stores seeded with questions
func NewInMemory(cfg *config.Config, logger *zap.Logger, client completion.Client, questions []model.Question) *App {
	stores := Stores{
		QuestionRepo:   repository.NewMemoryQuestionRepo(questions),
		ResultRepo:     repository.NewMemoryResultRepo(),
		SelectionCache: cache.NewMemorySelectionCache(cfg.Selection.CacheTTL),
		Publisher:      event.Nop{},
	}
	return assemble(cfg, logger, stores, client)
}

func assemble(cfg *config.Config, logger *zap.Logger, stores Stores, client completion.Client) *App {
	if client == nil {
		client = completion.Disabled{}
	}

	rec := metrics.NewSelection()
	engine := selection.NewEngine(client, stores.SelectionCache, selection.OptionsFromConfig(cfg.Selection, cfg.Completion))
	engine.SetLogger(logging.NewRateLimited(logger.Named("selection"), cfg.Selection.LogInterval))
	engine.SetRecorder(rec)

	questionSvc := service.NewQuestionService(stores.QuestionRepo)
	selectionSvc := service.NewSelectionService(questionSvc, stores.ResultRepo, engine, cfg.Selection.HistoryLimit, logger)
	resultSvc := service.NewResultService(questionSvc, stores.ResultRepo, cfg.Selection.HistoryLimit, logger)
	selectionSvc.SetPublisher(stores.Publisher)
	resultSvc.SetPublisher(stores.Publisher)

	return &App{
		Config:           cfg,
		Logger:           logger,
		Stores:           stores,
		Completion:       client,
		Engine:           engine,
		Metrics:          rec,
		AuthService:      service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL),
		QuestionService:  questionSvc,
		SelectionService: selectionSvc,
		ResultService:    resultSvc,
	}
}

// Router returns the REST API
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:      a.AuthService,
		QuestionService:  a.QuestionService,
		SelectionService: a.SelectionService,
		ResultService:    a.ResultService,
		Metrics:          a.Metrics.Handler(),
		Logger:           a.Logger,
		AllowedOrigins:   a.Config.CORSAllowedOrigins,
	})
}

// Close releases connections in reverse order of opening
func (a *App) Close(ctx context.Context) error {
	a.SelectionService.Wait()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
