package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"listing-service/internal/adapters/filestore"
	logger_adapter "listing-service/internal/adapters/logger"
	"listing-service/internal/adapters/memory"
	postgres_adapter "listing-service/internal/adapters/postgres"
	rabbitmq_adapter "listing-service/internal/adapters/rabbitmq"
	"listing-service/internal/adapters/rediscache"
	"listing-service/internal/adapters/rest"
	"listing-service/internal/configs"
	"listing-service/internal/constants"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/usecase"
	fluentlogger "listing-service/pkg/fluent_logger"
	"listing-service/pkg/postgres"
	"listing-service/pkg/rabbitmq/rabbitmq_common"
	"listing-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App – структура приложения
type App struct {
	config       *configs.AppConfig
	dbPool       *pgxpool.Pool
	apiServer    *rest.Server
	fluentClient *fluent.Fluent
	redisClient  redis.UniversalClient
	logger       port.LoggerPort

	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
}

// storage - пара портов чтения и записи поверх выбранного драйвера
type storage struct {
	query port.PropertyQueryPort
	tx    port.TransactionManager
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp(appConfig *configs.AppConfig) (*App, error) {
	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	baseLogger, fluentClient, err := newLoggers(appConfig)
	if err != nil {
		return nil, err
	}
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})

	application := &App{
		config:       appConfig,
		fluentClient: fluentClient,
		logger:       appLogger,
	}
	fail := func(msg string, err error) (*App, error) {
		appLogger.Error(msg, err, nil)
		application.closeResources()
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	// --- 2. ХРАНИЛИЩЕ ---
	var store storage
	switch appConfig.StorageDriver {
	case configs.StorageDriverMemory:
		memStore := memory.NewStore()
		if err := seedMemoryDictionaries(memStore); err != nil {
			return fail("failed to seed in-memory store", err)
		}
		store = storage{query: memStore, tx: memStore}
		appLogger.Warn("Using in-memory storage, data is lost on restart", nil)
	default:
		dbPool, err := postgres.NewClient(context.Background(), postgres.Config{
			DatabaseURL:     appConfig.Database.URL,
			MaxConns:        int32(appConfig.Database.MaxConns),
			MinConns:        int32(appConfig.Database.MinConns),
			MaxConnLifetime: appConfig.Database.MaxConnLifetime,
		})
		if err != nil {
			return fail("failed to connect to PostgreSQL", err)
		}
		application.dbPool = dbPool
		appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

		queryAdapter, err := postgres_adapter.NewPostgresQueryAdapter(dbPool)
		if err != nil {
			return fail("failed to create postgres query adapter", err)
		}
		txManager, err := postgres_adapter.NewPostgresTransactionManager(dbPool)
		if err != nil {
			return fail("failed to create postgres transaction manager", err)
		}
		store = storage{query: queryAdapter, tx: txManager}
		appLogger.Info("Postgres storage adapters initialized.", nil)
	}

	imageStorage, err := filestore.NewLocalImageStorage(appConfig.Images.Dir, appConfig.Images.ThumbnailWidth, appConfig.Images.MaxPixels)
	if err != nil {
		return fail("failed to create image storage", err)
	}

	// --- 3. НЕОБЯЗАТЕЛЬНЫЕ ИСХОДЯЩИЕ АДАПТЕРЫ ---
	var events port.PropertyEventPublisherPort
	if appConfig.RabbitMQ.Enabled {
		connManagerBridge := rabbitmq_adapter.NewBrokerLogBridge(baseLogger, "listing_events_connection")
		connManager, err := rabbitmq_common.NewConnectionManager(rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL}, connManagerBridge)
		if err != nil {
			return fail("failed to create connection manager", err)
		}
		application.connManager = connManager
		appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

		eventProducer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			ExchangeName:             constants.PropertyEventsExchange,
			ExchangeType:             constants.PropertyEventsExchangeType,
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   rabbitmq_adapter.NewBrokerLogBridge(baseLogger, "listing_events_publisher"),
		}, connManager)
		if err != nil {
			return fail("failed to create event producer", err)
		}
		application.eventProducer = eventProducer

		eventsAdapter, err := rabbitmq_adapter.NewPropertyEventPublisherAdapter(eventProducer)
		if err != nil {
			return fail("failed to create property events adapter", err)
		}
		events = eventsAdapter
		appLogger.Info("RabbitMQ Event Producer initialized.", nil)
	}

	var featuredCache port.FeaturedCachePort
	if appConfig.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     appConfig.Redis.Addr,
			Password: appConfig.Redis.Password,
			DB:       appConfig.Redis.DB,
		})
		application.redisClient = redisClient
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			// Кеш не обязателен: сервис работает и без него
			appLogger.Warn("Redis is unreachable, featured cache disabled", port.Fields{"error": err.Error()})
		} else {
			cache, err := rediscache.NewFeaturedCache(redisClient, appConfig.Redis.KeyPrefix)
			if err != nil {
				return fail("failed to create featured cache", err)
			}
			featuredCache = cache
			appLogger.Info("Redis featured cache initialized.", nil)
		}
	}

	// --- 4. USE CASES ---
	mutationDeps := usecase.MutationDeps{
		Tx:      store.tx,
		Images:  imageStorage,
		Events:  events,
		Cache:   featuredCache,
		Clock:   port.SystemClock{},
		Timeout: appConfig.MutationTimeout,
	}

	searchUseCase := usecase.NewSearchPropertiesUseCase(store.query)
	listUseCase := usecase.NewListPropertiesUseCase(store.query)
	getUseCase := usecase.NewGetPropertyUseCase(store.query)
	featuredUseCase := usecase.NewGetFeaturedUseCase(store.query, featuredCache, port.SystemClock{}, appConfig.Redis.FeaturedTTL)
	similarUseCase := usecase.NewGetSimilarUseCase(store.query)

	createUseCase := usecase.NewCreatePropertyUseCase(mutationDeps)
	updateUseCase := usecase.NewUpdatePropertyUseCase(mutationDeps)
	deleteUseCase := usecase.NewDeletePropertyUseCase(mutationDeps)
	appLogger.Info("All use cases initialized.", nil)

	// --- 5. REST API ---
	queryHandlers := rest.NewPropertyQueryHandlers(searchUseCase, listUseCase, getUseCase, featuredUseCase, similarUseCase)
	mutationHandlers := rest.NewPropertyMutationHandlers(createUseCase, updateUseCase, deleteUseCase)
	application.apiServer = rest.NewServer(appConfig.Rest.PORT, queryHandlers, mutationHandlers, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	return application, nil
}

// Run запускает HTTP сервер и ждет сигнала на завершение
func (a *App) Run() error {
	defer a.closeResources()

	a.logger.Info("Application is starting...", nil)

	errorsCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	var runErr error
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
		runErr = err
	}

	a.logger.Info("Shutdown sequence initiated...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Rest.ShutdownTimeout)
	defer cancel()
	if err := a.apiServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("Error during API server shutdown", err, nil)
	}

	return runErr
}

// closeResources закрывает все, что успело открыться. Fluent закрывается последним.
func (a *App) closeResources() {
	if a.eventProducer != nil {
		if err := a.eventProducer.Close(); err != nil {
			a.logger.Error("Error closing event producer", err, nil)
		}
		a.eventProducer = nil
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
		a.connManager = nil
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Error closing redis client", err, nil)
		}
		a.redisClient = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
		a.dbPool = nil
	}

	a.logger.Info("Application shut down gracefully.", nil)

	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			// Логируем в stdout, так как fluent может быть уже недоступен
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
		a.fluentClient = nil
	}
}

// RunMigrations применяет встроенные SQL-миграции и возвращает число новых
func RunMigrations(ctx context.Context, appConfig *configs.AppConfig) (int, error) {
	if appConfig.StorageDriver != configs.StorageDriverPostgres {
		return 0, fmt.Errorf("migrations require STORAGE_DRIVER=%s", configs.StorageDriverPostgres)
	}
	dbPool, err := postgres.NewClient(ctx, postgres.Config{DatabaseURL: appConfig.Database.URL, MaxConns: 1})
	if err != nil {
		return 0, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer dbPool.Close()

	return postgres_adapter.Migrate(ctx, dbPool)
}

func newLoggers(appConfig *configs.AppConfig) (port.LoggerPort, *fluent.Fluent, error) {
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   appConfig.StdoutLogger.JSON,
		UseColor: !appConfig.StdoutLogger.JSON,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		var err error
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
			Async:     true,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		if fluentClient != nil {
			fluentClient.Close()
		}
		return nil, nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})
	baseLogger.Info("Logger system initialized", port.Fields{
		"component":      "app",
		"active_loggers": len(activeLoggers),
		"fluent_enabled": appConfig.FluentBit.Enabled,
	})
	return baseLogger, fluentClient, nil
}

func parseLogLevel(levelStr string) slog.Level {
	level, err := logger_adapter.ParseLevel(levelStr)
	if err != nil {
		log.Printf("Warning: %v. Defaulting to 'info'.", err)
	}
	return level
}

// seedMemoryDictionaries - справочники, без которых в памяти нельзя создать объявление
func seedMemoryDictionaries(store *memory.Store) error {
	if err := store.AddOwner(domain.Owner{ID: 1, Name: "Demo Owner", Email: "owner@example.com", Role: domain.RoleOwner}); err != nil {
		return err
	}
	for i, name := range []string{"Wi-Fi", "Air conditioning", "Washing machine", "Balcony", "Elevator"} {
		store.AddAmenity(domain.Amenity{ID: int64(i + 1), Name: name})
	}
	return nil
}
