package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/quote-service/internal/api/http"
	"github.com/spec-kit/quote-service/internal/api/http/handlers"
	"github.com/spec-kit/quote-service/internal/auth"
	"github.com/spec-kit/quote-service/internal/config"
	"github.com/spec-kit/quote-service/internal/events"
	"github.com/spec-kit/quote-service/internal/notify"
	"github.com/spec-kit/quote-service/internal/observability"
	"github.com/spec-kit/quote-service/internal/persistence"
	"github.com/spec-kit/quote-service/internal/repository"
	"github.com/spec-kit/quote-service/internal/repository/memory"
	"github.com/spec-kit/quote-service/internal/service"
	"github.com/spec-kit/quote-service/internal/storage"
	"github.com/spec-kit/quote-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	users       repository.UserRepository
	groups      repository.GroupRepository
	memberships repository.MembershipRepository
	quotes      repository.QuoteRepository
	history     repository.QuoteHistoryRepository
	revoked     repository.RevokedTokenStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg, redis)

	files, closeFiles, err := buildFileStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init file store", zap.Error(err))
	}
	uploadPolicy := storage.UploadPolicy{MaxBytes: cfg.Storage.MaxUploadBytes, AllowedTypes: cfg.Storage.AllowedMimeTypes}

	dispatcher := events.NewInMemoryDispatcher(logger)
	if cfg.Broker.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Exchange, logger)
		if err != nil {
			// the broker is an optional sink
			logger.Warn("amqp publisher disabled", zap.Error(err))
		} else {
			publisher.Register(dispatcher)
			defer publisher.Close()
		}
	}

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.Mail.MailgunEnabled() {
		mailer = notify.NewMailgunMailer(cfg.Mail, logger)
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:       repos.users,
		MembershipRepo: repos.memberships,
		RevokedTokens:  repos.revoked,
		Logger:         logger,
	})
	userService := service.NewUserService(cfg.Auth, service.UserDependencies{
		UserRepo:       repos.users,
		MembershipRepo: repos.memberships,
		Logger:         logger,
	})
	groupService := service.NewGroupService(service.GroupDependencies{
		GroupRepo:      repos.groups,
		MembershipRepo: repos.memberships,
		UserRepo:       repos.users,
		QuoteRepo:      repos.quotes,
		Logger:         logger,
	})
	quoteService := service.NewQuoteService(service.QuoteDependencies{
		QuoteRepo:    repos.quotes,
		HistoryRepo:  repos.history,
		FileStore:    files,
		UploadPolicy: uploadPolicy,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	fileService := service.NewFileService(service.FileDependencies{
		QuoteRepo:    repos.quotes,
		HistoryRepo:  repos.history,
		FileStore:    files,
		UploadPolicy: uploadPolicy,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		QuoteRepo:   repos.quotes,
		UserRepo:    repos.users,
		GroupRepo:   repos.groups,
		HistoryRepo: repos.history,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	if created, err := userService.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPass); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	} else if created {
		logger.Info("bootstrap admin created", zap.String("email", cfg.Auth.BootstrapAdminEmail))
	}

	notificationService := service.NewNotificationService(cfg.Mail, service.NotificationDependencies{
		Dispatcher:     dispatcher,
		Mailer:         mailer,
		UserRepo:       repos.users,
		MembershipRepo: repos.memberships,
		Logger:         logger,
	})
	stopNotifications := worker.StartNotificationWorker(notificationService, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.users, repos.memberships, repos.revoked, logger)

	metrics := observability.NewMetrics()
	app := httptransport.NewServer(httptransport.ServerOptions{
		AppName:        cfg.App.Name,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		RequestTimeout: cfg.App.RequestTimeout(),
	}, logger, metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, files, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Quotes:         handlers.NewQuotesHandler(quoteService),
		Assignments:    handlers.NewAssignmentHandler(assignmentService),
		Files:          handlers.NewFilesHandler(fileService),
		Groups:         handlers.NewGroupsHandler(groupService),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopNotifications(shutdownCtx)
	if err := closeFiles(shutdownCtx); err != nil {
		logger.Warn("file store close", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres, redis *persistence.Redis) repositories {
	var repos repositories
	if pg.Enabled() {
		pool := pg.PoolHandle()
		repos = repositories{
			users:       repository.NewUserRepository(pool),
			groups:      repository.NewGroupRepository(pool),
			memberships: repository.NewMembershipRepository(pool),
			quotes:      repository.NewQuoteRepository(pool),
			history:     repository.NewQuoteHistoryRepository(pool),
		}
	} else {
		repos = repositories{
			users:       memory.NewUserRepository(),
			groups:      memory.NewGroupRepository(),
			memberships: memory.NewMembershipRepository(),
			quotes:      memory.NewQuoteRepository(),
			history:     memory.NewQuoteHistoryRepository(),
		}
	}

	if redis.Available {
		repos.revoked = repository.NewRedisTokenStore(redis.Client)
	} else {
		repos.revoked = memory.NewTokenStore()
	}
	return repos
}

func buildFileStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Store, func(context.Context) error, error) {
	switch cfg.Driver {
	case "gridfs":
		return storage.NewGridFSStore(ctx, cfg, logger)
	default:
		store, err := storage.NewLocalStore(cfg.LocalDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using local file store", zap.String("dir", cfg.LocalDir))
		return store, func(context.Context) error { return nil }, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
