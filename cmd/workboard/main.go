package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/isp-workboard/internal/api/http"
	"github.com/spec-kit/isp-workboard/internal/api/http/handlers"
	"github.com/spec-kit/isp-workboard/internal/auth"
	"github.com/spec-kit/isp-workboard/internal/config"
	"github.com/spec-kit/isp-workboard/internal/events"
	"github.com/spec-kit/isp-workboard/internal/locale"
	"github.com/spec-kit/isp-workboard/internal/observability"
	"github.com/spec-kit/isp-workboard/internal/repository"
	"github.com/spec-kit/isp-workboard/internal/seed"
	"github.com/spec-kit/isp-workboard/internal/service"
	"github.com/spec-kit/isp-workboard/internal/worker"
)

func main() {
	flags := pflag.NewFlagSet("workboard", pflag.ExitOnError)
	envFiles := flags.StringSlice("env-file", nil, "dotenv files to load before reading the environment")
	addr := flags.String("addr", "", "listen address (host:port), overrides APP_HOST/APP_PORT")
	logLevel := flags.String("log-level", "", "log level, overrides LOG_LEVEL")
	noSeed := flags.Bool("no-seed", false, "start with an empty board and no demo accounts")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *addr != "" {
		host, port, err := net.SplitHostPort(*addr)
		if err != nil {
			log.Fatalf("invalid --addr: %v", err)
		}
		cfg.App.Host, cfg.App.Port = host, port
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	if *noSeed {
		cfg.Workboard.SeedDemoData = false
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog, err := locale.Load(cfg.Workboard.DefaultLocale)
	if err != nil {
		logger.Fatal("failed to load locale catalogs", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, metrics, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	ticketService, err := service.NewTicketService(ctx, service.TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init ticket service", zap.Error(err))
	}

	accountRepo := repository.NewMemoryAccountRepository()
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{AccountRepo: accountRepo})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), accountRepo)

	if cfg.Workboard.SeedDemoData {
		accounts, err := seed.Accounts(ctx, authService)
		if err != nil {
			logger.Fatal("failed to seed accounts", zap.Error(err))
		}
		tickets, err := seed.Tickets(ctx, ticketService, time.Now())
		if err != nil {
			logger.Fatal("failed to seed tickets", zap.Error(err))
		}
		logger.Info("demo data loaded", zap.Int("accounts", accounts), zap.Int("tickets", tickets))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), catalog)

	presenter := handlers.NewPresenter(catalog, nil)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, ticketService),
		Auth:           handlers.NewAuthHandler(authService),
		Board:          handlers.NewBoardHandler(ticketService, presenter, cfg.Workboard.ColumnLimit),
		Tickets:        handlers.NewTicketsHandler(ticketService, presenter),
		Locales:        handlers.NewLocaleHandler(catalog),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
