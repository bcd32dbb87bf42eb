package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/config"
	"github.com/AxelTei/Jeux-Olympiques/internal/payment"
	"github.com/AxelTei/Jeux-Olympiques/internal/redis"
	redisrepo "github.com/AxelTei/Jeux-Olympiques/internal/repository/redis"
	"github.com/AxelTei/Jeux-Olympiques/internal/service"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/catalog"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/tickets"
	httpgin "github.com/AxelTei/Jeux-Olympiques/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	pubsub     *redisrepo.OffersPubSub
	catalog    *catalog.Service
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	rdb, err := redis.New(context.Background(), redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	api, err := backend.New(backend.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backend client: %w", err)
	}

	// Initialize repositories
	sessions := redisrepo.NewSessionStore(rdb, cfg.Session.TTL)
	receipts := redisrepo.NewReceiptStore(rdb, 24*time.Hour)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewOffersPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, redisrepo.RateLimitPrefix("pay"), 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Initialize services
	services := service.NewServices(api, sessions, receipts, cache, pubsub, idempotencyStore, limiter, logger, service.Config{
		Catalog: catalog.Config{
			OffersTTL: 1 * time.Minute,
			OfferTTL:  1 * time.Minute,
		},
		Payment: payment.Config{
			Delay: cfg.Payment.Delay,
		},
		Tickets: tickets.Config{
			PublicBaseURL: cfg.Public.BaseURL,
		},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		pubsub:  pubsub,
		catalog: services.Catalog,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Invalidate cached offers when another instance publishes a change
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, offerID int64) {
			a.catalog.InvalidateCached(ctx, offerID)
		})
		if err != nil && gCtx.Err() == nil {
			a.logger.Error("offers pubsub subscription stopped", "error", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
