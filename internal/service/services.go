package service

import (
	"log/slog"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/payment"
	redisrepo "github.com/AxelTei/Jeux-Olympiques/internal/repository/redis"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/auth"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/catalog"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/checkout"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/tickets"
)

type Services struct {
	Auth     *auth.Service
	Catalog  *catalog.Service
	Checkout *checkout.Service
	Tickets  *tickets.Service
}

type Config struct {
	Catalog catalog.Config
	Payment payment.Config
	Tickets tickets.Config
}

func NewServices(
	api *backend.Client,
	sessions *redisrepo.SessionStore,
	receipts *redisrepo.ReceiptStore,
	cache *redisrepo.Cache,
	pubsub *redisrepo.OffersPubSub,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Services {
	orch := payment.New(api, receipts, logger, cfg.Payment)

	return &Services{
		Auth:     auth.New(api, sessions, logger),
		Catalog:  catalog.New(api, cache, pubsub, cfg.Catalog),
		Checkout: checkout.New(api, orch, receipts, idem, limiter, logger),
		Tickets:  tickets.New(api, cfg.Tickets),
	}
}
