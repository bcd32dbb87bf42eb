package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
	redisrepo "github.com/AxelTei/Jeux-Olympiques/internal/repository/redis"
	"github.com/shopspring/decimal"
)

// API is the catalog surface of the backend consumed here.
type API interface {
	ListOffers(ctx context.Context) ([]domain.Offer, error)
	GetOffer(ctx context.Context, id int64) (*domain.Offer, error)
	CreateOffer(ctx context.Context, token string, in backend.OfferInput) error
	UpdateOffer(ctx context.Context, token string, id int64, in backend.OfferInput) error
	SellsByOffer(ctx context.Context, authHeader string) ([]domain.OfferSells, error)
}

type Config struct {
	OffersTTL time.Duration
	OfferTTL  time.Duration
}

type Service struct {
	api    API
	cache  *redisrepo.Cache
	pubsub *redisrepo.OffersPubSub
	cfg    Config
}

func New(api API, cache *redisrepo.Cache, pubsub *redisrepo.OffersPubSub, cfg Config) *Service {
	if cfg.OffersTTL <= 0 {
		cfg.OffersTTL = 60 * time.Second
	}
	if cfg.OfferTTL <= 0 {
		cfg.OfferTTL = 60 * time.Second
	}

	return &Service{
		api:    api,
		cache:  cache,
		pubsub: pubsub,
		cfg:    cfg,
	}
}

// ListOffers returns the catalog, cached briefly with singleflight so
// a cold cache triggers a single backend round trip.
func (s *Service) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	const op = "service.catalog.ListOffers"

	offers, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyOffers(),
		s.cfg.OffersTTL,
		func(ctx context.Context) ([]domain.Offer, error) {
			return s.api.ListOffers(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return offers, nil
}

func (s *Service) GetOffer(ctx context.Context, id int64) (*domain.Offer, error) {
	const op = "service.catalog.GetOffer"

	offer, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyOffer(id),
		s.cfg.OfferTTL,
		func(ctx context.Context) (domain.Offer, error) {
			o, err := s.api.GetOffer(ctx, id)
			if err != nil {
				if errors.Is(err, backend.ErrNotFound) {
					return domain.Offer{}, ErrOfferNotFound
				}
				return domain.Offer{}, err
			}
			return *o, nil
		},
	)
	if err != nil {
		if errors.Is(err, ErrOfferNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOfferNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &offer, nil
}

func (s *Service) CreateOffer(ctx context.Context, token string, in backend.OfferInput) error {
	const op = "service.catalog.CreateOffer"

	if err := s.api.CreateOffer(ctx, token, in); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx, 0)
	return nil
}

func (s *Service) UpdateOffer(ctx context.Context, token string, id int64, in backend.OfferInput) error {
	const op = "service.catalog.UpdateOffer"

	if err := s.api.UpdateOffer(ctx, token, id, in); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrOfferNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx, id)
	return nil
}

// invalidate drops the local cache and notifies the other instances.
// Cache misses self-heal, so failures here are ignored.
func (s *Service) invalidate(ctx context.Context, offerID int64) {
	if offerID > 0 {
		_ = s.cache.InvalidateOffers(ctx, offerID)
	} else {
		_ = s.cache.InvalidateOffers(ctx)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishOffersChanged(ctx, offerID)
	}
}

// InvalidateCached handles a change published by another instance.
func (s *Service) InvalidateCached(ctx context.Context, offerID int64) {
	if offerID > 0 {
		_ = s.cache.InvalidateOffers(ctx, offerID)
		return
	}
	_ = s.cache.InvalidateOffers(ctx)
}

// SellsRow is one line of the admin sales report with its revenue.
type SellsRow struct {
	domain.OfferSells
	Revenue decimal.Decimal `json:"revenue"`
}

// SellsReport aggregates the backend's per-offer counters into a
// report with exact revenue arithmetic.
type SellsReport struct {
	Rows         []SellsRow      `json:"rows"`
	TotalSells   int64           `json:"totalSells"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

func (s *Service) Sells(ctx context.Context, authHeader string) (*SellsReport, error) {
	const op = "service.catalog.Sells"

	sells, err := s.api.SellsByOffer(ctx, authHeader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &SellsReport{
		Rows:         make([]SellsRow, 0, len(sells)),
		TotalRevenue: decimal.Zero,
	}
	for _, row := range sells {
		revenue := decimal.NewFromFloat(row.OfferPrice).Mul(decimal.NewFromInt(row.Sells))
		report.Rows = append(report.Rows, SellsRow{OfferSells: row, Revenue: revenue})
		report.TotalSells += row.Sells
		report.TotalRevenue = report.TotalRevenue.Add(revenue)
	}
	return report, nil
}
