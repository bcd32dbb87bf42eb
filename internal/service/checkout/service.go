package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
	"github.com/AxelTei/Jeux-Olympiques/internal/monitoring"
	"github.com/AxelTei/Jeux-Olympiques/internal/payment"
	"github.com/AxelTei/Jeux-Olympiques/internal/repository"
	redisrepo "github.com/AxelTei/Jeux-Olympiques/internal/repository/redis"
	"github.com/Rhymond/go-money"
)

// API is the cart/checkout surface of the backend consumed here.
type API interface {
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	AddBooking(ctx context.Context, in backend.BookingInput) error
	DeleteBooking(ctx context.Context, id string) error
	MintTicket(ctx context.Context, in domain.MintTicketInput) error
}

type Service struct {
	api      API
	orch     *payment.Orchestrator
	receipts *redisrepo.ReceiptStore
	idem     *redisrepo.IdempotencyStore
	limiter  *redisrepo.SlidingWindowLimiter
	logger   *slog.Logger
}

func New(
	api API,
	orch *payment.Orchestrator,
	receipts *redisrepo.ReceiptStore,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
) *Service {
	return &Service{
		api:      api,
		orch:     orch,
		receipts: receipts,
		idem:     idem,
		limiter:  limiter,
		logger:   logger,
	}
}

// --- Cart ---

func (s *Service) ListCart(ctx context.Context) ([]domain.Booking, error) {
	const op = "service.checkout.ListCart"

	bookings, err := s.api.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bookings, nil
}

func (s *Service) AddToCart(ctx context.Context, sess *domain.Session, offer *domain.Offer, guests int) error {
	const op = "service.checkout.AddToCart"

	if guests <= 0 {
		guests = offer.NumberOfCustomers
	}

	in := backend.BookingInput{
		BookingOfferTitle: offer.Title,
		Price:             offer.Price,
		UserKey:           sess.UserKey,
		NumberOfGuests:    guests,
	}
	if err := s.api.AddBooking(ctx, in); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) RemoveFromCart(ctx context.Context, bookingID string) error {
	const op = "service.checkout.RemoveFromCart"

	if err := s.api.DeleteBooking(ctx, bookingID); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	const op = "service.checkout.GetBooking"

	b, err := s.api.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// --- Payment ---

// CardInput carries the raw checkout form fields.
type CardInput struct {
	Number string
	Expiry string
	CVC    string
}

// Pay runs the mock payment for a booking. rlKey scopes the rate limit,
// typically "ip:<addr>". The booking price is in euros; the gateway
// wants minor units, so the conversion goes through go-money rather
// than a bare multiply.
func (s *Service) Pay(ctx context.Context, bookingID string, in CardInput, rlKey string) (payment.Outcome, error) {
	const op = "service.checkout.Pay"

	if s.limiter != nil && rlKey != "" {
		allowed, _, _, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			s.logger.Warn("rate limiter unavailable",
				slog.String("op", op),
				slog.String("error", err.Error()),
			)
		} else if !allowed {
			return payment.Outcome{State: payment.StateIdle}, fmt.Errorf("%s: %w", op, ErrRateLimited)
		}
	}

	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return payment.Outcome{State: payment.StateIdle}, err
	}

	amount := money.NewFromFloat(b.Price, money.EUR).Amount()

	outcome, err := s.orch.Pay(ctx, payment.Request{
		BookingID:  b.ID,
		UserKey:    b.UserKey,
		Amount:     amount,
		CardNumber: in.Number,
		Expiry:     in.Expiry,
		CVC:        in.CVC,
	})
	if err != nil {
		return outcome, fmt.Errorf("%s: %w", op, err)
	}

	monitoring.ObservePayment(string(outcome.State))
	return outcome, nil
}

// --- Success view + ticket mint ---

// SuccessView is what the success page renders: the booking plus the
// receipt persisted by the orchestrator.
type SuccessView struct {
	Booking domain.Booking  `json:"booking"`
	Receipt *domain.Receipt `json:"receipt,omitempty"`
}

func (s *Service) Success(ctx context.Context, bookingID string) (*SuccessView, error) {
	const op = "service.checkout.Success"

	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	view := &SuccessView{Booking: *b}

	receipt, err := s.receipts.GetReceipt(ctx, b.UserKey)
	if err == nil {
		view.Receipt = receipt
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("load receipt failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}

	return view, nil
}

// MintTicket asks the backend to issue the e-ticket for a paid booking.
// It runs at most once per booking: concurrent calls race on a lock and
// repeat calls are no-ops. A receipt for the booking's user must exist,
// which is only written after a confirm observed "succeeded".
func (s *Service) MintTicket(ctx context.Context, sess *domain.Session, bookingID string) error {
	const op = "service.checkout.MintTicket"

	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if _, err := s.receipts.GetReceipt(ctx, b.UserKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPaymentRequired)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	idemKey := redisrepo.KeyIdemMint(bookingID)

	if _, done, err := s.idem.GetResult(ctx, idemKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	} else if done {
		return nil
	}

	locked, err := s.idem.AcquireLock(ctx, idemKey, 60*time.Second)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !locked {
		if _, done, _ := s.idem.GetResult(ctx, idemKey); done {
			return nil
		}
		return fmt.Errorf("%s: %w", op, ErrMintInProgress)
	}

	in := domain.MintTicketInput{
		Username:       sess.Alias,
		OfferTitle:     b.BookingOfferTitle,
		TicketPrice:    b.Price,
		NumberOfGuests: b.NumberOfGuests,
		UserKey:        b.UserKey,
	}
	if err := s.api.MintTicket(ctx, in); err != nil {
		_ = s.idem.Release(ctx, idemKey)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.idem.SaveResult(ctx, idemKey, `{"minted":true}`); err != nil {
		s.logger.Warn("save mint marker failed",
			slog.String("op", op),
			slog.String("booking_id", bookingID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}
