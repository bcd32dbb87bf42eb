// Package payment sequences the mock checkout: field validation,
// test-card classification, the create-intent / confirm round trips
// against the gateway, and the receipt for the success view.
package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/card"
	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
)

// State is a step of the payment attempt. Every attempt ends in one of
// Rejected, Declined, Failed, or Succeeded; none of them is fatal to
// the process and the user may resubmit after any of the first three.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateSubmitting State = "submitting"
	StateDeclined   State = "declined"
	StateConfirming State = "confirming"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

const (
	// MsgDeclined is shown verbatim for the hard-decline test card.
	MsgDeclined = "Votre carte a été refusée. Veuillez essayer avec une autre carte."
	// MsgServerError covers every remote-call failure without a
	// server-supplied message.
	MsgServerError = "Une erreur est survenue lors de la communication avec le serveur"
)

// clientSecretSep splits the intent id off the client secret.
const clientSecretSep = "_secret_"

// Gateway is the two-call payment surface of the backend.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency, description string) (clientSecret string, err error)
	ConfirmPayment(ctx context.Context, intentID, methodID string) (status string, err error)
}

// ReceiptStore keeps the last successful payment per user for the
// success view.
type ReceiptStore interface {
	SaveReceipt(ctx context.Context, userKey string, r domain.Receipt) error
}

type Config struct {
	// Delay models gateway latency between create and confirm.
	Delay       time.Duration
	Currency    string
	Description string
	// MethodID is the fixed mock payment method sent on confirm.
	MethodID string
}

type Orchestrator struct {
	gw       Gateway
	receipts ReceiptStore
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

func New(gw Gateway, receipts ReceiptStore, logger *slog.Logger, cfg Config) *Orchestrator {
	if cfg.Delay <= 0 {
		cfg.Delay = 1500 * time.Millisecond
	}
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}
	if cfg.Description == "" {
		cfg.Description = "Achat de e-ticket pour les JO 2024"
	}
	if cfg.MethodID == "" {
		cfg.MethodID = "pm_mock_card"
	}

	return &Orchestrator{
		gw:       gw,
		receipts: receipts,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Request is one payment attempt for a booking.
type Request struct {
	BookingID  string
	UserKey    string
	Amount     int64 // minor currency units
	CardNumber string
	Expiry     string
	CVC        string
}

// Outcome is the terminal result of an attempt. Fields is populated on
// Rejected, Message on Declined and Failed.
type Outcome struct {
	State    State       `json:"state"`
	Fields   card.Result `json:"fields"`
	Message  string      `json:"message,omitempty"`
	IntentID string      `json:"paymentIntentId,omitempty"`
}

// Pay runs one attempt to its terminal state. The steps are strictly
// serialized: validate, classify, create intent, wait, confirm. The
// context is checked before every transition, so a caller tearing down
// mid-flight gets ctx.Err() instead of a state update into a discarded
// view. No retry happens here; retry is the user resubmitting.
func (o *Orchestrator) Pay(ctx context.Context, req Request) (Outcome, error) {
	const op = "payment.Pay"

	if err := ctx.Err(); err != nil {
		return Outcome{State: StateIdle}, err
	}

	res := card.Validate(req.CardNumber, req.Expiry, req.CVC, o.now())
	if !res.OK {
		return Outcome{State: StateRejected, Fields: res}, nil
	}

	if card.ClassifyNumber(req.CardNumber) == card.Declined {
		return Outcome{State: StateDeclined, Message: MsgDeclined}, nil
	}

	if err := ctx.Err(); err != nil {
		return Outcome{State: StateValidating}, err
	}

	secret, err := o.gw.CreatePaymentIntent(ctx, req.Amount, o.cfg.Currency, o.cfg.Description)
	if err != nil {
		o.logger.Warn("create payment intent failed",
			slog.String("op", op),
			slog.String("booking_id", req.BookingID),
			slog.String("error", err.Error()),
		)
		return Outcome{State: StateFailed, Message: failureMessage(err)}, nil
	}

	intentID, _, _ := strings.Cut(secret, clientSecretSep)

	if err := o.wait(ctx); err != nil {
		return Outcome{State: StateSubmitting, IntentID: intentID}, err
	}

	status, err := o.gw.ConfirmPayment(ctx, intentID, o.cfg.MethodID)
	if err != nil || status != "succeeded" {
		if err != nil {
			o.logger.Warn("confirm payment failed",
				slog.String("op", op),
				slog.String("intent_id", intentID),
				slog.String("error", err.Error()),
			)
		}
		return Outcome{State: StateFailed, Message: MsgServerError, IntentID: intentID}, nil
	}

	if err := ctx.Err(); err != nil {
		return Outcome{State: StateConfirming, IntentID: intentID}, err
	}

	receipt := domain.Receipt{
		Amount: req.Amount,
		Date:   o.now().Format("02/01/2006"),
	}
	if err := o.receipts.SaveReceipt(ctx, req.UserKey, receipt); err != nil {
		// The payment already succeeded; losing the receipt only
		// degrades the success view.
		o.logger.Warn("save receipt failed",
			slog.String("op", op),
			slog.String("user_key", req.UserKey),
			slog.String("error", err.Error()),
		)
	}

	return Outcome{State: StateSucceeded, IntentID: intentID}, nil
}

// wait blocks for the configured artificial delay or until ctx is
// cancelled.
func (o *Orchestrator) wait(ctx context.Context) error {
	t := time.NewTimer(o.cfg.Delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// failureMessage maps a create-intent failure to the user-visible
// message: the server-supplied one when present, a generic one for
// transport failures and malformed bodies.
func failureMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgServerError
}
