// Package backend is the HTTP client for the external ticketing API,
// the system of record for accounts, offers, bookings, payments, and
// tickets. The storefront forwards every business operation here and
// keeps nothing authoritative itself.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	hc      *http.Client
}

func New(cfg Config) (*Client, error) {
	const op = "backend.New"

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: missing base URL", op)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		hc:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// --- Auth ---

type SignUpInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Alias    string `json:"alias"`
}

type SignInResult struct {
	Token    string   `json:"token"`
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	UserKey  string   `json:"userKey"`
	Alias    string   `json:"alias"`
	Message  string   `json:"message"`
}

func (c *Client) SignUp(ctx context.Context, in SignUpInput) error {
	const op = "backend.SignUp"

	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", in, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) SignIn(ctx context.Context, username, password string) (*SignInResult, error) {
	const op = "backend.SignIn"

	body := map[string]string{"username": username, "password": password}

	var out SignInResult
	if err := c.do(ctx, http.MethodPost, "/auth/signin", "", body, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	const op = "backend.SignOut"

	if err := c.do(ctx, http.MethodPost, "/auth/signout", "", nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// --- Offers ---

type OfferInput struct {
	Title             string  `json:"title"`
	Price             float64 `json:"price"`
	NumberOfCustomers int     `json:"numberOfCustomers"`
}

func (c *Client) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	const op = "backend.ListOffers"

	var out []domain.Offer
	if err := c.do(ctx, http.MethodGet, "/api/bookingOffer", "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (c *Client) GetOffer(ctx context.Context, id int64) (*domain.Offer, error) {
	const op = "backend.GetOffer"

	var out domain.Offer
	path := "/api/bookingOffer/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

func (c *Client) CreateOffer(ctx context.Context, token string, in OfferInput) error {
	const op = "backend.CreateOffer"

	if err := c.do(ctx, http.MethodPost, "/api/bookingOffer", bearer(token), in, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) UpdateOffer(ctx context.Context, token string, id int64, in OfferInput) error {
	const op = "backend.UpdateOffer"

	path := "/api/bookingOffer/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, bearer(token), in, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// --- Bookings (cart) ---

type BookingInput struct {
	BookingOfferTitle string  `json:"bookingOfferTitle"`
	Price             float64 `json:"price"`
	UserKey           string  `json:"userKey"`
	NumberOfGuests    int     `json:"numberOfGuests"`
}

func (c *Client) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	const op = "backend.ListBookings"

	var out []domain.Booking
	if err := c.do(ctx, http.MethodGet, "/api/booking", "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (c *Client) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	const op = "backend.GetBooking"

	var out domain.Booking
	if err := c.do(ctx, http.MethodGet, "/api/booking/"+id, "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

func (c *Client) AddBooking(ctx context.Context, in BookingInput) error {
	const op = "backend.AddBooking"

	if err := c.do(ctx, http.MethodPost, "/api/booking", "", in, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	const op = "backend.DeleteBooking"

	if err := c.do(ctx, http.MethodDelete, "/api/booking/"+id, "", nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// --- Payments ---

type createIntentRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Error        string `json:"error"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	PaymentMethodID string `json:"paymentMethodId"`
}

type confirmPaymentResponse struct {
	Status string `json:"status"`
}

// CreatePaymentIntent asks the backend to open a mock payment intent
// and returns its client secret. The amount is in minor currency units.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64, currency, description string) (string, error) {
	const op = "backend.CreatePaymentIntent"

	req := createIntentRequest{Amount: amount, Currency: currency, Description: description}

	var out createIntentResponse
	if err := c.do(ctx, http.MethodPost, "/api/payment/create-payment-intent", "", req, &out); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	// The backend reports refusals as a 200 with an error field.
	if out.Error != "" {
		return "", fmt.Errorf("%s: %w", op, &APIError{StatusCode: http.StatusOK, Message: out.Error})
	}
	if out.ClientSecret == "" {
		return "", fmt.Errorf("%s: empty client secret", op)
	}
	return out.ClientSecret, nil
}

// ConfirmPayment confirms the intent with the given mock payment
// method and returns the resulting status string.
func (c *Client) ConfirmPayment(ctx context.Context, intentID, methodID string) (string, error) {
	const op = "backend.ConfirmPayment"

	req := confirmPaymentRequest{PaymentIntentID: intentID, PaymentMethodID: methodID}

	var out confirmPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/api/payment/confirm-payment", "", req, &out); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return out.Status, nil
}

// --- Tickets ---

func (c *Client) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	const op = "backend.ListTickets"

	var out []domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/api/ticket", "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (c *Client) GetTicketByKey(ctx context.Context, qrCodeKey string) (*domain.Ticket, error) {
	const op = "backend.GetTicketByKey"

	var out domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/api/ticket/"+qrCodeKey, "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

func (c *Client) MintTicket(ctx context.Context, in domain.MintTicketInput) error {
	const op = "backend.MintTicket"

	if err := c.do(ctx, http.MethodPost, "/api/ticket", "", in, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// --- Admin reporting ---

// SellsByOffer fetches the per-offer sales counters. The caller's
// Authorization header is forwarded untouched.
func (c *Client) SellsByOffer(ctx context.Context, authHeader string) ([]domain.OfferSells, error) {
	const op = "backend.SellsByOffer"

	var out []domain.OfferSells
	if err := c.do(ctx, http.MethodGet, "/api/sellsByOffer", authHeader, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// --- Plumbing ---

func bearer(token string) string {
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do runs one JSON round trip. Non-2xx answers become *APIError (404
// additionally wraps ErrNotFound); transport failures pass through as
// plain errors so callers can tell the two apart.
func (c *Client) do(ctx context.Context, method, path, authHeader string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

		var eb errorBody
		msg := ""
		if json.Unmarshal(raw, &eb) == nil {
			msg = eb.Error
			if msg == "" {
				msg = eb.Message
			}
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Message: msg}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
