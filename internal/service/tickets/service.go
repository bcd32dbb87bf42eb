package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
	"github.com/AxelTei/Jeux-Olympiques/internal/monitoring"
	qrcode "github.com/skip2/go-qrcode"
)

// API is the ticket surface of the backend consumed here.
type API interface {
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
	GetTicketByKey(ctx context.Context, qrCodeKey string) (*domain.Ticket, error)
}

type Config struct {
	// PublicBaseURL is the externally reachable storefront origin,
	// embedded into ticket QR codes.
	PublicBaseURL string
}

type Service struct {
	api API
	cfg Config
}

func New(api API, cfg Config) *Service {
	return &Service{api: api, cfg: cfg}
}

// ListForUser returns the e-tickets belonging to the signed-in user.
func (s *Service) ListForUser(ctx context.Context, sess *domain.Session) ([]domain.Ticket, error) {
	const op = "service.tickets.ListForUser"

	all, err := s.api.ListTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mine := make([]domain.Ticket, 0, len(all))
	for _, t := range all {
		if t.Username == sess.Alias {
			mine = append(mine, t)
		}
	}
	return mine, nil
}

// VerifyScan resolves a scanned QR payload to the ticket it encodes.
// The payload is a verification URL; its trailing path segment is the
// QR key. The match runs over the full collection the way the scanner
// view did, and the ticket is returned exactly as the backend sent it,
// used/valid state included.
func (s *Service) VerifyScan(ctx context.Context, payload string) (*domain.Ticket, error) {
	const op = "service.tickets.VerifyScan"

	key := scannedKey(payload)
	if key == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrBadPayload)
	}

	all, err := s.api.ListTickets(ctx)
	if err != nil {
		monitoring.ObserveVerification("error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range all {
		if all[i].QRCodeKey == key {
			monitoring.ObserveVerification("found")
			return &all[i], nil
		}
	}

	monitoring.ObserveVerification("not_found")
	return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
}

// VerifyByKey resolves a QR key through the backend's single-ticket
// endpoint. Same contract as VerifyScan, second entry point.
func (s *Service) VerifyByKey(ctx context.Context, qrCodeKey string) (*domain.Ticket, error) {
	const op = "service.tickets.VerifyByKey"

	t, err := s.api.GetTicketByKey(ctx, qrCodeKey)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			monitoring.ObserveVerification("not_found")
			return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}
		monitoring.ObserveVerification("error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	monitoring.ObserveVerification("found")
	return t, nil
}

// QRCodePNG renders the verification URL of an issued ticket as a PNG.
func (s *Service) QRCodePNG(ctx context.Context, qrCodeKey string, size int) ([]byte, error) {
	const op = "service.tickets.QRCodePNG"

	if _, err := s.VerifyByKey(ctx, qrCodeKey); err != nil {
		return nil, err
	}

	if size <= 0 {
		size = 256
	}

	url := s.cfg.PublicBaseURL + "/verify-ticket/" + qrCodeKey
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return png, nil
}

// scannedKey extracts the trailing path segment of a scanned payload.
func scannedKey(payload string) string {
	payload = strings.TrimSpace(payload)
	payload = strings.TrimSuffix(payload, "/")
	if payload == "" {
		return ""
	}
	if i := strings.LastIndexByte(payload, '/'); i >= 0 {
		return payload[i+1:]
	}
	return payload
}
