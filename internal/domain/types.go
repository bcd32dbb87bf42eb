package domain

import "time"

// Offer is a catalog entry (solo/duo/familiale packages) owned by the
// backend; the storefront only displays it.
type Offer struct {
	ID                int64   `json:"offerId"`
	Title             string  `json:"title"`
	Price             float64 `json:"price"`
	NumberOfCustomers int     `json:"numberOfCustomers"`
}

// Booking is a cart line, fetched by id for the checkout view.
type Booking struct {
	ID                string  `json:"bookingId"`
	BookingOfferTitle string  `json:"bookingOfferTitle"`
	Price             float64 `json:"price"`
	UserKey           string  `json:"userKey"`
	NumberOfGuests    int     `json:"numberOfGuests"`
}

// Ticket is an issued e-ticket. The backend mints it after a successful
// payment; the storefront displays and looks it up, never mutates it.
type Ticket struct {
	ID             string  `json:"ticketId"`
	Username       string  `json:"username"`
	OfferTitle     string  `json:"offerTitle"`
	EventName      string  `json:"eventName"`
	TicketPrice    float64 `json:"ticketPrice"`
	NumberOfGuests int     `json:"numberOfGuests"`
	PurchaseDate   string  `json:"purchaseDate"`
	PaymentKey     string  `json:"paymentKey"`
	QRCodeKey      string  `json:"qrCodeKey"`
	Used           string  `json:"used"`
}

// MintTicketInput is the payload sent to the backend to issue a ticket
// once a payment has succeeded.
type MintTicketInput struct {
	Username       string  `json:"username"`
	OfferTitle     string  `json:"offerTitle"`
	TicketPrice    float64 `json:"ticketPrice"`
	NumberOfGuests int     `json:"numberOfGuests"`
	UserKey        string  `json:"userKey"`
}

// PaymentIntent mirrors the backend's record of an attempted charge.
// Only the id embedded in ClientSecret is consumed by the storefront.
type PaymentIntent struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	ClientSecret string `json:"clientSecret"`
	CreatedAt    int64  `json:"createdAt"`
}

// OfferSells is one row of the admin sales report.
type OfferSells struct {
	ID         string  `json:"id"`
	OfferTitle string  `json:"offerTitle"`
	OfferPrice float64 `json:"offerPrice"`
	Sells      int64   `json:"sells"`
}

// Session is the server-side record of a signed-in user. It replaces
// the browser-local token/alias/role lookups of the legacy front-end:
// created on signin, loaded per request, deleted on signout.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Alias     string    `json:"alias"`
	UserKey   string    `json:"userKey"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

const RoleAdmin = "ROLE_ADMIN"

func (s *Session) IsAdmin() bool {
	for _, r := range s.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Receipt is the ephemeral record shown on the success page: the last
// paid amount and a client-formatted date.
type Receipt struct {
	Amount int64  `json:"amount"`
	Date   string `json:"date"`
}
