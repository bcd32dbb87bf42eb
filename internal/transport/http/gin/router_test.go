package httpgin

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
	"github.com/AxelTei/Jeux-Olympiques/internal/payment"
	redisrepo "github.com/AxelTei/Jeux-Olympiques/internal/repository/redis"
	"github.com/AxelTei/Jeux-Olympiques/internal/service"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/catalog"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/tickets"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, backendHandler http.HandlerFunc) (*gin.Engine, redismock.ClientMock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(backendHandler)
	t.Cleanup(srv.Close)

	api, err := backend.New(backend.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	db, rmock := redismock.NewClientMock()
	sessions := redisrepo.NewSessionStore(db, 30*time.Minute)
	receipts := redisrepo.NewReceiptStore(db, time.Hour)
	cache := redisrepo.New(db)
	idem := redisrepo.NewIdempotencyStore(db, 2*time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svcs := service.NewServices(api, sessions, receipts, cache, nil, idem, nil, logger, service.Config{
		Catalog: catalog.Config{OffersTTL: time.Minute, OfferTTL: time.Minute},
		Payment: payment.Config{Delay: time.Millisecond},
		Tickets: tickets.Config{PublicBaseURL: "https://jo.example"},
	})

	return NewRouter(svcs, logger), rmock
}

func expectSession(rmock redismock.ClientMock, sess domain.Session) {
	b, _ := json.Marshal(sess)
	rmock.ExpectGet(redisrepo.KeySession(sess.ID)).SetVal(string(b))
	rmock.ExpectExpire(redisrepo.KeySession(sess.ID), 30*time.Minute).SetVal(true)
}

func userSession() domain.Session {
	return domain.Session{
		ID:      "sess-1",
		Token:   "jwt-token",
		Alias:   "alice",
		UserKey: "uk-7",
		Roles:   []string{"ROLE_USER"},
	}
}

func doJSON(r *gin.Engine, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {})

	w := doJSON(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListOffersSetsETag(t *testing.T) {
	offers := []domain.Offer{{ID: 1, Title: "Offre solo", Price: 49, NumberOfCustomers: 1}}
	r, rmock := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/bookingOffer", req.URL.Path)
		json.NewEncoder(w).Encode(offers)
	})

	b, _ := json.Marshal(offers)
	rmock.ExpectGet(redisrepo.KeyOffers()).RedisNil()
	rmock.ExpectGet(redisrepo.KeyOffers()).RedisNil()
	rmock.ExpectSet(redisrepo.KeyOffers(), string(b), time.Minute).SetVal("OK")

	w := doJSON(r, http.MethodGet, "/api/offers", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("ETag"))
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Body.String(), "Offre solo")
}

func TestPayRequiresSession(t *testing.T) {
	r, _ := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {})

	w := doJSON(r, http.MethodPost, "/api/checkout/b-1/pay", "", PayRequest{
		CardNumber: "4242424242424242",
		ExpiryDate: "12 / 26",
		CVC:        "123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPayRejectedFieldErrors(t *testing.T) {
	r, rmock := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/booking/b-1", req.URL.Path)
		json.NewEncoder(w).Encode(domain.Booking{ID: "b-1", Price: 49, UserKey: "uk-7"})
	})
	expectSession(rmock, userSession())

	w := doJSON(r, http.MethodPost, "/api/checkout/b-1/pay", "sess-1", PayRequest{
		CardNumber: "1234 5678 9012 3456",
		ExpiryDate: "13 / 26",
		CVC:        "12",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp PayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(payment.StateRejected), resp.State)
	assert.Equal(t, "Numéro de carte invalide", resp.FieldErrors["cardNumber"])
	assert.Equal(t, "Mois invalide", resp.FieldErrors["expiryDate"])
	assert.Equal(t, "Le CVC doit comporter 3 chiffres", resp.FieldErrors["cvc"])
}

func TestPayDeclined(t *testing.T) {
	r, rmock := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(domain.Booking{ID: "b-1", Price: 49, UserKey: "uk-7"})
	})
	expectSession(rmock, userSession())

	w := doJSON(r, http.MethodPost, "/api/checkout/b-1/pay", "sess-1", PayRequest{
		CardNumber: "4000 0000 0000 0002",
		ExpiryDate: "12 / 26",
		CVC:        "123",
	})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var resp PayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, payment.MsgDeclined, resp.Message)
}

func TestPaySucceededRedirects(t *testing.T) {
	r, rmock := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/api/booking/b-1":
			json.NewEncoder(w).Encode(domain.Booking{ID: "b-1", Price: 49, UserKey: "uk-7"})
		case "/api/payment/create-payment-intent":
			json.NewEncoder(w).Encode(map[string]string{"clientSecret": "pi_123_secret_abc"})
		case "/api/payment/confirm-payment":
			json.NewEncoder(w).Encode(map[string]string{"status": "succeeded"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	expectSession(rmock, userSession())
	// the receipt date depends on the clock
	rmock.Regexp().ExpectSet(`jo:v1:receipt:uk-7`, `.*"amount":4900.*`, time.Hour).SetVal("OK")

	w := doJSON(r, http.MethodPost, "/api/checkout/b-1/pay", "sess-1", PayRequest{
		CardNumber: "4242 4242 4242 4242",
		ExpiryDate: "12 / 26",
		CVC:        "123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp PayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(payment.StateSucceeded), resp.State)
	assert.Equal(t, "pi_123", resp.PaymentIntentID)
	assert.Equal(t, "/Success/b-1", resp.Redirect)
}

func TestVerifyTicketNotFound(t *testing.T) {
	r, _ := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	w := doJSON(r, http.MethodGet, "/api/verify-ticket/qr-zzz", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSellsRequiresAdmin(t *testing.T) {
	r, rmock := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {})
	expectSession(rmock, userSession())

	w := doJSON(r, http.MethodGet, "/api/admin/sells", "sess-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSellsAsAdmin(t *testing.T) {
	r, rmock := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/sellsByOffer", req.URL.Path)
		require.Equal(t, "Bearer jwt-token", req.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]domain.OfferSells{
			{ID: "s-1", OfferTitle: "Offre solo", OfferPrice: 49, Sells: 2},
		})
	})

	admin := userSession()
	admin.Roles = []string{"ROLE_USER", domain.RoleAdmin}
	expectSession(rmock, admin)

	w := doJSON(r, http.MethodGet, "/api/admin/sells", "sess-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalSells":2`)
}

func TestMintTicketWithoutPayment(t *testing.T) {
	r, rmock := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(domain.Booking{ID: "b-1", Price: 49, UserKey: "uk-7"})
	})
	expectSession(rmock, userSession())
	rmock.ExpectGet(redisrepo.KeyReceipt("uk-7")).RedisNil()

	w := doJSON(r, http.MethodPost, "/api/success/b-1/ticket", "sess-1", nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}
