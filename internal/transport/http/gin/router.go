package httpgin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/payment"
	"github.com/AxelTei/Jeux-Olympiques/internal/service"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/auth"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/catalog"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/checkout"
	"github.com/AxelTei/Jeux-Olympiques/internal/service/tickets"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		LoggingMiddleware(logger),
		RequestIDMiddleware(),
		MetricsMiddleware(),
		CORS(),
		SessionMiddleware(svcs),
	)
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health + metrics
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Auth
	api.POST("/auth/signup", handleSignUp(svcs))
	api.POST("/auth/signin", handleSignIn(svcs))
	api.POST("/auth/signout", RequireSession(), handleSignOut(svcs))

	// Catalog
	api.GET("/offers", handleListOffers(svcs))
	api.GET("/offers/:id", handleGetOffer(svcs))
	api.POST("/offers", RequireAdmin(), handleCreateOffer(svcs))
	api.PUT("/offers/:id", RequireAdmin(), handleUpdateOffer(svcs))

	// Cart
	api.GET("/cart", handleListCart(svcs))
	api.POST("/cart", RequireSession(), handleAddToCart(svcs))
	api.DELETE("/cart/:id", RequireSession(), handleRemoveFromCart(svcs))

	// Checkout + success
	api.GET("/checkout/:id", handleGetBooking(svcs))
	api.POST("/checkout/:id/pay", RequireSession(), handlePay(svcs))
	api.GET("/success/:id", RequireSession(), handleSuccess(svcs))
	api.POST("/success/:id/ticket", RequireSession(), handleMintTicket(svcs))

	// Tickets + verification
	api.GET("/tickets", RequireSession(), handleListTickets(svcs))
	api.GET("/tickets/:key/qr.png", handleTicketQR(svcs))
	api.POST("/scan", handleScan(svcs))
	api.GET("/verify-ticket/:key", handleVerifyTicket(svcs))

	// Admin reporting
	api.GET("/admin/sells", RequireAdmin(), handleSells(svcs))

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Create account
// @Param    req body  SignUpRequest true "payload"
// @Success  201
// @Failure  400  {object}  ErrorResponse
// @Router   /api/auth/signup [post]
func handleSignUp(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Auth.SignUp(c.Request.Context(), req.Username, req.Password, req.Alias); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusCreated)
	}
}

// @Summary  Sign in
// @Param    req body  SignInRequest true "payload"
// @Success  200  {object}  SignInResponse
// @Failure  401  {object}  ErrorResponse
// @Router   /api/auth/signin [post]
func handleSignIn(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sess, err := svcs.Auth.SignIn(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, SignInResponse{
			SessionID: sess.ID,
			Alias:     sess.Alias,
			Roles:     sess.Roles,
		})
	}
}

// @Summary  Sign out
// @Success  204
// @Router   /api/auth/signout [post]
func handleSignOut(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if err := svcs.Auth.SignOut(c.Request.Context(), sess.ID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List offers
// @Success  200  {array}  domain.Offer
// @Router   /api/offers [get]
func handleListOffers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		offers, err := svcs.Catalog.ListOffers(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, offers, "public, max-age=60", true)
	}
}

// @Summary  Get offer
// @Param    id  path  int  true  "Offer ID"
// @Success  200  {object}  domain.Offer
// @Failure  404  {object}  ErrorResponse
// @Router   /api/offers/{id} [get]
func handleGetOffer(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		offerID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		o, err := svcs.Catalog.GetOffer(c.Request.Context(), offerID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, o, "public, max-age=60", true)
	}
}

// @Summary  Create offer (admin)
// @Param    req body  OfferRequest true "payload"
// @Success  201
// @Router   /api/offers [post]
func handleCreateOffer(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OfferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sess := sessionFrom(c)
		err := svcs.Catalog.CreateOffer(c.Request.Context(), sess.Token, backend.OfferInput{
			Title:             req.Title,
			Price:             req.Price,
			NumberOfCustomers: req.NumberOfCustomers,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusCreated)
	}
}

// @Summary  Update offer (admin)
// @Param    id  path  int  true  "Offer ID"
// @Param    req body  OfferRequest true "payload"
// @Success  204
// @Router   /api/offers/{id} [put]
func handleUpdateOffer(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		offerID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req OfferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sess := sessionFrom(c)
		err := svcs.Catalog.UpdateOffer(c.Request.Context(), sess.Token, offerID, backend.OfferInput{
			Title:             req.Title,
			Price:             req.Price,
			NumberOfCustomers: req.NumberOfCustomers,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List cart
// @Success  200  {array}  domain.Booking
// @Router   /api/cart [get]
func handleListCart(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := svcs.Checkout.ListCart(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, bookings)
	}
}

// @Summary  Add booking to cart
// @Param    req body  AddToCartRequest true "payload"
// @Success  201
// @Router   /api/cart [post]
func handleAddToCart(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sess := sessionFrom(c)
		offer, err := svcs.Catalog.GetOffer(c.Request.Context(), req.OfferID)
		if err != nil {
			respondErr(c, err)
			return
		}
		if err := svcs.Checkout.AddToCart(c.Request.Context(), sess, offer, req.NumberOfGuests); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusCreated)
	}
}

// @Summary  Remove booking from cart
// @Param    id  path  string  true  "Booking ID"
// @Success  204
// @Router   /api/cart/{id} [delete]
func handleRemoveFromCart(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Checkout.RemoveFromCart(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Get booking for checkout
// @Param    id  path  string  true  "Booking ID"
// @Success  200  {object}  domain.Booking
// @Failure  404  {object}  ErrorResponse
// @Router   /api/checkout/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := svcs.Checkout.GetBooking(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Pay a booking with the mock card form
// @Param    id  path  string  true  "Booking ID"
// @Param    req body  PayRequest true "payload"
// @Success  200  {object}  PayResponse "succeeded"
// @Failure  402  {object}  PayResponse "declined"
// @Failure  422  {object}  PayResponse "field validation failed"
// @Failure  429  {object}  ErrorResponse "rate limited"
// @Failure  502  {object}  PayResponse "gateway failure"
// @Router   /api/checkout/{id}/pay [post]
func handlePay(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID := c.Param("id")

		var req PayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		rlKey := "ip:" + c.ClientIP()
		outcome, err := svcs.Checkout.Pay(c.Request.Context(), bookingID, checkout.CardInput{
			Number: req.CardNumber,
			Expiry: req.ExpiryDate,
			CVC:    req.CVC,
		}, rlKey)
		if err != nil {
			if errors.Is(err, checkout.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
				return
			}
			if errors.Is(err, context.Canceled) {
				c.Abort()
				return
			}
			respondErr(c, err)
			return
		}

		c.JSON(payStatus(outcome.State), payResponse(bookingID, outcome))
	}
}

// @Summary  Success view for a paid booking
// @Param    id  path  string  true  "Booking ID"
// @Success  200  {object}  checkout.SuccessView
// @Router   /api/success/{id} [get]
func handleSuccess(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svcs.Checkout.Success(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// @Summary  Mint the e-ticket for a paid booking (idempotent)
// @Param    id  path  string  true  "Booking ID"
// @Success  201
// @Failure  402  {object}  ErrorResponse "no successful payment recorded"
// @Router   /api/success/{id}/ticket [post]
func handleMintTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if err := svcs.Checkout.MintTicket(c.Request.Context(), sess, c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusCreated)
	}
}

// @Summary  List my e-tickets
// @Success  200  {array}  domain.Ticket
// @Router   /api/tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		list, err := svcs.Tickets.ListForUser(c.Request.Context(), sess)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Ticket QR code as PNG
// @Param    key   path   string  true  "QR code key"
// @Param    size  query  int     false "pixel size"
// @Produce  png
// @Success  200
// @Router   /api/tickets/{key}/qr.png [get]
func handleTicketQR(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		size := parseIntDefault(c.Query("size"), 256)
		png, err := svcs.Tickets.QRCodePNG(c.Request.Context(), c.Param("key"), size)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}

// @Summary  Resolve a scanned QR payload to its ticket
// @Param    req body  ScanRequest true "payload"
// @Success  200  {object}  domain.Ticket
// @Failure  404  {object}  ErrorResponse
// @Router   /api/scan [post]
func handleScan(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		t, err := svcs.Tickets.VerifyScan(c.Request.Context(), req.Payload)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Verify a ticket by QR key
// @Param    key  path  string  true  "QR code key"
// @Success  200  {object}  domain.Ticket
// @Failure  404  {object}  ErrorResponse
// @Router   /api/verify-ticket/{key} [get]
func handleVerifyTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Tickets.VerifyByKey(c.Request.Context(), c.Param("key"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Sales report by offer (admin)
// @Success  200  {object}  catalog.SellsReport
// @Router   /api/admin/sells [get]
func handleSells(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		report, err := svcs.Catalog.Sells(c.Request.Context(), "Bearer "+sess.Token)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// --- Helpers ---

func payStatus(state payment.State) int {
	switch state {
	case payment.StateSucceeded:
		return http.StatusOK
	case payment.StateRejected:
		return http.StatusUnprocessableEntity
	case payment.StateDeclined:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadGateway
	}
}

func payResponse(bookingID string, o payment.Outcome) PayResponse {
	resp := PayResponse{
		State:           string(o.State),
		Message:         o.Message,
		PaymentIntentID: o.IntentID,
	}

	if o.State == payment.StateRejected {
		resp.FieldErrors = map[string]string{}
		if o.Fields.NumberErr != "" {
			resp.FieldErrors["cardNumber"] = o.Fields.NumberErr
		}
		if o.Fields.ExpiryErr != "" {
			resp.FieldErrors["expiryDate"] = o.Fields.ExpiryErr
		}
		if o.Fields.CVCErr != "" {
			resp.FieldErrors["cvc"] = o.Fields.CVCErr
		}
	}

	if o.State == payment.StateSucceeded {
		resp.Redirect = "/Success/" + bookingID
	}

	return resp
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// auth service
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	case errors.Is(err, auth.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "session expired"})
		return
	// catalog service
	case errors.Is(err, catalog.ErrOfferNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "offer not found"})
		return
	// checkout service
	case errors.Is(err, checkout.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, checkout.ErrPaymentRequired):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "no successful payment recorded"})
		return
	case errors.Is(err, checkout.ErrMintInProgress):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ticket mint in progress"})
		return
	// tickets service
	case errors.Is(err, tickets.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, tickets.ErrBadPayload):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid QR payload"})
		return
	// backend
	case errors.Is(err, backend.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	case errors.Is(err, backend.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		c.JSON(apiErr.StatusCode, ErrorResponse{Error: msg})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
