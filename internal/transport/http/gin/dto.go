package httpgin

type SignUpRequest struct {
	Username string `json:"username" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Alias    string `json:"alias" binding:"required"`
}

type SignInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignInResponse struct {
	SessionID string   `json:"sessionId"`
	Alias     string   `json:"alias"`
	Roles     []string `json:"roles"`
}

type OfferRequest struct {
	Title             string  `json:"title" binding:"required"`
	Price             float64 `json:"price" binding:"required,gt=0"`
	NumberOfCustomers int     `json:"numberOfCustomers" binding:"required,gt=0"`
}

type AddToCartRequest struct {
	OfferID        int64 `json:"offerId" binding:"required"`
	NumberOfGuests int   `json:"numberOfGuests"`
}

type PayRequest struct {
	CardNumber string `json:"cardNumber" binding:"required"`
	ExpiryDate string `json:"expiryDate" binding:"required"`
	CVC        string `json:"cvc" binding:"required"`
}

type PayResponse struct {
	State           string            `json:"state"`
	FieldErrors     map[string]string `json:"fieldErrors,omitempty"`
	Message         string            `json:"message,omitempty"`
	PaymentIntentID string            `json:"paymentIntentId,omitempty"`
	Redirect        string            `json:"redirect,omitempty"`
}

type ScanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
