package models

// CheckoutProduct is one caller-supplied line of a checkout request.
type CheckoutProduct struct {
	ID        string  `json:"_id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}

// Identifier returns whichever of _id / productId the client sent.
func (p CheckoutProduct) Identifier() string {
	if p.ID != "" {
		return p.ID
	}
	return p.ProductID
}

// SessionProduct is the compact per-line record stored in the payment
// session's metadata until the session is confirmed.
type SessionProduct struct {
	ID       string  `json:"id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type CheckoutSessionResult struct {
	SessionID   string  `json:"sessionId"`
	URL         string  `json:"url,omitempty"`
	TotalAmount float64 `json:"totalAmount"`
}

const (
	CheckoutStatusPaid    = "paid"
	CheckoutStatusPending = "pending"
	CheckoutStatusFailed  = "failed"
)

// CheckoutOutcome is the result of confirming a payment session.
type CheckoutOutcome struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	OrderID       string `json:"orderId,omitempty"`
	Duplicate     bool   `json:"-"`
}
