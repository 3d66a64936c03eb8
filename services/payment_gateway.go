package services

import "context"

// PaymentSession is the provider-side view of a checkout session.
type PaymentSession struct {
	ID            string
	URL           string
	Status        string // open, complete, expired
	PaymentStatus string // paid, unpaid, no_payment_required
	AmountTotal   int64
	Metadata      map[string]string
}

type SessionLineItem struct {
	Name       string
	Image      string
	UnitAmount int64
	Quantity   int64
}

type CreateSessionRequest struct {
	Currency   string
	LineItems  []SessionLineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// WebhookEvent is a verified provider callback. Session is set for
// checkout session events only.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *PaymentSession
}

// PaymentGateway is the external payment-session provider.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*PaymentSession, error)
	GetSession(ctx context.Context, sessionID string) (*PaymentSession, error)
	ConstructWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}
