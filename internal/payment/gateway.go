package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/lessonhub/settlement-service/internal/models"
)

// Session is what a provider hands back when a checkout is opened for a
// booking. The caller is redirected to RedirectURL to complete payment.
type Session struct {
	SessionID   string
	RedirectURL string
	Provider    string
}

// Gateway is the payment-provider capability the booking service depends on.
// Implementations wrap a concrete provider; the service never sees provider
// wire formats.
type Gateway interface {
	InitiatePayment(ctx context.Context, booking *models.Booking) (*Session, error)
	// CancelPayment is best-effort: callers log failures and keep going,
	// local booking state stays authoritative.
	CancelPayment(ctx context.Context, sessionID string) error
}

// SandboxGateway issues fake checkout sessions. Used in development and as
// the default when no provider is configured.
type SandboxGateway struct {
	CheckoutBaseURL string
}

func NewSandboxGateway(checkoutBaseURL string) *SandboxGateway {
	if checkoutBaseURL == "" {
		checkoutBaseURL = "https://sandbox.local"
	}
	return &SandboxGateway{CheckoutBaseURL: checkoutBaseURL}
}

func (g *SandboxGateway) InitiatePayment(_ context.Context, _ *models.Booking) (*Session, error) {
	id := uuid.NewString()
	return &Session{
		SessionID:   id,
		RedirectURL: g.CheckoutBaseURL + "/checkout/" + id,
		Provider:    "sandbox",
	}, nil
}

func (g *SandboxGateway) CancelPayment(_ context.Context, _ string) error {
	return nil
}
