package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
)

var (
	ErrMissingAccessToken   = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
)

// ChargeRequest describes one checkout attempt against the gateway
type ChargeRequest struct {
	Reference   string
	AmountMinor int64
	Currency    string
	Description string
	PayerEmail  string
}

// ChargeResult is what the gateway returned for a charge
type ChargeResult struct {
	ExternalID string
	Status     string // pending, approved, rejected
}

// Gateway creates payments against an external processor
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// MercadoPagoGateway implements Gateway on the Mercado Pago SDK. In mock mode
// (PAYMENT_GATEWAY_MOCK or MERCADOPAGO_MOCK set) every charge is approved
// locally without touching the network.
type MercadoPagoGateway struct {
	client   payment.Client
	mockMode bool
}

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	if isMockEnabled() {
		log.Printf("💳 Payment gateway running in mock mode")
		return &MercadoPagoGateway{mockMode: true}, nil
	}

	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}

	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment SDK config: %w", err)
	}
	log.Printf("💳 Mercado Pago client initialized")

	return &MercadoPagoGateway{client: payment.NewClient(cfg)}, nil
}

// Charge creates a payment for the given amount
func (g *MercadoPagoGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if g != nil && g.mockMode {
		id := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		log.Printf("💳 Mock charge approved: reference=%s amount=%d id=%s", req.Reference, req.AmountMinor, id)
		return &ChargeResult{ExternalID: id, Status: "approved"}, nil
	}

	if g == nil || g.client == nil {
		return nil, ErrGatewayNotConfigured
	}

	amount := float64(req.AmountMinor) / 100
	resp, err := g.client.Create(ctx, payment.Request{
		TransactionAmount: amount,
		Description:       req.Description,
		ExternalReference: req.Reference,
		Payer: &payment.PayerRequest{
			Email: req.PayerEmail,
		},
	})
	if err != nil {
		log.Printf("❌ Payment create failed for %s: %v", req.Reference, err)
		return nil, err
	}

	log.Printf("💳 Payment created: reference=%s id=%d status=%s", req.Reference, resp.ID, resp.Status)
	return &ChargeResult{
		ExternalID: fmt.Sprintf("%d", resp.ID),
		Status:     resp.Status,
	}, nil
}

func isMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
