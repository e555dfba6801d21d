package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrSignatureMismatch means the callback payload was not signed by the
// gateway. It is terminal: a failed verification is never retried into a
// confirmation.
var ErrSignatureMismatch = errors.New("payment signature mismatch")

// UpstreamError wraps a gateway transport failure. It is retryable for intent
// creation only, where no local side effect has happened yet.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type PaymentIntent struct {
	GatewayOrderID string
	// Amount is in minor currency units (paise).
	Amount   int64
	Currency string
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*PaymentIntent, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) error
}

// RazorpayGateway talks to a Razorpay-style payment processor. It is the only
// component that performs outbound payment calls.
type RazorpayGateway struct {
	client    *resty.Client
	keySecret string
}

func NewRazorpayGateway(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetBasicAuth(keyID, keySecret).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &RazorpayGateway{client: client, keySecret: keySecret}
}

func (g *RazorpayGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*PaymentIntent, error) {
	body := map[string]any{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/v1/orders")
	if err != nil {
		return nil, &UpstreamError{Op: "create intent", Err: err}
	}
	if resp.StatusCode() != 200 {
		return nil, &UpstreamError{
			Op:  "create intent",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.Body()),
		}
	}

	var parsed struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, &UpstreamError{Op: "create intent", Err: fmt.Errorf("invalid response: %w", err)}
	}
	if parsed.ID == "" {
		return nil, &UpstreamError{Op: "create intent", Err: errors.New("no order id in response")}
	}

	return &PaymentIntent{
		GatewayOrderID: parsed.ID,
		Amount:         parsed.Amount,
		Currency:       parsed.Currency,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 the gateway computes over
// "<gatewayOrderID>|<paymentID>" with the key secret.
func (g *RazorpayGateway) VerifySignature(gatewayOrderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
