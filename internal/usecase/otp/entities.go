package otp

import (
	"context"
	"regexp"
	"time"

	"p2plend/internal/usecase/wallet"
	"p2plend/pkg/money"
)

// Delivery channels a Sender can declare.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Sender delivers a code out of band.
type Sender interface {
	Channel() string
	SendCode(ctx context.Context, to, code string) error
}

// Provider kinds.
const (
	ProviderMobileMoney = "mobile_money"
	ProviderCard        = "card"
)

type Provider struct {
	Kind    string
	Pattern *regexp.Regexp
}

type Policy struct {
	MinAmount   money.Amount
	Providers   map[string]Provider
	CodeLength  int
	Expiry      time.Duration
	MaxAttempts int
	// EchoCodeOnFailure returns the code to the caller when delivery fails.
	// Only meant for development environments.
	EchoCodeOnFailure bool
}

type InitiateInput struct {
	Kind        string
	Amount      money.Amount
	Provider    string
	Destination string
}

type InitiateResult struct {
	TransactionID string       `json:"transaction_id"`
	Kind          string       `json:"kind"`
	Amount        money.Amount `json:"amount"`
	Delivered     bool         `json:"delivered"`
	DeliveryError string       `json:"delivery_error,omitempty"`
	Code          string       `json:"code,omitempty"`
	ExpiresAt     time.Time    `json:"expires_at"`
}

type ConfirmResult struct {
	Transaction *wallet.TransactionDTO `json:"transaction"`
	Balance     money.Amount           `json:"balance"`
}
