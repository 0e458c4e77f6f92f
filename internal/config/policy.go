package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider kinds decide which destination format a provider accepts.
const (
	ProviderMobileMoney = "mobile_money"
	ProviderCard        = "card"
)

// Remainder policies for settlement rounding residue.
const (
	RemainderLargest  = "largest"
	RemainderEarliest = "earliest"
)

type Provider struct {
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern"`
}

// Policy holds the ledger's tunable business constants. Amounts are in minor
// units of Currency.
type Policy struct {
	Currency      string `yaml:"currency"`
	MinorExponent int32  `yaml:"minor_exponent"`

	MinTransaction int64 `yaml:"min_transaction"`
	MinLoan        int64 `yaml:"min_loan"`

	Providers map[string]Provider `yaml:"providers"`

	InstallmentCount    int           `yaml:"installment_count"`
	InstallmentInterval time.Duration `yaml:"installment_interval"`

	OTPCodeLength     int           `yaml:"otp_code_length"`
	OTPExpiry         time.Duration `yaml:"otp_expiry"`
	OTPMaxAttempts    int           `yaml:"otp_max_attempts"`
	EchoCodeOnFailure bool          `yaml:"echo_code_on_failure"`

	RemainderPolicy string `yaml:"remainder_policy"`
	SweepSpec       string `yaml:"sweep_spec"`
	HistoryLimit    int    `yaml:"history_limit"`
}

const (
	phonePattern = `^(\+62|62|0)8[1-9][0-9]{6,10}$`
	cardPattern  = `^[0-9]{16}$`
)

// DefaultPolicy returns the built-in constants. The OTP code is echoed on
// delivery failure only in the dev environment.
func DefaultPolicy(appEnv string) Policy {
	return Policy{
		Currency:       "IDR",
		MinorExponent:  2,
		MinTransaction: 10_000,
		MinLoan:        100_000,
		Providers: map[string]Provider{
			"gopay":      {Kind: ProviderMobileMoney, Pattern: phonePattern},
			"ovo":        {Kind: ProviderMobileMoney, Pattern: phonePattern},
			"dana":       {Kind: ProviderMobileMoney, Pattern: phonePattern},
			"visa":       {Kind: ProviderCard, Pattern: cardPattern},
			"mastercard": {Kind: ProviderCard, Pattern: cardPattern},
		},
		InstallmentCount:    4,
		InstallmentInterval: 7 * 24 * time.Hour,
		OTPCodeLength:       6,
		OTPExpiry:           5 * time.Minute,
		OTPMaxAttempts:      5,
		EchoCodeOnFailure:   appEnv == "dev",
		RemainderPolicy:     RemainderLargest,
		SweepSpec:           "@every 1m",
		HistoryLimit:        50,
	}
}

// LoadFile overlays the YAML document at path onto p. Keys absent from the
// file keep their current value.
func (p *Policy) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, p)
}

func (p *Policy) Validate() error {
	if len(p.Currency) != 3 {
		return fmt.Errorf("policy: currency %q must be a 3-letter code", p.Currency)
	}
	if p.MinorExponent < 0 || p.MinorExponent > 4 {
		return fmt.Errorf("policy: minor_exponent %d out of range", p.MinorExponent)
	}
	if p.MinTransaction <= 0 || p.MinLoan <= 0 {
		return fmt.Errorf("policy: minimum amounts must be positive")
	}
	if p.InstallmentCount < 1 {
		return fmt.Errorf("policy: installment_count must be >= 1")
	}
	if p.InstallmentInterval <= 0 {
		return fmt.Errorf("policy: installment_interval must be positive")
	}
	if p.OTPCodeLength < 4 || p.OTPCodeLength > 10 {
		return fmt.Errorf("policy: otp_code_length %d out of range [4,10]", p.OTPCodeLength)
	}
	if p.OTPExpiry <= 0 {
		return fmt.Errorf("policy: otp_expiry must be positive")
	}
	if p.OTPMaxAttempts < 0 {
		return fmt.Errorf("policy: otp_max_attempts must be >= 0")
	}
	switch p.RemainderPolicy {
	case RemainderLargest, RemainderEarliest:
	default:
		return fmt.Errorf("policy: unknown remainder_policy %q", p.RemainderPolicy)
	}
	if len(p.Providers) == 0 {
		return fmt.Errorf("policy: no providers configured")
	}
	if _, err := p.ProviderPatterns(); err != nil {
		return err
	}
	return nil
}

// ProviderPatterns compiles each provider's destination pattern.
func (p *Policy) ProviderPatterns() (map[string]*regexp.Regexp, error) {
	out := make(map[string]*regexp.Regexp, len(p.Providers))
	for name, pr := range p.Providers {
		switch pr.Kind {
		case ProviderMobileMoney, ProviderCard:
		default:
			return nil, fmt.Errorf("policy: provider %s has unknown kind %q", name, pr.Kind)
		}
		re, err := regexp.Compile(pr.Pattern)
		if err != nil {
			return nil, fmt.Errorf("policy: provider %s pattern: %w", name, err)
		}
		out[name] = re
	}
	return out, nil
}
