// Package gateway simulates the external payment network.
package gateway

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/pkg/retry"
)

// SimulatorConfig holds configuration for the simulated network
type SimulatorConfig struct {
	// SuccessRates is the probability of success per method (0.0 to 1.0)
	SuccessRates map[domain.PaymentMethod]float64

	PaymentDelayMin time.Duration
	PaymentDelayMax time.Duration
	RefundDelayMin  time.Duration
	RefundDelayMax  time.Duration

	// TestMode replaces the random delay with TestDelay and the random
	// outcome with TestSuccess
	TestMode    bool
	TestDelay   time.Duration
	TestSuccess bool
}

// DefaultSimulatorConfig returns default configuration
func DefaultSimulatorConfig() *SimulatorConfig {
	return &SimulatorConfig{
		SuccessRates: map[domain.PaymentMethod]float64{
			domain.PaymentMethodUPI:  0.90,
			domain.PaymentMethodCard: 0.95,
		},
		PaymentDelayMin: 5 * time.Second,
		PaymentDelayMax: 10 * time.Second,
		RefundDelayMin:  3 * time.Second,
		RefundDelayMax:  5 * time.Second,
		TestDelay:       time.Second,
		TestSuccess:     true,
	}
}

// Simulator decides payment outcomes and processing delays
type Simulator struct {
	config *SimulatorConfig
	float  func() float64
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures a Simulator
type Option func(*Simulator)

// WithRand overrides the random source, values must be in [0, 1)
func WithRand(f func() float64) Option {
	return func(s *Simulator) { s.float = f }
}

// WithSleep overrides how delays are waited out
func WithSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Simulator) { s.sleep = f }
}

// NewSimulator creates a new simulator
func NewSimulator(config *SimulatorConfig, opts ...Option) *Simulator {
	if config == nil {
		config = DefaultSimulatorConfig()
	}

	s := &Simulator{
		config: config,
		float:  rand.Float64,
		sleep:  retry.SleepOrDone,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizePayment waits the simulated processing time and returns the
// terminal status the payment network decided
func (s *Simulator) AuthorizePayment(ctx context.Context, p *domain.Payment) (domain.PaymentStatus, error) {
	if err := s.sleep(ctx, s.PaymentDelay()); err != nil {
		return "", err
	}
	if s.Succeeds(p.Method) {
		return domain.PaymentStatusSuccess, nil
	}
	return domain.PaymentStatusFailed, nil
}

// SettleRefund waits the simulated refund processing time
func (s *Simulator) SettleRefund(ctx context.Context, r *domain.Refund) error {
	return s.sleep(ctx, s.RefundDelay())
}

// PaymentDelay returns how long a payment takes to settle
func (s *Simulator) PaymentDelay() time.Duration {
	if s.config.TestMode {
		return s.config.TestDelay
	}
	return s.between(s.config.PaymentDelayMin, s.config.PaymentDelayMax)
}

// RefundDelay returns how long a refund takes to process
func (s *Simulator) RefundDelay() time.Duration {
	if s.config.TestMode {
		return s.config.TestDelay
	}
	return s.between(s.config.RefundDelayMin, s.config.RefundDelayMax)
}

// Succeeds decides the outcome of a payment made with method
func (s *Simulator) Succeeds(method domain.PaymentMethod) bool {
	if s.config.TestMode {
		return s.config.TestSuccess
	}
	rate, ok := s.config.SuccessRates[method]
	if !ok {
		return false
	}
	return s.float() < rate
}

func (s *Simulator) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.float()*float64(hi-lo))
}
