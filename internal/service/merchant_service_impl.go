package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/repository"
)

type merchantServiceImpl struct {
	merchants repository.MerchantRepository
}

// NewMerchantService creates a new MerchantService
func NewMerchantService(merchants repository.MerchantRepository) MerchantService {
	return &merchantServiceImpl{merchants: merchants}
}

func (s *merchantServiceImpl) Authenticate(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, domain.ErrMerchantNotFound
	}
	return s.merchants.GetByAPIKey(ctx, apiKey)
}

func (s *merchantServiceImpl) GetTestMerchant(ctx context.Context) (*domain.Merchant, error) {
	return s.merchants.GetByEmail(ctx, domain.TestMerchantEmail)
}

func (s *merchantServiceImpl) SeedTestMerchant(ctx context.Context, webhookURL string) (*domain.Merchant, error) {
	m := domain.NewTestMerchant(webhookURL)
	if err := s.merchants.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to seed test merchant: %w", err)
	}
	return m, nil
}
