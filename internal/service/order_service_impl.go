package service

import (
	"context"
	"fmt"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/repository"
)

type orderServiceImpl struct {
	orders repository.OrderRepository
}

// NewOrderService creates a new OrderService
func NewOrderService(orders repository.OrderRepository) OrderService {
	return &orderServiceImpl{orders: orders}
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	order, err := domain.NewOrder(req.MerchantID, req.Amount, req.Currency, req.Receipt)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, merchantID, orderID string) (*domain.Order, error) {
	return s.orders.GetByIDForMerchant(ctx, merchantID, orderID)
}
