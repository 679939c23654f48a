package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
)

// MemoryOrderRepository implements OrderRepository using in-memory storage.
// This is useful for testing and development.
type MemoryOrderRepository struct {
	orders map[string]*domain.Order
	mu     sync.RWMutex
}

// NewMemoryOrderRepository creates a new in-memory order repository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := *order
	r.orders[order.ID] = &o
	return nil
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o := *order
	return &o, nil
}

func (r *MemoryOrderRepository) GetByIDForMerchant(ctx context.Context, merchantID, id string) (*domain.Order, error) {
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.MerchantID != merchantID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// MemoryPaymentRepository implements PaymentRepository using in-memory storage
type MemoryPaymentRepository struct {
	payments map[string]*domain.Payment
	mu       sync.RWMutex
}

// NewMemoryPaymentRepository creates a new in-memory payment repository
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (r *MemoryPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (r *MemoryPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return clonePayment(payment), nil
}

func (r *MemoryPaymentRepository) GetByIDForMerchant(ctx context.Context, merchantID, id string) (*domain.Payment, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.MerchantID != merchantID {
		return nil, domain.ErrPaymentNotFound
	}
	return p, nil
}

func (r *MemoryPaymentRepository) ListByMerchant(ctx context.Context, merchantID string) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payments := make([]*domain.Payment, 0)
	for _, p := range r.payments {
		if p.MerchantID == merchantID {
			payments = append(payments, clonePayment(p))
		}
	}
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return payments, nil
}

func (r *MemoryPaymentRepository) UpdateStatusIfPending(ctx context.Context, id string, status domain.PaymentStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.Status != domain.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	p.UpdatedAt = at
	return true, nil
}

func (r *MemoryPaymentRepository) MarkCaptured(ctx context.Context, merchantID, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.MerchantID != merchantID || p.Status != domain.PaymentStatusSuccess || p.Captured {
		return false, nil
	}
	p.Captured = true
	p.UpdatedAt = at
	return true, nil
}

func clonePayment(p *domain.Payment) *domain.Payment {
	c := *p
	if p.VPA != nil {
		vpa := *p.VPA
		c.VPA = &vpa
	}
	return &c
}

// MemoryRefundRepository implements RefundRepository using in-memory storage.
// It reads payments from the paired payment repository.
type MemoryRefundRepository struct {
	payments *MemoryPaymentRepository
	refunds  map[string]*domain.Refund
	mu       sync.Mutex
}

// NewMemoryRefundRepository creates a new in-memory refund repository
func NewMemoryRefundRepository(payments *MemoryPaymentRepository) *MemoryRefundRepository {
	return &MemoryRefundRepository{
		payments: payments,
		refunds:  make(map[string]*domain.Refund),
	}
}

func (r *MemoryRefundRepository) CreateForPayment(ctx context.Context, merchantID, paymentID string, build RefundBuilder) (*domain.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, err := r.payments.GetByIDForMerchant(ctx, merchantID, paymentID)
	if err != nil {
		return nil, err
	}

	refund, err := build(payment, r.totalLocked(paymentID))
	if err != nil {
		return nil, err
	}

	r.refunds[refund.ID] = cloneRefund(refund)
	return refund, nil
}

func (r *MemoryRefundRepository) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	refund, ok := r.refunds[id]
	if !ok {
		return nil, domain.ErrRefundNotFound
	}
	return cloneRefund(refund), nil
}

func (r *MemoryRefundRepository) GetByIDForMerchant(ctx context.Context, merchantID, id string) (*domain.Refund, error) {
	rf, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rf.MerchantID != merchantID {
		return nil, domain.ErrRefundNotFound
	}
	return rf, nil
}

func (r *MemoryRefundRepository) MarkProcessedIfPending(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	refund, ok := r.refunds[id]
	if !ok || refund.Status != domain.RefundStatusPending {
		return false, nil
	}
	refund.Status = domain.RefundStatusProcessed
	refund.ProcessedAt = &at
	return true, nil
}

func (r *MemoryRefundRepository) totalLocked(paymentID string) int64 {
	var total int64
	for _, rf := range r.refunds {
		if rf.PaymentID == paymentID {
			total += rf.Amount
		}
	}
	return total
}

func cloneRefund(rf *domain.Refund) *domain.Refund {
	c := *rf
	if rf.ProcessedAt != nil {
		at := *rf.ProcessedAt
		c.ProcessedAt = &at
	}
	return &c
}

type idempotencyKey struct {
	key        string
	merchantID string
}

// MemoryIdempotencyRepository implements IdempotencyRepository using in-memory storage
type MemoryIdempotencyRepository struct {
	records map[idempotencyKey]*domain.IdempotencyRecord
	mu      sync.Mutex
}

// NewMemoryIdempotencyRepository creates a new in-memory idempotency repository
func NewMemoryIdempotencyRepository() *MemoryIdempotencyRepository {
	return &MemoryIdempotencyRepository{records: make(map[idempotencyKey]*domain.IdempotencyRecord)}
}

func (r *MemoryIdempotencyRepository) Get(ctx context.Context, key, merchantID string, now time.Time) (*domain.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[idempotencyKey{key, merchantID}]
	if !ok || rec.IsExpired(now) {
		return nil, domain.ErrIdempotencyRecordNotFound
	}
	c := *rec
	c.Response = append([]byte(nil), rec.Response...)
	return &c, nil
}

func (r *MemoryIdempotencyRepository) Insert(ctx context.Context, record *domain.IdempotencyRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := idempotencyKey{record.Key, record.MerchantID}
	if existing, ok := r.records[k]; ok && !existing.IsExpired(record.CreatedAt) {
		return false, nil
	}
	c := *record
	c.Response = append([]byte(nil), record.Response...)
	r.records[k] = &c
	return true, nil
}

// MemoryMerchantRepository implements MerchantRepository using in-memory storage
type MemoryMerchantRepository struct {
	merchants map[string]*domain.Merchant
	mu        sync.RWMutex
}

// NewMemoryMerchantRepository creates a new in-memory merchant repository
func NewMemoryMerchantRepository() *MemoryMerchantRepository {
	return &MemoryMerchantRepository{merchants: make(map[string]*domain.Merchant)}
}

func (r *MemoryMerchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.merchants[id]
	if !ok {
		return nil, domain.ErrMerchantNotFound
	}
	c := *m
	return &c, nil
}

func (r *MemoryMerchantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	return r.find(func(m *domain.Merchant) bool { return m.APIKey == apiKey })
}

func (r *MemoryMerchantRepository) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	return r.find(func(m *domain.Merchant) bool { return m.Email == email })
}

func (r *MemoryMerchantRepository) Upsert(ctx context.Context, merchant *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.merchants {
		if m.Email == merchant.Email {
			m.APIKey = merchant.APIKey
			m.WebhookURL = merchant.WebhookURL
			m.WebhookSecret = merchant.WebhookSecret
			merchant.ID = m.ID
			return nil
		}
	}
	c := *merchant
	r.merchants[merchant.ID] = &c
	return nil
}

func (r *MemoryMerchantRepository) find(match func(*domain.Merchant) bool) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.merchants {
		if match(m) {
			c := *m
			return &c, nil
		}
	}
	return nil, domain.ErrMerchantNotFound
}
