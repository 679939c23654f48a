package domain

import "time"

// Merchant owns orders and receives webhooks
type Merchant struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	APIKey        string    `json:"api_key"`
	WebhookURL    string    `json:"webhook_url,omitempty"`
	WebhookSecret string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasWebhook reports whether the merchant has an addressable, signable endpoint
func (m *Merchant) HasWebhook() bool {
	return m.WebhookURL != "" && m.WebhookSecret != ""
}

// Test merchant seeded for local runs and evaluation
const (
	TestMerchantID            = "550e8400-e29b-41d4-a716-446655440000"
	TestMerchantEmail         = "test@example.com"
	TestMerchantAPIKey        = "key_test_abc123"
	TestMerchantWebhookSecret = "whsec_test_abc123"
)

// NewTestMerchant returns the seeded test merchant
func NewTestMerchant(webhookURL string) *Merchant {
	return &Merchant{
		ID:            TestMerchantID,
		Name:          "Test Merchant",
		Email:         TestMerchantEmail,
		APIKey:        TestMerchantAPIKey,
		WebhookURL:    webhookURL,
		WebhookSecret: TestMerchantWebhookSecret,
		CreatedAt:     time.Now().UTC(),
	}
}
