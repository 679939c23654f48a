package dto

import "github.com/prohmpiriya/payment-gateway/internal/domain"

// Worker status values
const (
	WorkerRunning = "running"
	WorkerStopped = "stopped"
)

// TestMerchantResponse exposes the seeded test merchant's credentials
type TestMerchantResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
	Seeded bool   `json:"seeded"`
}

// FromTestMerchant converts the seeded merchant
func FromTestMerchant(m *domain.Merchant) *TestMerchantResponse {
	return &TestMerchantResponse{
		ID:     m.ID,
		Email:  m.Email,
		APIKey: m.APIKey,
		Seeded: true,
	}
}

// JobStatusResponse reports payment queue counters
type JobStatusResponse struct {
	Pending      int    `json:"pending"`
	Processing   int    `json:"processing"`
	Completed    int    `json:"completed"`
	Failed       int    `json:"failed"`
	WorkerStatus string `json:"worker_status"`
}

// HealthResponse is returned by the health endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}
