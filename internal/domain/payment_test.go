package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder("merchant-1", 50000, "INR", "rcpt_1")
	if err != nil {
		t.Fatalf("NewOrder() error = %v", err)
	}
	return o
}

func TestNewPayment(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		vpa     string
		wantErr error
	}{
		{name: "valid upi", method: "upi", vpa: "user@paytm"},
		{name: "valid card", method: "card"},
		{name: "method is case insensitive", method: "UPI", vpa: "john.doe@okaxis"},
		{name: "unknown method", method: "netbanking", wantErr: ErrInvalidMethod},
		{name: "upi missing vpa", method: "upi", wantErr: ErrInvalidVPA},
		{name: "upi malformed vpa", method: "upi", vpa: "not-a-vpa", wantErr: ErrInvalidVPA},
		{name: "upi vpa with numeric handle", method: "upi", vpa: "user@123", wantErr: ErrInvalidVPA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testOrder(t)
			p, err := NewPayment(order, tt.method, tt.vpa)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewPayment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if !strings.HasPrefix(p.ID, PaymentIDPrefix) {
				t.Errorf("ID = %s, want prefix %s", p.ID, PaymentIDPrefix)
			}
			if p.Status != PaymentStatusPending {
				t.Errorf("Status = %s, want pending", p.Status)
			}
			if p.Amount != order.Amount || p.Currency != order.Currency {
				t.Errorf("amount/currency not copied from order")
			}
			if p.MerchantID != order.MerchantID {
				t.Errorf("MerchantID = %s, want %s", p.MerchantID, order.MerchantID)
			}
			if p.Method == PaymentMethodCard && p.VPA != nil {
				t.Errorf("card payment should have no VPA")
			}
			if p.Method == PaymentMethodUPI && (p.VPA == nil || *p.VPA != tt.vpa) {
				t.Errorf("VPA not stored")
			}
		})
	}
}

func TestPayment_Settle(t *testing.T) {
	p, err := NewPayment(testOrder(t), "card", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Settle(PaymentStatusPending, time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Settle(pending) error = %v, want ErrInvalidTransition", err)
	}

	if err := p.Settle(PaymentStatusSuccess, time.Now()); err != nil {
		t.Fatalf("Settle(success) error = %v", err)
	}
	if !p.IsFinal() {
		t.Error("IsFinal() = false after settle")
	}
	if p.SettledEvent() != EventPaymentSuccess {
		t.Errorf("SettledEvent() = %s", p.SettledEvent())
	}

	if err := p.Settle(PaymentStatusFailed, time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Settle error = %v, want ErrInvalidTransition", err)
	}
	if p.Status != PaymentStatusSuccess {
		t.Errorf("Status changed to %s after rejected transition", p.Status)
	}
}

func TestPayment_Capture(t *testing.T) {
	p, err := NewPayment(testOrder(t), "upi", "user@paytm")
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Capture(time.Now()); !errors.Is(err, ErrPaymentNotCapturable) {
		t.Errorf("Capture(pending) error = %v, want ErrPaymentNotCapturable", err)
	}

	_ = p.Settle(PaymentStatusSuccess, time.Now())
	if err := p.Capture(time.Now()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if !p.Captured {
		t.Error("Captured = false")
	}

	err = p.Capture(time.Now())
	if !errors.Is(err, ErrPaymentAlreadyCaptured) {
		t.Errorf("second Capture error = %v, want ErrPaymentAlreadyCaptured", err)
	}
	if KindOf(err) != KindInvalidState {
		t.Errorf("KindOf = %s, want invalid_state", KindOf(err))
	}
}

func TestPayment_CaptureFailed(t *testing.T) {
	p, _ := NewPayment(testOrder(t), "card", "")
	_ = p.Settle(PaymentStatusFailed, time.Now())

	if err := p.Capture(time.Now()); !errors.Is(err, ErrPaymentNotCapturable) {
		t.Errorf("Capture(failed) error = %v, want ErrPaymentNotCapturable", err)
	}
	if p.SettledEvent() != EventPaymentFailed {
		t.Errorf("SettledEvent() = %s", p.SettledEvent())
	}
}

func TestNewOrder(t *testing.T) {
	o, err := NewOrder("m", 500, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if o.Currency != DefaultCurrency {
		t.Errorf("Currency = %s, want %s", o.Currency, DefaultCurrency)
	}
	if !strings.HasPrefix(o.ID, OrderIDPrefix) || len(o.ID) != len(OrderIDPrefix)+16 {
		t.Errorf("ID = %s", o.ID)
	}

	if _, err := NewOrder("m", 0, "INR", ""); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount error = %v", err)
	}
	if _, err := NewOrder("m", 100, "RUPEES", ""); !errors.Is(err, ErrInvalidCurrency) {
		t.Errorf("bad currency error = %v", err)
	}
}
