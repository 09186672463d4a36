package services

import (
	"testing"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

func buildSplitBooking(status, aStatus, bStatus string) *models.SplitBooking {
	return &models.SplitBooking{
		ID:                   "bk-1",
		ProviderID:           "prov-1",
		ClientAUid:           "client-a",
		ClientBUid:           "client-b",
		TotalCost:            100.03,
		ClientAShare:         60.01,
		ClientBShare:         40.02,
		ClientAPaymentStatus: aStatus,
		ClientBPaymentStatus: bStatus,
		Status:               status,
	}
}

func TestCalculateSplitPaymentsExactSum(t *testing.T) {
	b := buildSplitBooking(models.BookingStatusConfirmed, "pending", "pending")

	breakdown := CalculateSplitPayments(b)
	if breakdown.TotalCostCents != 10003 {
		t.Fatalf("expected 10003 total cents, got %d", breakdown.TotalCostCents)
	}
	if breakdown.ClientAShareCents+breakdown.ClientBShareCents != breakdown.TotalCostCents {
		t.Fatalf("shares %d + %d do not sum to total %d",
			breakdown.ClientAShareCents, breakdown.ClientBShareCents, breakdown.TotalCostCents)
	}
}

func TestCalculateSplitPaymentsCorrectsRoundingDrift(t *testing.T) {
	// Both shares round down independently, leaving a one-cent surplus that
	// must land on client A.
	b := &models.SplitBooking{
		TotalCost:    100.01,
		ClientAShare: 50.004,
		ClientBShare: 50.004,
	}

	breakdown := CalculateSplitPayments(b)
	if breakdown.TotalCostCents != 10001 {
		t.Fatalf("expected 10001 total cents, got %d", breakdown.TotalCostCents)
	}
	if got := breakdown.ClientAShareCents + breakdown.ClientBShareCents; got != 10001 {
		t.Fatalf("expected shares to sum to 10001, got %d", got)
	}
	if breakdown.ClientAShareCents != 5001 {
		t.Fatalf("expected surplus cent on client A (5001), got %d", breakdown.ClientAShareCents)
	}
}

func TestCalculateSplitPaymentsFoldsDeficitIntoClientB(t *testing.T) {
	b := &models.SplitBooking{
		TotalCost:    99.99,
		ClientAShare: 50.004,
		ClientBShare: 50.004,
	}

	breakdown := CalculateSplitPayments(b)
	if got := breakdown.ClientAShareCents + breakdown.ClientBShareCents; got != breakdown.TotalCostCents {
		t.Fatalf("expected exact sum, got %d vs %d", got, breakdown.TotalCostCents)
	}
	if breakdown.ClientAShareCents != 5000 {
		t.Fatalf("expected client A untouched at 5000, got %d", breakdown.ClientAShareCents)
	}
}

func TestIsSplitBookingFullyPaid(t *testing.T) {
	cases := []struct {
		aStatus string
		bStatus string
		want    bool
	}{
		{"paid", "paid", true},
		{"paid", "pending", false},
		{"pending", "paid", false},
		{"refunded", "refunded", false},
		{"paid", "refunded", false},
	}
	for _, tc := range cases {
		b := buildSplitBooking(models.BookingStatusConfirmed, tc.aStatus, tc.bStatus)
		if got := IsSplitBookingFullyPaid(b); got != tc.want {
			t.Fatalf("statuses %s/%s: expected %v, got %v", tc.aStatus, tc.bStatus, tc.want, got)
		}
	}
}

func TestClientNeedsPaymentOnlyWhenConfirmed(t *testing.T) {
	b := buildSplitBooking(models.BookingStatusPending, "pending", "pending")
	if ClientNeedsPayment(b, "client-a") {
		t.Fatal("pending booking must not collect payment")
	}

	b.Status = models.BookingStatusConfirmed
	if !ClientNeedsPayment(b, "client-a") {
		t.Fatal("confirmed booking with pending share should need payment")
	}

	b.ClientAPaymentStatus = "paid"
	if ClientNeedsPayment(b, "client-a") {
		t.Fatal("paid share must not need payment again")
	}
	if !ClientNeedsPayment(b, "client-b") {
		t.Fatal("client B share is still pending")
	}
}

func TestClientNeedsPaymentFailsClosedForStrangers(t *testing.T) {
	b := buildSplitBooking(models.BookingStatusConfirmed, "pending", "pending")
	if ClientNeedsPayment(b, "someone-else") {
		t.Fatal("unknown uid must never need payment")
	}
	if got := ClientPaymentStatus(b, "someone-else"); got != nil {
		t.Fatalf("expected nil view for unknown uid, got %+v", got)
	}
}

func TestClientPaymentStatusIsPure(t *testing.T) {
	session := "cs_test_123"
	b := buildSplitBooking(models.BookingStatusConfirmed, "paid", "pending")
	b.StripeSessionA = &session

	first := ClientPaymentStatus(b, "client-a")
	second := ClientPaymentStatus(b, "client-a")
	if first == nil || second == nil {
		t.Fatal("expected views for known participant")
	}
	if *first != *second {
		t.Fatalf("expected identical views, got %+v vs %+v", first, second)
	}
	if first.Status != "paid" || first.Amount != 60.01 {
		t.Fatalf("unexpected view: %+v", first)
	}
	if first.StripeSessionID == nil || *first.StripeSessionID != session {
		t.Fatalf("expected stripe session %q, got %v", session, first.StripeSessionID)
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     string
	}{
		{1000.5, "USD", "$1,000.50"},
		{100, "EUR", "€100.00"},
		{2500, "GBP", "£2,500.00"},
		{1234567.891, "USD", "$1,234,567.89"},
		{99.9, "", "$99.90"},
		{42, "SEK", "SEK 42.00"},
		{-1234.5, "USD", "-$1,234.50"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.amount, tc.currency); got != tc.want {
			t.Fatalf("FormatCurrency(%v, %q): expected %q, got %q", tc.amount, tc.currency, tc.want, got)
		}
	}
}

func TestCalculatePlatformFeeRoundsHalfUp(t *testing.T) {
	if got := CalculatePlatformFee(123.45, 0.05); got != 6.17 {
		t.Fatalf("expected fee 6.17, got %v", got)
	}
	if got := CalculatePlatformFee(100, DefaultPlatformFeeRate); got != 5.00 {
		t.Fatalf("expected fee 5.00, got %v", got)
	}
}

func TestPaymentURLs(t *testing.T) {
	urls := PaymentURLs("bk-77", "https://app.studiosplit.io/")
	if urls.SuccessURL != "https://app.studiosplit.io/bookings/bk-77?payment=success" {
		t.Fatalf("unexpected success url: %s", urls.SuccessURL)
	}
	if urls.CancelURL != "https://app.studiosplit.io/bookings/bk-77?payment=cancelled" {
		t.Fatalf("unexpected cancel url: %s", urls.CancelURL)
	}
	if urls.ReturnURL != "https://app.studiosplit.io/bookings/bk-77" {
		t.Fatalf("unexpected return url: %s", urls.ReturnURL)
	}
}
