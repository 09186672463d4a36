package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

// DefaultPlatformFeeRate is the marketplace cut applied to provider payouts.
const DefaultPlatformFeeRate = 0.05

// SplitPaymentBreakdown is the integer-cent view of a split booking. Stripe
// charges in minor units, so the cent fields are authoritative; the dollar
// fields exist for display only.
type SplitPaymentBreakdown struct {
	TotalCostCents      int64   `json:"total_cost_cents"`
	ClientAShareCents   int64   `json:"client_a_share_cents"`
	ClientBShareCents   int64   `json:"client_b_share_cents"`
	TotalCostDollars    float64 `json:"total_cost_dollars"`
	ClientAShareDollars float64 `json:"client_a_share_dollars"`
	ClientBShareDollars float64 `json:"client_b_share_dollars"`
}

// CalculateSplitPayments converts the booking's dollar amounts to integer
// cents and corrects any rounding discrepancy so that the two shares always
// sum to the total exactly. A surplus is folded into client A's share, a
// deficit into client B's. A one-cent mismatch here would fail reconciliation
// against the payment processor, so exact-sum is non-negotiable.
func CalculateSplitPayments(b *models.SplitBooking) SplitPaymentBreakdown {
	totalCents := toCents(b.TotalCost)
	aCents := toCents(b.ClientAShare)
	bCents := toCents(b.ClientBShare)

	if diff := totalCents - (aCents + bCents); diff > 0 {
		aCents += diff
	} else if diff < 0 {
		bCents += diff
	}

	return SplitPaymentBreakdown{
		TotalCostCents:      totalCents,
		ClientAShareCents:   aCents,
		ClientBShareCents:   bCents,
		TotalCostDollars:    float64(totalCents) / 100,
		ClientAShareDollars: float64(aCents) / 100,
		ClientBShareDollars: float64(bCents) / 100,
	}
}

// IsSplitBookingFullyPaid reports whether both client shares are paid. Any
// other combination, including both refunded, counts as not fully paid.
func IsSplitBookingFullyPaid(b *models.SplitBooking) bool {
	return b.ClientAPaymentStatus == models.PaymentStatusPaid &&
		b.ClientBPaymentStatus == models.PaymentStatusPaid
}

// ClientNeedsPayment reports whether the given client still owes their share.
// Payment collection is only open while the booking is confirmed. Unknown
// uids return false rather than an error (fail closed).
func ClientNeedsPayment(b *models.SplitBooking, clientUid string) bool {
	if b.Status != models.BookingStatusConfirmed {
		return false
	}
	switch clientUid {
	case b.ClientAUid:
		return b.ClientAPaymentStatus == models.PaymentStatusPending
	case b.ClientBUid:
		return b.ClientBPaymentStatus == models.PaymentStatusPending
	default:
		return false
	}
}

// ClientPaymentView is one participant's slice of a split booking.
type ClientPaymentView struct {
	Status          string  `json:"status"`
	Amount          float64 `json:"amount"`
	StripeSessionID *string `json:"stripe_session_id,omitempty"`
}

// ClientPaymentStatus returns the payment view for the given participant, or
// nil when the uid is not part of the booking.
func ClientPaymentStatus(b *models.SplitBooking, clientUid string) *ClientPaymentView {
	switch clientUid {
	case b.ClientAUid:
		return &ClientPaymentView{
			Status:          b.ClientAPaymentStatus,
			Amount:          b.ClientAShare,
			StripeSessionID: b.StripeSessionA,
		}
	case b.ClientBUid:
		return &ClientPaymentView{
			Status:          b.ClientBPaymentStatus,
			Amount:          b.ClientBShare,
			StripeSessionID: b.StripeSessionB,
		}
	default:
		return nil
	}
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatCurrency renders an amount with symbol, thousands separators, and two
// decimals: FormatCurrency(1000.5, "USD") -> "$1,000.50". ISO codes without a
// known symbol fall back to "CODE 1,234.56". An empty currency means USD.
func FormatCurrency(amount float64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}

	negative := math.Signbit(amount)
	formatted := groupThousands(strconv.FormatFloat(math.Abs(amount), 'f', 2, 64))

	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code + " "
	}
	if negative {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// CalculatePlatformFee computes the marketplace fee with half-up rounding to
// two decimal places.
func CalculatePlatformFee(amount float64, feeRate float64) float64 {
	return math.Round(amount*feeRate*100) / 100
}

// CheckoutURLs are the redirect targets handed to the payment provider when a
// hosted checkout session is created.
type CheckoutURLs struct {
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
	ReturnURL  string `json:"return_url"`
}

// PaymentURLs builds the redirect URLs for one booking. Pure string
// templating; creating the checkout session itself is the payment provider's
// job.
func PaymentURLs(bookingID string, baseURL string) CheckoutURLs {
	base := strings.TrimRight(baseURL, "/")
	return CheckoutURLs{
		SuccessURL: base + "/bookings/" + bookingID + "?payment=success",
		CancelURL:  base + "/bookings/" + bookingID + "?payment=cancelled",
		ReturnURL:  base + "/bookings/" + bookingID,
	}
}

func toCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

func groupThousands(formatted string) string {
	intPart, fracPart, _ := strings.Cut(formatted, ".")
	if len(intPart) <= 3 {
		return intPart + "." + fracPart
	}

	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}
	return sb.String() + "." + fracPart
}
