package policies

import "context"

// PaymentsPort is the payment-gateway collaborator. The lifecycle handlers
// call it around host review and cancellation; protocol details stay behind
// the port.
type PaymentsPort interface {
	// Authorize places a hold for the booking total and returns the intent id.
	Authorize(ctx context.Context, bookingID string, amount int64, currency string) (string, error)
	// Capture settles a hold and returns the gateway's fee.
	Capture(ctx context.Context, intentID string) (int64, error)
	// Decline voids an uncaptured hold.
	Decline(ctx context.Context, intentID string) error
	// Refund returns the given fraction of the captured amount to the guest.
	Refund(ctx context.Context, intentID string, fraction float64) error
	// CreditBalance returns account-balance funds used at checkout.
	CreditBalance(ctx context.Context, userID string, amount int64, currency string) error
}
