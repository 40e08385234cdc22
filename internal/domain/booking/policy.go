package booking

import (
	"rstays/internal/domain/shared/money"
)

// RefundPolicy is the single-tier cancellation curve snapshotted onto the
// booking at creation time: cancelling at least Days before check-in refunds
// payout*(1-Percent); any later and the full amount stays with the host.
type RefundPolicy struct {
	Days    int     `bson:"days"`
	Percent float64 `bson:"percent"`
}

// DefaultRefundPolicy applies when a unit defines no policy: fully
// non-refundable inside a week of check-in.
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{Days: 7, Percent: 1}
}

// MostRestrictive folds the policies of every unit in a booking into one,
// taking the earliest threshold and the smallest percent across them. An
// empty slice yields the default.
func MostRestrictive(policies []RefundPolicy) RefundPolicy {
	if len(policies) == 0 {
		return DefaultRefundPolicy()
	}
	out := policies[0]
	for _, p := range policies[1:] {
		if p.Days < out.Days {
			out.Days = p.Days
		}
		if p.Percent < out.Percent {
			out.Percent = p.Percent
		}
	}
	return out
}

// RefundOutcome is what a cancellation settles to: the guest refund, the
// remainder kept for the host payout, and the fraction handed to the payment
// gateway.
type RefundOutcome struct {
	Refund     int64
	HostPayout int64
	Fraction   float64
}

// Evaluate decides the refund for cancelling a booking in the given status
// with daysUntilCheckIn remaining (negative once check-in has passed). An
// unconfirmed stay was never locked in by the host, so it refunds in full
// regardless of the threshold.
func (p RefundPolicy) Evaluate(status Status, payout int64, daysUntilCheckIn float64) RefundOutcome {
	if status != StateConfirmed {
		return RefundOutcome{Refund: payout, Fraction: 1}
	}
	if daysUntilCheckIn >= float64(p.Days) {
		refund := money.Round(float64(payout) * (1 - p.Percent))
		if refund < 0 {
			refund = 0
		}
		if refund > payout {
			refund = payout
		}
		return RefundOutcome{Refund: refund, HostPayout: payout - refund, Fraction: 1 - p.Percent}
	}
	return RefundOutcome{HostPayout: payout}
}
