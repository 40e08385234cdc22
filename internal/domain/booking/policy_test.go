package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRefundPolicy(t *testing.T) {
	p := DefaultRefundPolicy()
	assert.Equal(t, 7, p.Days)
	assert.Equal(t, 1.0, p.Percent)
}

func TestMostRestrictive(t *testing.T) {
	assert.Equal(t, DefaultRefundPolicy(), MostRestrictive(nil))

	combined := MostRestrictive([]RefundPolicy{
		{Days: 7, Percent: 1.0},
		{Days: 3, Percent: 0.5},
		{Days: 14, Percent: 0.8},
	})
	assert.Equal(t, RefundPolicy{Days: 3, Percent: 0.5}, combined)
}

func TestEvaluateUnconfirmedRefundsInFull(t *testing.T) {
	p := RefundPolicy{Days: 7, Percent: 1.0}

	for _, status := range []Status{StatePending, StatePaid} {
		out := p.Evaluate(status, 30000, 0.5)
		assert.Equal(t, int64(30000), out.Refund, "status %s", status)
		assert.Equal(t, int64(0), out.HostPayout)
		assert.Equal(t, 1.0, out.Fraction)
	}
}

func TestEvaluateConfirmed(t *testing.T) {
	p := RefundPolicy{Days: 7, Percent: 0.5}

	// Ten days out: half the payout is forfeit.
	out := p.Evaluate(StateConfirmed, 30000, 10)
	assert.Equal(t, int64(15000), out.Refund)
	assert.Equal(t, int64(15000), out.HostPayout)
	assert.Equal(t, 0.5, out.Fraction)

	// Three days out: past the threshold, nothing back.
	out = p.Evaluate(StateConfirmed, 30000, 3)
	assert.Equal(t, int64(0), out.Refund)
	assert.Equal(t, int64(30000), out.HostPayout)
	assert.Equal(t, 0.0, out.Fraction)
}

func TestEvaluateRefundStaysWithinPayout(t *testing.T) {
	cases := []struct {
		name    string
		policy  RefundPolicy
		status  Status
		payout  int64
		daysOut float64
	}{
		{"fully refundable", RefundPolicy{Days: 1, Percent: 0}, StateConfirmed, 12345, 30},
		{"non-refundable", RefundPolicy{Days: 7, Percent: 1}, StateConfirmed, 12345, 30},
		{"partial", RefundPolicy{Days: 7, Percent: 0.33}, StateConfirmed, 9999, 8},
		{"past check-in", RefundPolicy{Days: 7, Percent: 0.5}, StateConfirmed, 9999, -2},
		{"unconfirmed", RefundPolicy{Days: 7, Percent: 1}, StatePending, 500, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.policy.Evaluate(tc.status, tc.payout, tc.daysOut)
			assert.GreaterOrEqual(t, out.Refund, int64(0))
			assert.LessOrEqual(t, out.Refund, tc.payout)
			assert.Equal(t, tc.payout, out.Refund+out.HostPayout)
		})
	}
}
