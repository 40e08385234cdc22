package policies

import "context"

// RatesPort resolves a currency conversion rate for a "FROM-TO" pair key.
// Conversion is applied once per unit before fee and tax computation.
type RatesPort interface {
	Rate(ctx context.Context, pair string) (float64, error)
}
