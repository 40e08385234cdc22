package rates

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rstays/internal/app/policies"
)

var ErrUnknownPair = errors.New("rates: unknown currency pair")

// fallbackTable holds coarse static rates used when Redis has no fresher
// quote. Keys are "FROM-TO".
var fallbackTable = map[string]float64{
	"USD-EUR": 0.92,
	"EUR-USD": 1.09,
	"USD-GBP": 0.79,
	"GBP-USD": 1.27,
	"EUR-GBP": 0.86,
	"GBP-EUR": 1.16,
	"USD-RUB": 92.0,
	"RUB-USD": 0.0109,
	"EUR-RUB": 100.0,
	"RUB-EUR": 0.01,
}

// CachedProvider resolves conversion rates through Redis with a static
// fallback. A nil client degrades to the fallback table only.
type CachedProvider struct {
	Client   *redis.Client
	TTL      time.Duration
	Fallback map[string]float64
}

func NewCachedProvider(client *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{Client: client, TTL: ttl, Fallback: fallbackTable}
}

func (p *CachedProvider) Rate(ctx context.Context, pair string) (float64, error) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if from, to, ok := strings.Cut(pair, "-"); ok && from == to {
		return 1, nil
	}
	if p.Client != nil {
		if cached, err := p.Client.Get(ctx, cacheKey(pair)).Result(); err == nil {
			if rate, err := strconv.ParseFloat(cached, 64); err == nil && rate > 0 {
				return rate, nil
			}
		}
	}
	rate, err := p.fallback(pair)
	if err != nil {
		return 0, err
	}
	if p.Client != nil {
		_ = p.Client.Set(ctx, cacheKey(pair), strconv.FormatFloat(rate, 'f', -1, 64), p.ttl()).Err()
	}
	return rate, nil
}

func (p *CachedProvider) fallback(pair string) (float64, error) {
	table := p.Fallback
	if table == nil {
		table = fallbackTable
	}
	if rate, ok := table[pair]; ok {
		return rate, nil
	}
	// derive from the inverse when only one direction is listed
	if from, to, ok := strings.Cut(pair, "-"); ok {
		if inverse, ok := table[to+"-"+from]; ok && inverse > 0 {
			return 1 / inverse, nil
		}
	}
	return 0, ErrUnknownPair
}

func (p *CachedProvider) ttl() time.Duration {
	if p.TTL > 0 {
		return p.TTL
	}
	return time.Hour
}

func cacheKey(pair string) string {
	return "fx:" + pair
}

var _ policies.RatesPort = (*CachedProvider)(nil)
