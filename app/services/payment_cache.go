package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aniicone/cafe-api/pkg/cache"
	"github.com/aniicone/cafe-api/pkg/metrics"
)

// PaymentSnapshot is what the café remembers about a payment session
// between initiation and the status query.
type PaymentSnapshot struct {
	Items  json.RawMessage `json:"items"`
	Amount float64         `json:"amount"`
}

// PaymentCache keeps snapshots keyed by transaction id on any cache.Store.
type PaymentCache struct {
	store cache.Store
	ttl   time.Duration
}

// NewPaymentCache wraps store. A zero ttl keeps entries until restart
// (memory) or forever (redis).
func NewPaymentCache(store cache.Store, ttl time.Duration) *PaymentCache {
	return &PaymentCache{store: store, ttl: ttl}
}

func (c *PaymentCache) Put(ctx context.Context, txnID string, s PaymentSnapshot) error {
	return c.store.Set(ctx, key(txnID), s, c.ttl)
}

// Get returns the snapshot for txnID and whether one was stored.
func (c *PaymentCache) Get(ctx context.Context, txnID string) (*PaymentSnapshot, bool, error) {
	var s PaymentSnapshot
	ok, err := c.store.Get(ctx, key(txnID), &s)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		metrics.CacheMisses.WithLabelValues(c.store.Driver()).Inc()
		return nil, false, nil
	}
	metrics.CacheHits.WithLabelValues(c.store.Driver()).Inc()
	return &s, true, nil
}

func key(txnID string) string { return "payment:" + txnID }
