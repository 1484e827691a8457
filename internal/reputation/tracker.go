// Package reputation tracks a significance score per provider and picks the
// provider that endorses the next transaction.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmerrifield20/recordledger/internal/codec"
	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/state"
	"github.com/jmerrifield20/recordledger/internal/txn"
	"go.uber.org/zap"
)

// DefaultIdleThreshold is how long a provider must go without a score update
// before selection prefers it over lower-significance providers.
const DefaultIdleThreshold = 600 * time.Second

// Score is the per-provider state.
type Score struct {
	Significance int64     `json:"significance"`
	LastUpdate   time.Time `json:"last_update"`
}

// Standing pairs a provider with its score.
type Standing struct {
	Provider string `json:"provider"`
	Score
}

// Tracker is the reputation component. It owns the providers namespace.
type Tracker struct {
	scores *state.Collection[Score]
	idle   time.Duration
	logger *zap.Logger
}

// NewTracker creates a Tracker over store.
func NewTracker(store state.Store, c codec.Codec, logger *zap.Logger) *Tracker {
	return &Tracker{
		scores: state.NewCollection[Score](store, state.NamespaceProviders, c),
		idle:   DefaultIdleThreshold,
		logger: logger,
	}
}

// SetIdleThreshold overrides DefaultIdleThreshold. Values are truncated to
// whole seconds.
func (t *Tracker) SetIdleThreshold(d time.Duration) {
	if d > 0 {
		t.idle = d
	}
}

// normalize lower-cases provider ids so "Org1" and "org1" share one score.
func normalize(providerID string) string {
	return strings.ToLower(strings.TrimSpace(providerID))
}

// Credit adds amount to the provider's significance, creating the score
// seeded at amount when the provider has none. The last-update timestamp is
// set to the transaction time either way.
func (t *Tracker) Credit(ctx context.Context, tx *txn.Tx, providerID string, amount int64) (*Score, error) {
	id := normalize(providerID)
	if id == "" {
		return nil, fault.Malformedf("provider id is required")
	}
	if amount < 0 {
		return nil, fault.Malformedf("significance increase must not be negative, got %d", amount)
	}

	score, err := t.scores.Get(ctx, id)
	switch {
	case errors.Is(err, state.ErrNotFound):
		score = &Score{Significance: amount, LastUpdate: tx.Timestamp}
		t.logger.Info("no significance for provider; created entry",
			zap.String("provider", id),
			zap.Int64("significance", amount),
		)
	case err != nil:
		return nil, fmt.Errorf("load provider %s: %w", id, err)
	default:
		score.Significance += amount
		score.LastUpdate = tx.Timestamp
		t.logger.Info("provider significance increased",
			zap.String("provider", id),
			zap.Int64("increase", amount),
			zap.Int64("total", score.Significance),
		)
	}

	if err := t.scores.Put(ctx, id, score); err != nil {
		return nil, fmt.Errorf("store provider %s: %w", id, err)
	}
	return score, nil
}

// Get returns the provider's current significance.
func (t *Tracker) Get(ctx context.Context, providerID string) (int64, error) {
	id := normalize(providerID)
	score, err := t.scores.Get(ctx, id)
	if errors.Is(err, state.ErrNotFound) {
		return 0, fault.NotFoundf("no significance associated with provider %s", id)
	}
	if err != nil {
		return 0, fmt.Errorf("load provider %s: %w", id, err)
	}
	return score.Significance, nil
}

// Delete removes the provider's score unconditionally.
func (t *Tracker) Delete(ctx context.Context, providerID string) error {
	id := normalize(providerID)
	if err := t.scores.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete provider %s: %w", id, err)
	}
	t.logger.Info("deleted provider significance", zap.String("provider", id))
	return nil
}

// Seed writes an initial score for each provider, replacing any existing one.
// Nothing is written unless every seed is valid.
func (t *Tracker) Seed(ctx context.Context, tx *txn.Tx, seeds map[string]int64) error {
	for provider, significance := range seeds {
		if normalize(provider) == "" {
			return fault.Malformedf("provider id is required")
		}
		if significance < 0 {
			return fault.Malformedf("seed significance for %s must not be negative", normalize(provider))
		}
	}
	for provider, significance := range seeds {
		id := normalize(provider)
		if err := t.scores.Put(ctx, id, &Score{Significance: significance, LastUpdate: tx.Timestamp}); err != nil {
			return fmt.Errorf("seed provider %s: %w", id, err)
		}
	}
	t.logger.Info("seeded provider scores", zap.Int("providers", len(seeds)))
	return nil
}

// List returns every provider's score in ascending provider order.
func (t *Tracker) List(ctx context.Context) ([]Standing, error) {
	var out []Standing
	err := t.scores.Scan(ctx, func(id string, s *Score) error {
		out = append(out, Standing{Provider: id, Score: *s})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return out, nil
}

// SelectEndorser scans every provider except exclude and returns the one
// that should endorse the current transaction.
//
// A candidate replaces the running best when no best exists yet, when it has
// strictly lower significance while the best was updated within the idle
// threshold, or when it has itself been idle for at least the threshold and
// longer than the best. The scan runs in ascending provider order, so among
// equal candidates the first id wins.
func (t *Tracker) SelectEndorser(ctx context.Context, tx *txn.Tx, exclude string) (string, error) {
	exclude = normalize(exclude)
	threshold := int64(t.idle / time.Second)
	now := tx.Timestamp.Unix()

	var (
		best        string
		bestScore   Score
		bestElapsed int64
		found       bool
	)
	err := t.scores.Scan(ctx, func(id string, s *Score) error {
		if id == exclude {
			return nil
		}
		elapsed := now - s.LastUpdate.Unix()
		if !found ||
			(s.Significance < bestScore.Significance && bestElapsed < threshold) ||
			(elapsed >= threshold && elapsed > bestElapsed) {
			best, bestScore, bestElapsed, found = id, *s, elapsed, true
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan providers: %w", err)
	}
	if !found {
		t.logger.Warn("could not select next endorser", zap.String("excluded", exclude))
		return "", fault.NoCandidatef("no eligible provider to endorse (excluded %q)", exclude)
	}

	t.logger.Info("selected next endorser",
		zap.String("provider", best),
		zap.Int64("significance", bestScore.Significance),
		zap.Int64("idle_seconds", bestElapsed),
	)
	return best, nil
}
