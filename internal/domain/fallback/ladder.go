// Package fallback provides the ranked extraction tiers tried when generated
// code runs cleanly but produces nothing.
package fallback

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
)

// ErrEmptyResult is returned when every tier failed or produced nothing
var ErrEmptyResult = errors.New("no fallback tier produced records")

// Rank orders tiers from highest to lowest fidelity
type Rank int

const (
	RankPrimary Rank = iota
	RankRendered
	RankMinimal
)

func (r Rank) String() string {
	switch r {
	case RankPrimary:
		return "primary"
	case RankRendered:
		return "rendered"
	case RankMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// Producer extracts records for url
type Producer func(ctx context.Context, url string) ([]map[string]any, error)

// Tier is one extraction strategy
type Tier struct {
	Rank     Rank
	Fidelity string
	Produce  Producer
}

// Ladder runs tiers in rank order until one yields records
type Ladder struct {
	tiers   []Tier
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates a ladder. Tiers are kept in ascending rank order regardless
// of argument order.
func New(logger *zap.Logger, tiers ...Tier) *Ladder {
	if logger == nil {
		logger = zap.NewNop()
	}
	sorted := append([]Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	return &Ladder{tiers: sorted, logger: logger}
}

// WithMetrics attaches tier outcome counters
func (l *Ladder) WithMetrics(m *monitoring.Metrics) *Ladder {
	l.metrics = m
	return l
}

// Run tries every tier ranked after `after`, each at most once. Tier errors
// are logged and skipped.
func (l *Ladder) Run(ctx context.Context, url string, after Rank) ([]map[string]any, error) {
	for _, tier := range l.tiers {
		if tier.Rank <= after {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		records, err := tier.Produce(ctx, url)
		fields := []zap.Field{
			zap.String("tier", tier.Rank.String()),
			zap.String("url", url),
			zap.Duration("duration", time.Since(start)),
		}

		switch {
		case err != nil:
			l.logger.Warn("fallback tier failed", append(fields, zap.Error(err))...)
			l.record(tier, "error")
		case len(records) == 0:
			l.logger.Info("fallback tier produced no records", fields...)
			l.record(tier, "empty")
		default:
			l.logger.Info("fallback tier succeeded", append(fields, zap.Int("records", len(records)))...)
			l.record(tier, "ok")
			return records, nil
		}
	}
	return nil, ErrEmptyResult
}

// Ranks lists the ranks of the configured tiers in order
func (l *Ladder) Ranks() []Rank {
	ranks := make([]Rank, len(l.tiers))
	for i, t := range l.tiers {
		ranks[i] = t.Rank
	}
	return ranks
}

func (l *Ladder) record(tier Tier, status string) {
	if l.metrics != nil {
		l.metrics.RecordFallbackTier(tier.Rank.String(), status)
	}
}
