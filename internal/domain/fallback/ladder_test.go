package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/providers/fetch"
)

func recordingTier(rank Rank, calls *[]Rank, records []map[string]any, err error) Tier {
	return Tier{
		Rank: rank,
		Produce: func(context.Context, string) ([]map[string]any, error) {
			*calls = append(*calls, rank)
			return records, err
		},
	}
}

func TestLadderOrder(t *testing.T) {
	var calls []Rank
	ladder := New(zaptest.NewLogger(t),
		recordingTier(RankMinimal, &calls, []map[string]any{{"title": "min"}}, nil),
		recordingTier(RankRendered, &calls, nil, errors.New("chrome crashed")),
	)
	assert.Equal(t, []Rank{RankRendered, RankMinimal}, ladder.Ranks())

	records, err := ladder.Run(context.Background(), "https://example.com", RankPrimary)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"title": "min"}}, records)
	assert.Equal(t, []Rank{RankRendered, RankMinimal}, calls)
}

func TestLadderStopsAtFirstRecords(t *testing.T) {
	var calls []Rank
	ladder := New(nil,
		recordingTier(RankRendered, &calls, []map[string]any{{"title": "rendered"}}, nil),
		recordingTier(RankMinimal, &calls, []map[string]any{{"title": "min"}}, nil),
	)

	records, err := ladder.Run(context.Background(), "https://example.com", RankPrimary)
	require.NoError(t, err)
	assert.Equal(t, "rendered", records[0]["title"])
	assert.Equal(t, []Rank{RankRendered}, calls)
}

func TestLadderAfter(t *testing.T) {
	var calls []Rank
	ladder := New(nil,
		recordingTier(RankRendered, &calls, []map[string]any{{"title": "rendered"}}, nil),
		recordingTier(RankMinimal, &calls, []map[string]any{{"title": "min"}}, nil),
	)

	records, err := ladder.Run(context.Background(), "https://example.com", RankRendered)
	require.NoError(t, err)
	assert.Equal(t, "min", records[0]["title"])
	assert.Equal(t, []Rank{RankMinimal}, calls)
}

func TestLadderEmpty(t *testing.T) {
	var calls []Rank
	metrics := monitoring.NewMetrics()
	ladder := New(zaptest.NewLogger(t),
		recordingTier(RankRendered, &calls, nil, errors.New("timeout")),
		recordingTier(RankMinimal, &calls, []map[string]any{}, nil),
	).WithMetrics(metrics)

	_, err := ladder.Run(context.Background(), "https://example.com", RankPrimary)
	assert.ErrorIs(t, err, ErrEmptyResult)
	assert.Equal(t, []Rank{RankRendered, RankMinimal}, calls, "each tier runs exactly once")

	_, err = New(nil).Run(context.Background(), "https://example.com", RankPrimary)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestLadderCancelled(t *testing.T) {
	var calls []Rank
	ladder := New(nil, recordingTier(RankRendered, &calls, nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ladder.Run(ctx, "https://example.com", RankPrimary)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

func TestRankString(t *testing.T) {
	assert.Equal(t, "primary", RankPrimary.String())
	assert.Equal(t, "rendered", RankRendered.String())
	assert.Equal(t, "minimal", RankMinimal.String())
	assert.Equal(t, "unknown", Rank(7).String())
}

func page(html string) PageFunc {
	return func(_ context.Context, url string) (*fetch.Page, error) {
		return &fetch.Page{URL: url, HTML: html, Status: 200}, nil
	}
}

func TestRenderedTier(t *testing.T) {
	html := `<html><head><title> Acme Support </title></head>
		<body><p>Call 9876543210 or 9876543210.</p><script>var x = 1;</script></body></html>`

	records, err := RenderedTier(page(html), nil).Produce(context.Background(), "https://acme.test")
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Acme Support", r["title"])
	assert.Equal(t, "https://acme.test", r["url"])
	assert.Equal(t, []any{"9876543210"}, r["phone_numbers"])
	assert.Equal(t, 1, r["total_phones"])
	assert.Equal(t, StatusRendered, r["status"])
	assert.NotEmpty(t, r["message"])
}

func TestRenderedTierNoTitle(t *testing.T) {
	records, err := RenderedTier(page(`<html><body>nothing</body></html>`), nil).
		Produce(context.Background(), "https://acme.test")
	require.NoError(t, err)
	assert.Equal(t, "No title found", records[0]["title"])
	assert.Equal(t, []any{}, records[0]["phone_numbers"])
	assert.Equal(t, 0, records[0]["total_phones"])
}

func TestRenderedTierError(t *testing.T) {
	failing := func(context.Context, string) (*fetch.Page, error) { return nil, fetch.ErrRenderUnset }

	_, err := RenderedTier(failing, nil).Produce(context.Background(), "https://acme.test")
	assert.ErrorIs(t, err, fetch.ErrRenderUnset)
}

func TestMinimalTier(t *testing.T) {
	records, err := MinimalTier(page(`<title>Acme</title>`), nil).Produce(context.Background(), "https://acme.test")
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{
		"title":   "Acme",
		"url":     "https://acme.test",
		"status":  StatusMinimal,
		"message": "All extraction methods failed, extracted basic page info",
	}}, records)
}
