package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/PromptScraper/internal/domain/orchestrator"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/PromptScraper/internal/shared/id"
)

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, prompt, url string) (string, error) {
	args := m.Called(ctx, prompt, url)
	return args.String(0), args.Error(1)
}

type fakeExecutor struct {
	records  []map[string]any
	err      error
	attempts int
	code     string
	url      string
}

func (f *fakeExecutor) Execute(ctx context.Context, code, url string, observers ...orchestrator.Observer) ([]map[string]any, error) {
	f.code, f.url = code, url
	for i := 0; i < f.attempts; i++ {
		for _, o := range observers {
			o.OnAttempt(ctx, orchestrator.Attempt{Index: i})
		}
	}
	return f.records, f.err
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "example.com", want: "https://example.com"},
		{in: "  example.com/contact  ", want: "https://example.com/contact"},
		{in: "http://example.com", want: "http://example.com"},
		{in: "HTTPS://example.com/a?b=c", want: "https://example.com/a?b=c"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScrape(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, "find emails", "https://example.com").Return("code", nil).Once()

	exec := &fakeExecutor{records: []map[string]any{{"email": "ada@example.com"}}, attempts: 2}
	tracer := tracing.New("test", zaptest.NewLogger(t))
	defer tracer.Close()

	var seen int
	observer := orchestrator.ObserverFunc(func(context.Context, orchestrator.Attempt) { seen++ })

	svc := New(gen, exec, tracer, zaptest.NewLogger(t))
	res, err := svc.Scrape(context.Background(), "  find emails ", "example.com", observer)
	require.NoError(t, err)

	assert.Equal(t, exec.records, res.Records)
	assert.Equal(t, "https://example.com", res.URL)
	assert.Equal(t, "code", res.Code)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 2, seen)
	assert.True(t, id.IsValid(res.RunID.String()))
	assert.Equal(t, "code", exec.code)
	assert.Equal(t, "https://example.com", exec.url)
	gen.AssertExpectations(t)
}

func TestScrapeInvalidRequest(t *testing.T) {
	gen := new(mockGenerator)
	svc := New(gen, &fakeExecutor{}, nil, nil)

	_, err := svc.Scrape(context.Background(), "", "example.com")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Scrape(context.Background(), "emails", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestScrapeGenerationFailure(t *testing.T) {
	down := errors.New("model unavailable")
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", down)

	exec := &fakeExecutor{}
	_, err := New(gen, exec, nil, nil).Scrape(context.Background(), "emails", "example.com")
	assert.ErrorIs(t, err, ErrGenerate)
	assert.ErrorIs(t, err, down)
	assert.Empty(t, exec.code, "executor must not run without code")

	_, err = New(nil, exec, nil, nil).Scrape(context.Background(), "emails", "example.com")
	assert.ErrorIs(t, err, ErrGenerate)
}

func TestScrapeExecutionFailure(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("code", nil)

	failure := &orchestrator.Error{Kind: orchestrator.ErrSafetyRejected, Message: "forbidden capability filesystem: matched fs"}
	_, err := New(gen, &fakeExecutor{err: failure}, nil, nil).Scrape(context.Background(), "emails", "example.com")
	assert.ErrorIs(t, err, orchestrator.ErrSafetyRejected)
	assert.NotErrorIs(t, err, ErrGenerate)
}

func TestRun(t *testing.T) {
	exec := &fakeExecutor{records: []map[string]any{{"title": "Example"}}, attempts: 1}
	svc := New(nil, exec, nil, nil)

	res, err := svc.Run(context.Background(), "results.push({title: 'Example'})", "example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "https://example.com", exec.url)

	_, err = svc.Run(context.Background(), "  ", "example.com")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
