package screening

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks WatchlistClient

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sdnguard/internal/sanctions/models"
	"sdnguard/internal/sanctions/screening/mocks"
	"sdnguard/internal/sanctions/watchlist"
)

// =============================================================================
// Screening Service Test Suite
// =============================================================================
// The provider is mocked so these tests pin down how lookup outcomes become
// verdicts and how batches aggregate them.

type ScreeningServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockClient *mocks.MockWatchlistClient
	service    *Service
}

func TestScreeningServiceSuite(t *testing.T) {
	suite.Run(t, new(ScreeningServiceSuite))
}

func (s *ScreeningServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockClient = mocks.NewMockWatchlistClient(s.ctrl)
	var err error
	s.service, err = New(s.mockClient, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
}

func (s *ScreeningServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func records(n int) []models.WatchlistRecord {
	out := make([]models.WatchlistRecord, n)
	for i := range out {
		out[i] = models.WatchlistRecord{ID: string(rune('a' + i)), Name: "match"}
	}
	return out
}

func queryFor(name string, fuzzy bool) watchlist.LookupQuery {
	return watchlist.LookupQuery{Name: name}.WithFuzzy(fuzzy)
}

// =============================================================================
// Constructor
// =============================================================================

func (s *ScreeningServiceSuite) TestNew() {
	s.Run("nil client returns error", func() {
		_, err := New(nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "watchlist client is required")
	})

	s.Run("max in flight defaults and applies", func() {
		svc, err := New(s.mockClient)
		s.Require().NoError(err)
		s.Equal(DefaultMaxInFlight, svc.MaxInFlight())

		svc, err = New(s.mockClient, WithMaxInFlight(3))
		s.Require().NoError(err)
		s.Equal(3, svc.MaxInFlight())

		svc, err = New(s.mockClient, WithMaxInFlight(0))
		s.Require().NoError(err)
		s.Equal(DefaultMaxInFlight, svc.MaxInFlight())
	})
}

// =============================================================================
// Evaluate
// =============================================================================

func (s *ScreeningServiceSuite) TestEvaluate() {
	ctx := context.Background()

	s.Run("empty provider result is clear", func() {
		s.mockClient.EXPECT().Lookup(gomock.Any(), queryFor("Jane Doe", true)).
			Return(models.NewLookupResult(nil))

		res := s.service.Evaluate(ctx, "Jane Doe", true)

		s.Require().NotNil(res.IsSDN)
		s.False(*res.IsSDN)
		s.Equal(models.RiskClear, res.RiskLevel)
		s.Equal(0, res.MatchCount)
		s.Empty(res.Error)
	})

	s.Run("k matches are critical with all matches returned", func() {
		s.mockClient.EXPECT().Lookup(gomock.Any(), queryFor("Ali Hassan", true)).
			Return(models.NewLookupResult(records(3)))

		res := s.service.Evaluate(ctx, "Ali Hassan", true)

		s.Require().NotNil(res.IsSDN)
		s.True(*res.IsSDN)
		s.Equal(models.RiskCritical, res.RiskLevel)
		s.Equal(3, res.MatchCount)
		s.Len(res.Matches, 3)
	})

	s.Run("provider failure is unknown with error", func() {
		s.mockClient.EXPECT().Lookup(gomock.Any(), gomock.Any()).
			Return(models.FailedLookup("sanctions provider returned HTTP 500 Internal Server Error"))

		res := s.service.Evaluate(ctx, "X", true)

		s.Nil(res.IsSDN)
		s.Equal(models.RiskUnknown, res.RiskLevel)
		s.Equal("sanctions provider returned HTTP 500 Internal Server Error", res.Error)
		s.Empty(res.Matches)
	})

	s.Run("fuzzy flag is passed through", func() {
		s.mockClient.EXPECT().Lookup(gomock.Any(), queryFor("Exact Name", false)).
			Return(models.NewLookupResult(nil))

		res := s.service.Evaluate(ctx, "Exact Name", false)
		s.Equal(models.RiskClear, res.RiskLevel)
	})

	s.Run("blank name is rejected without a lookup", func() {
		res := s.service.Evaluate(ctx, "   ", true)

		s.Nil(res.IsSDN)
		s.Equal(models.RiskUnknown, res.RiskLevel)
		s.Equal(ErrMsgNameRequired, res.Error)
	})

	s.Run("panicking client becomes unknown", func() {
		s.mockClient.EXPECT().Lookup(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, watchlist.LookupQuery) models.LookupResult {
				panic("nil map")
			})

		var res models.CustomerCheckResult
		s.NotPanics(func() { res = s.service.Evaluate(ctx, "X", true) })
		s.Equal(models.RiskUnknown, res.RiskLevel)
		s.Contains(res.Error, "nil map")
	})
}

// =============================================================================
// BulkEvaluate
// =============================================================================

func (s *ScreeningServiceSuite) TestBulkEvaluateRejectsEmptyInput() {
	for name, input := range map[string][]string{"nil": nil, "empty": {}} {
		s.Run(name, func() {
			// No EXPECT: any Lookup call fails the test.
			res := s.service.BulkEvaluate(context.Background(), input)

			s.False(res.Success)
			s.Equal(ErrMsgEmptyBatch, res.Error)
			s.Equal(0, res.TotalChecked)
			s.Equal(0, res.FlaggedCount)
			s.NotNil(res.Results)
			s.Empty(res.Results)
			s.Equal(models.Summary{}, res.Summary)
		})
	}
}

func (s *ScreeningServiceSuite) TestBulkEvaluateMixedBatch() {
	names := []string{"Jane Doe", "Known Sanctioned Entity", "John Smith"}
	s.mockClient.EXPECT().Lookup(gomock.Any(), queryFor("Jane Doe", true)).Return(models.NewLookupResult(nil))
	s.mockClient.EXPECT().Lookup(gomock.Any(), queryFor("Known Sanctioned Entity", true)).Return(models.NewLookupResult(records(1)))
	s.mockClient.EXPECT().Lookup(gomock.Any(), queryFor("John Smith", true)).Return(models.NewLookupResult(nil))

	res := s.service.BulkEvaluate(context.Background(), names)

	s.True(res.Success)
	s.Equal(3, res.TotalChecked)
	s.Equal(1, res.FlaggedCount)
	s.Equal(models.Summary{Critical: 1, Clear: 2, Unknown: 0}, res.Summary)
	s.Equal(models.RiskCritical, res.Results[1].RiskLevel)
	for i, name := range names {
		s.Equal(name, res.Results[i].CustomerName)
	}
}

func (s *ScreeningServiceSuite) TestBulkEvaluateProviderUnreachable() {
	s.mockClient.EXPECT().Lookup(gomock.Any(), gomock.Any()).
		Return(models.FailedLookup("sanctions provider request failed: connection refused")).
		Times(3)

	res := s.service.BulkEvaluate(context.Background(), []string{"a", "b", "c"})

	s.True(res.Success)
	s.Equal(models.Summary{Critical: 0, Clear: 0, Unknown: 3}, res.Summary)
	s.Equal(0, res.FlaggedCount)
	for _, r := range res.Results {
		s.Nil(r.IsSDN)
		s.NotEmpty(r.Error)
	}
}

func (s *ScreeningServiceSuite) TestBulkEvaluatePartialFailure() {
	s.mockClient.EXPECT().Lookup(gomock.Any(), queryFor("ok", true)).Return(models.NewLookupResult(nil))
	s.mockClient.EXPECT().Lookup(gomock.Any(), queryFor("bad", true)).
		DoAndReturn(func(context.Context, watchlist.LookupQuery) models.LookupResult {
			panic("boom")
		})

	res := s.service.BulkEvaluate(context.Background(), []string{"ok", "bad"})

	s.True(res.Success)
	s.Equal(models.RiskClear, res.Results[0].RiskLevel)
	s.Equal(models.RiskUnknown, res.Results[1].RiskLevel)
	s.Equal(res.TotalChecked, res.Summary.Critical+res.Summary.Clear+res.Summary.Unknown)
}

// =============================================================================
// Concurrency
// =============================================================================

// slowClient answers after a per-name delay and tracks peak concurrency.
type slowClient struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    atomic.Int32
	delay    func(name string) time.Duration
	matches  map[string]int
}

func (c *slowClient) Lookup(ctx context.Context, q watchlist.LookupQuery) models.LookupResult {
	c.calls.Add(1)
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.peak {
		c.peak = c.inFlight
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	select {
	case <-time.After(c.delay(q.Name)):
	case <-ctx.Done():
		return models.FailedLookup("sanctions provider request failed: " + ctx.Err().Error())
	}
	return models.NewLookupResult(records(c.matches[q.Name]))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBulkEvaluatePreservesOrderUnderReorderedCompletion(t *testing.T) {
	names := []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6", "n7"}
	client := &slowClient{
		// Later names finish first.
		delay:   func(name string) time.Duration { return time.Duration(8-int(name[1]-'0')) * 5 * time.Millisecond },
		matches: map[string]int{"n2": 2, "n5": 1},
	}
	svc, err := New(client, WithLogger(quietLogger()))
	require.NoError(t, err)

	res := svc.BulkEvaluate(context.Background(), names)

	require.Equal(t, len(names), res.TotalChecked)
	require.Len(t, res.Results, len(names))
	for i, name := range names {
		assert.Equal(t, name, res.Results[i].CustomerName, "result %d", i)
	}
	assert.Equal(t, 2, res.Results[2].MatchCount, "matches attached to the right name")
	assert.Equal(t, 1, res.Results[5].MatchCount, "matches attached to the right name")
	assert.Equal(t, 2, res.FlaggedCount)
}

func TestBulkEvaluateBoundsConcurrency(t *testing.T) {
	client := &slowClient{delay: func(string) time.Duration { return 10 * time.Millisecond }}
	svc, err := New(client, WithMaxInFlight(3), WithLogger(quietLogger()))
	require.NoError(t, err)

	names := make([]string, 20)
	for i := range names {
		names[i] = "name"
	}
	res := svc.BulkEvaluate(context.Background(), names)

	assert.EqualValues(t, 20, client.calls.Load())
	client.mu.Lock()
	peak := client.peak
	client.mu.Unlock()
	assert.LessOrEqual(t, peak, 3, "concurrent lookups above the limit")
	assert.Equal(t, 20, res.Summary.Clear)
}

func TestBulkEvaluateCancelledContextYieldsUnknown(t *testing.T) {
	client := &slowClient{delay: func(string) time.Duration { return time.Second }}
	svc, err := New(client, WithLogger(quietLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := svc.BulkEvaluate(ctx, []string{"a", "b"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.Summary.Unknown)
}
