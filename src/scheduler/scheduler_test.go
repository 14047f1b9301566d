package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) RecentTickers(within time.Duration) []string {
	args := m.Called(within)
	tickers, _ := args.Get(0).([]string)
	return tickers
}

func (m *mockRefresher) Refresh(ctx context.Context, tickers []string) int {
	args := m.Called(ctx, tickers)
	return args.Int(0)
}

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Run() error   { j.runs++; return j.err }
func (j *countingJob) Name() string { return "counting" }

func TestQuoteWarmer_RefreshesRecentTickers(t *testing.T) {
	refresher := new(mockRefresher)
	refresher.On("RecentTickers", 30*time.Minute).Return([]string{"PETR4", "VALE3"})
	refresher.On("Refresh", mock.Anything, []string{"PETR4", "VALE3"}).Return(2)

	warmer := NewQuoteWarmer(refresher, 30*time.Minute)
	require.NoError(t, warmer.Run())
	assert.Equal(t, "quote_warmer", warmer.Name())
	refresher.AssertExpectations(t)
}

func TestQuoteWarmer_NothingToWarm(t *testing.T) {
	refresher := new(mockRefresher)
	refresher.On("RecentTickers", time.Hour).Return(nil)

	require.NoError(t, NewQuoteWarmer(refresher, time.Hour).Run())
	refresher.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestScheduler_AddJob(t *testing.T) {
	s := New()
	job := &countingJob{}

	for _, schedule := range []string{"@every 5m", "*/10 * * * *", "0 */5 * * * *"} {
		assert.NoError(t, s.AddJob(schedule, job), schedule)
	}
	assert.Error(t, s.AddJob("every five minutes", job))
	assert.Len(t, s.cron.Entries(), 3)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New()
	job := &countingJob{err: errors.New("upstream down")}

	assert.EqualError(t, s.RunNow(job), "upstream down")
	assert.Equal(t, 1, job.runs)
}
