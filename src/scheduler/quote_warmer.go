package scheduler

import (
	"context"
	"time"

	"github.com/cgscacau/yieldlab/src/logger"
)

// TickerRefresher is the part of the quotes client the warmer drives.
type TickerRefresher interface {
	RecentTickers(within time.Duration) []string
	Refresh(ctx context.Context, tickers []string) int
}

// QuoteWarmer re-fetches recently requested tickers so dashboard loads hit
// a warm quote cache.
type QuoteWarmer struct {
	quotes  TickerRefresher
	window  time.Duration
	timeout time.Duration
}

// NewQuoteWarmer only refreshes tickers asked for within window.
func NewQuoteWarmer(quotes TickerRefresher, window time.Duration) *QuoteWarmer {
	return &QuoteWarmer{quotes: quotes, window: window, timeout: 2 * time.Minute}
}

func (w *QuoteWarmer) Name() string { return "quote_warmer" }

func (w *QuoteWarmer) Run() error {
	tickers := w.quotes.RecentTickers(w.window)
	if len(tickers) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	refreshed := w.quotes.Refresh(ctx, tickers)
	logger.L.Info("Quote cache warmed", "requested", len(tickers), "refreshed", refreshed)
	return ctx.Err()
}
