// src/services/quote_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/patrickmn/go-cache"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

var ErrQuoteNotFound = errors.New("quote not found")

// Quote is the latest market data for one ticker.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Timestamp     string  `json:"timestamp"`
}

// --- API Response Structs ---

type brapiQuoteResponse struct {
	Results []struct {
		Symbol                     string          `json:"symbol"`
		RegularMarketPrice         float64         `json:"regularMarketPrice"`
		RegularMarketChange        float64         `json:"regularMarketChange"`
		RegularMarketChangePercent float64         `json:"regularMarketChangePercent"`
		RegularMarketTime          json.RawMessage `json:"regularMarketTime"`
	} `json:"results"`
}

// QuoteConfig configures the quotes client.
type QuoteConfig struct {
	BaseURL   string
	Token     string
	BatchSize int
	CacheTTL  time.Duration
	// RequestsPerSecond paces upstream calls. Zero means 10.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// QuoteService fetches quotes from the Brapi API. Results are cached and
// every ticker asked for is remembered so the warmer can refresh it.
type QuoteService struct {
	baseURL    string
	token      string
	batchSize  int
	httpClient *http.Client
	cache      *cache.Cache
	limiter    *rate.Limiter
	now        func() time.Time

	mu     sync.Mutex
	recent map[string]time.Time
}

func NewQuoteService(cfg QuoteConfig) *QuoteService {
	client := cfg.HTTPClient
	if client == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			logger.L.Error("Failed to create cookie jar", "error", err)
		}
		client = &http.Client{Jar: jar, Timeout: 20 * time.Second}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	return &QuoteService{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		batchSize:  cfg.BatchSize,
		httpClient: client,
		cache:      cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		limiter:    rate.NewLimiter(rate.Limit(rps), cfg.BatchSize),
		now:        time.Now,
		recent:     make(map[string]time.Time),
	}
}

// NormalizeTicker upper-cases and drops the B3 ".SA" suffix the API does not use.
func NormalizeTicker(ticker string) string {
	return strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(ticker)), ".SA")
}

// GetQuote returns the cached quote or fetches it.
func (s *QuoteService) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	symbol := NormalizeTicker(ticker)
	if symbol == "" {
		return nil, ErrQuoteNotFound
	}
	s.remember(symbol)

	if cached, found := s.cache.Get(symbol); found {
		q := cached.(Quote)
		return &q, nil
	}
	q, err := s.fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(symbol, *q)
	return q, nil
}

// GetQuotes fetches tickers in batches of BatchSize, one goroutine per
// ticker inside a batch. A failing ticker is logged and left out of the map.
func (s *QuoteService) GetQuotes(ctx context.Context, tickers []string) map[string]Quote {
	quotes := make(map[string]Quote)
	symbols := uniqueSymbols(tickers)

	var mu sync.Mutex
	for start := 0; start < len(symbols); start += s.batchSize {
		end := min(start+s.batchSize, len(symbols))

		var wg sync.WaitGroup
		for _, symbol := range symbols[start:end] {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				q, err := s.GetQuote(ctx, symbol)
				if err != nil {
					logger.FromContext(ctx).Warn("Could not get quote for ticker", "ticker", symbol, "error", err)
					return
				}
				mu.Lock()
				quotes[symbol] = *q
				mu.Unlock()
			}(symbol)
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}
	}
	return quotes
}

// RecentTickers lists tickers requested within the given window, sorted.
func (s *QuoteService) RecentTickers(within time.Duration) []string {
	cutoff := s.now().Add(-within)
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for symbol, seen := range s.recent {
		if seen.Before(cutoff) {
			delete(s.recent, symbol)
			continue
		}
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Refresh re-fetches the given tickers, replacing cached entries. Returns
// how many were refreshed.
func (s *QuoteService) Refresh(ctx context.Context, tickers []string) int {
	for _, symbol := range uniqueSymbols(tickers) {
		s.cache.Delete(symbol)
	}
	return len(s.GetQuotes(ctx, tickers))
}

func (s *QuoteService) remember(symbol string) {
	s.mu.Lock()
	s.recent[symbol] = s.now()
	s.mu.Unlock()
}

func (s *QuoteService) fetch(ctx context.Context, symbol string) (*Quote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("range", "1d")
	q.Set("interval", "1d")
	if s.token != "" {
		q.Set("token", s.token)
	}
	quoteURL := fmt.Sprintf("%s/quote/%s?%s", s.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call quotes API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrQuoteNotFound
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("quotes API returned non-OK status %d for %s", resp.StatusCode, symbol)
	}

	var data brapiQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode quotes response: %w", err)
	}
	if len(data.Results) == 0 {
		return nil, ErrQuoteNotFound
	}

	r := data.Results[0]
	return &Quote{
		Symbol:        symbol,
		Price:         r.RegularMarketPrice,
		Change:        r.RegularMarketChange,
		ChangePercent: r.RegularMarketChangePercent,
		Timestamp:     s.marketTime(r.RegularMarketTime),
	}, nil
}

// marketTime accepts the ISO string the API usually sends, or unix seconds.
func (s *QuoteService) marketTime(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil && str != "" {
		return str
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil && secs > 0 {
		return time.Unix(int64(secs), 0).UTC().Format(time.RFC3339)
	}
	return s.now().UTC().Format(time.RFC3339)
}

func uniqueSymbols(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	var out []string
	for _, t := range tickers {
		symbol := NormalizeTicker(t)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		out = append(out, symbol)
	}
	return out
}
