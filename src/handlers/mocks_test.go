package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/processors"
	"github.com/cgscacau/yieldlab/src/security"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/utils"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Discard()
}

type mockPortfolioService struct {
	mock.Mock
}

var _ services.PortfolioService = (*mockPortfolioService)(nil)

func ptr[T any](args mock.Arguments, i int) *T {
	v, _ := args.Get(i).(*T)
	return v
}

func (m *mockPortfolioService) ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).([]models.Portfolio)
	return v, args.Error(1)
}
func (m *mockPortfolioService) CreatePortfolio(ctx context.Context, userID, name, description string) (*models.Portfolio, error) {
	args := m.Called(ctx, userID, name, description)
	return ptr[models.Portfolio](args, 0), args.Error(1)
}
func (m *mockPortfolioService) GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	args := m.Called(ctx, userID, portfolioID)
	return ptr[models.Portfolio](args, 0), args.Error(1)
}
func (m *mockPortfolioService) UpdatePortfolio(ctx context.Context, userID, portfolioID string, upd models.PortfolioUpdate) (*models.Portfolio, error) {
	args := m.Called(ctx, userID, portfolioID, upd)
	return ptr[models.Portfolio](args, 0), args.Error(1)
}
func (m *mockPortfolioService) DeletePortfolio(ctx context.Context, userID, portfolioID string) (*models.CascadeResult, error) {
	args := m.Called(ctx, userID, portfolioID)
	return ptr[models.CascadeResult](args, 0), args.Error(1)
}
func (m *mockPortfolioService) ListAssets(ctx context.Context, userID, portfolioID string) ([]models.Asset, error) {
	args := m.Called(ctx, userID, portfolioID)
	v, _ := args.Get(0).([]models.Asset)
	return v, args.Error(1)
}
func (m *mockPortfolioService) CreateAsset(ctx context.Context, userID string, in services.AssetInput) (*models.Asset, error) {
	args := m.Called(ctx, userID, in)
	return ptr[models.Asset](args, 0), args.Error(1)
}
func (m *mockPortfolioService) UpdateAsset(ctx context.Context, userID, assetID string, upd models.AssetUpdate) (*models.Asset, error) {
	args := m.Called(ctx, userID, assetID, upd)
	return ptr[models.Asset](args, 0), args.Error(1)
}
func (m *mockPortfolioService) DeleteAsset(ctx context.Context, userID, assetID string) error {
	return m.Called(ctx, userID, assetID).Error(0)
}
func (m *mockPortfolioService) RecalculateAsset(ctx context.Context, userID, assetID string) (*models.Asset, error) {
	args := m.Called(ctx, userID, assetID)
	return ptr[models.Asset](args, 0), args.Error(1)
}
func (m *mockPortfolioService) ListTransactions(ctx context.Context, userID, portfolioID string) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, portfolioID)
	v, _ := args.Get(0).([]models.Transaction)
	return v, args.Error(1)
}
func (m *mockPortfolioService) CreateTransaction(ctx context.Context, userID string, in services.TransactionInput) (*models.Transaction, error) {
	args := m.Called(ctx, userID, in)
	return ptr[models.Transaction](args, 0), args.Error(1)
}
func (m *mockPortfolioService) DeleteTransaction(ctx context.Context, userID, portfolioID, transactionID string) error {
	return m.Called(ctx, userID, portfolioID, transactionID).Error(0)
}
func (m *mockPortfolioService) ListDividends(ctx context.Context, userID, portfolioID string) ([]models.Dividend, error) {
	args := m.Called(ctx, userID, portfolioID)
	v, _ := args.Get(0).([]models.Dividend)
	return v, args.Error(1)
}
func (m *mockPortfolioService) CreateDividend(ctx context.Context, userID string, in services.DividendInput) (*models.Dividend, error) {
	args := m.Called(ctx, userID, in)
	return ptr[models.Dividend](args, 0), args.Error(1)
}
func (m *mockPortfolioService) DeleteDividend(ctx context.Context, userID, portfolioID, dividendID string) error {
	return m.Called(ctx, userID, portfolioID, dividendID).Error(0)
}
func (m *mockPortfolioService) Metrics(ctx context.Context, userID, portfolioID string) (*models.PortfolioReport, error) {
	args := m.Called(ctx, userID, portfolioID)
	return ptr[models.PortfolioReport](args, 0), args.Error(1)
}
func (m *mockPortfolioService) Evolution(ctx context.Context, userID, portfolioID string, kind processors.EvolutionKind) ([]models.MonthlyPoint, error) {
	args := m.Called(ctx, userID, portfolioID, kind)
	v, _ := args.Get(0).([]models.MonthlyPoint)
	return v, args.Error(1)
}
func (m *mockPortfolioService) EstimateTax(kind processors.TaxKind, amount float64) (*services.TaxEstimate, error) {
	args := m.Called(kind, amount)
	return ptr[services.TaxEstimate](args, 0), args.Error(1)
}
func (m *mockPortfolioService) UpdateQuotes(ctx context.Context, userID, portfolioID string) (*models.QuoteRefreshResult, error) {
	args := m.Called(ctx, userID, portfolioID)
	return ptr[models.QuoteRefreshResult](args, 0), args.Error(1)
}
func (m *mockPortfolioService) ImportCSV(ctx context.Context, userID, portfolioID, csvData string, commit bool) (*models.ImportResult, error) {
	args := m.Called(ctx, userID, portfolioID, csvData, commit)
	return ptr[models.ImportResult](args, 0), args.Error(1)
}

type mockQuotes struct {
	mock.Mock
}

func (m *mockQuotes) GetQuote(ctx context.Context, ticker string) (*services.Quote, error) {
	args := m.Called(ctx, ticker)
	return ptr[services.Quote](args, 0), args.Error(1)
}

func (m *mockQuotes) GetQuotes(ctx context.Context, tickers []string) map[string]services.Quote {
	args := m.Called(ctx, tickers)
	v, _ := args.Get(0).(map[string]services.Quote)
	return v
}

type stubVerifier struct {
	identity *security.Identity
	err      error
	seen     string
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*security.Identity, error) {
	s.seen = token
	return s.identity, s.err
}

// serve routes a single request through chi so URL params resolve, with
// userID already in the context.
func serve(t *testing.T, method, pattern, target string, body io.Reader, userID string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req = req.WithContext(WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) utils.Envelope {
	t.Helper()
	var raw struct {
		utils.Envelope
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Envelope
}
