package handlers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/processors"
	"github.com/cgscacau/yieldlab/src/security"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var data map[string]string
	env := decodeEnvelope(t, rec, &data)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, ServiceName, data["service"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestPortfolioManager_RequiresUser(t *testing.T) {
	h := NewPortfolioManagerHandler(new(mockPortfolioService))
	rec := serve(t, http.MethodGet, "/api/portfolios", "/api/portfolios", nil, "", h.ListPortfolios)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPortfolioManager_ListEmptyIsArray(t *testing.T) {
	svc := new(mockPortfolioService)
	svc.On("ListPortfolios", mock.Anything, "u1").Return(nil, nil)
	h := NewPortfolioManagerHandler(svc)

	rec := serve(t, http.MethodGet, "/api/portfolios", "/api/portfolios", nil, "u1", h.ListPortfolios)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())
}

func TestPortfolioManager_Create(t *testing.T) {
	svc := new(mockPortfolioService)
	svc.On("CreatePortfolio", mock.Anything, "u1", "Ações", "").
		Return(&models.Portfolio{ID: "portfolio_1", UserID: "u1", Name: "Ações"}, nil)
	h := NewPortfolioManagerHandler(svc)

	missing := serve(t, http.MethodPost, "/api/portfolios", "/api/portfolios", strings.NewReader(`{"description":"x"}`), "u1", h.CreatePortfolio)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, "Nome do portfólio é obrigatório", decodeEnvelope(t, missing, nil).Error)

	rec := serve(t, http.MethodPost, "/api/portfolios", "/api/portfolios", strings.NewReader(`{"name":"Ações"}`), "u1", h.CreatePortfolio)
	require.Equal(t, http.StatusCreated, rec.Code)
	var p models.Portfolio
	env := decodeEnvelope(t, rec, &p)
	assert.Equal(t, "portfolio_1", p.ID)
	assert.Equal(t, "Portfólio criado com sucesso", env.Message)
	svc.AssertExpectations(t)
}

func TestPortfolioManager_ErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{services.ErrAccessDenied, http.StatusForbidden, "Acesso negado"},
		{fmt.Errorf("%w: name cannot be empty", services.ErrValidation), http.StatusBadRequest, "name cannot be empty"},
		{fmt.Errorf("listing portfolios: upstream 500"), http.StatusInternalServerError, "Erro ao buscar portfólio"},
	}
	for _, tt := range tests {
		svc := new(mockPortfolioService)
		svc.On("GetPortfolio", mock.Anything, "u1", "p9").Return(nil, tt.err)
		h := NewPortfolioManagerHandler(svc)

		rec := serve(t, http.MethodGet, "/api/portfolios/{id}", "/api/portfolios/p9", nil, "u1", h.GetPortfolio)
		assert.Equal(t, tt.status, rec.Code)
		assert.Equal(t, tt.message, decodeEnvelope(t, rec, nil).Error)
	}
}

func TestPortfolioManager_DeleteReportsCascade(t *testing.T) {
	svc := new(mockPortfolioService)
	svc.On("DeletePortfolio", mock.Anything, "u1", "p1").
		Return(&models.CascadeResult{Assets: 2, Transactions: 5, Dividends: 1}, nil)
	h := NewPortfolioManagerHandler(svc)

	rec := serve(t, http.MethodDelete, "/api/portfolios/{id}", "/api/portfolios/p1", nil, "u1", h.DeletePortfolio)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.CascadeResult
	decodeEnvelope(t, rec, &res)
	assert.Equal(t, 5, res.Transactions)
}

func TestPortfolioHandler_MetricsETag(t *testing.T) {
	report := &models.PortfolioReport{Metrics: models.PortfolioMetrics{TotalInvested: 1000, CurrentValue: 1100}}
	svc := new(mockPortfolioService)
	svc.On("Metrics", mock.Anything, "u1", "p1").Return(report, nil)
	h := NewPortfolioHandler(svc)

	first := serve(t, http.MethodGet, "/api/metrics/{portfolioId}", "/api/metrics/p1", nil, "u1", h.HandleGetMetrics)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)
	var got models.PortfolioReport
	decodeEnvelope(t, first, &got)
	assert.Equal(t, 1100.0, got.Metrics.CurrentValue)

	r := chi.NewRouter()
	r.Get("/api/metrics/{portfolioId}", h.HandleGetMetrics)
	req := httptest.NewRequest(http.MethodGet, "/api/metrics/p1", nil)
	req.Header.Set("If-None-Match", `"stale", `+etag)
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.Bytes())
}

func TestPortfolioHandler_EvolutionDefaultsToPatrimony(t *testing.T) {
	svc := new(mockPortfolioService)
	svc.On("Evolution", mock.Anything, "u1", "p1", processors.EvolutionPatrimony).
		Return([]models.MonthlyPoint{{Month: "2024-01", Value: 100}}, nil)
	svc.On("Evolution", mock.Anything, "u1", "p1", processors.EvolutionKind("yearly")).
		Return(nil, fmt.Errorf("%w: unknown evolution kind", services.ErrValidation))
	h := NewPortfolioHandler(svc)

	rec := serve(t, http.MethodGet, "/api/evolution/{portfolioId}", "/api/evolution/p1", nil, "u1", h.HandleGetEvolution)
	require.Equal(t, http.StatusOK, rec.Code)
	var points []models.MonthlyPoint
	decodeEnvelope(t, rec, &points)
	assert.Equal(t, "2024-01", points[0].Month)

	bad := serve(t, http.MethodGet, "/api/evolution/{portfolioId}", "/api/evolution/p1?kind=yearly", nil, "u1", h.HandleGetEvolution)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestPortfolioHandler_EstimateTax(t *testing.T) {
	svc := new(mockPortfolioService)
	svc.On("EstimateTax", processors.TaxJSCP, 200.0).
		Return(&services.TaxEstimate{Kind: processors.TaxJSCP, Amount: 200, Tax: 30, Net: 170}, nil)
	h := NewPortfolioHandler(svc)

	missing := serve(t, http.MethodPost, "/api/tax/estimate", "/api/tax/estimate", strings.NewReader(`{"kind":"jscp"}`), "u1", h.HandleEstimateTax)
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	rec := serve(t, http.MethodPost, "/api/tax/estimate", "/api/tax/estimate", strings.NewReader(`{"kind":"jscp","amount":200}`), "u1", h.HandleEstimateTax)
	require.Equal(t, http.StatusOK, rec.Code)
	var est services.TaxEstimate
	decodeEnvelope(t, rec, &est)
	assert.Equal(t, 30.0, est.Tax)
}

func TestAssetHandler_CreateRequiresFields(t *testing.T) {
	svc := new(mockPortfolioService)
	in := services.AssetInput{PortfolioID: "p1", Ticker: "PETR4", Name: "Petrobras", Type: models.AssetStock}
	svc.On("CreateAsset", mock.Anything, "u1", in).Return(&models.Asset{ID: "asset_1", Ticker: "PETR4"}, nil)
	h := NewAssetHandler(svc)

	bad := serve(t, http.MethodPost, "/api/assets", "/api/assets", strings.NewReader(`{"portfolioId":"p1","ticker":"PETR4"}`), "u1", h.HandleCreateAsset)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "Campos obrigatórios: portfolioId, ticker, name, type", decodeEnvelope(t, bad, nil).Error)

	body := `{"portfolioId":"p1","ticker":"PETR4","name":"Petrobras","type":"stock"}`
	rec := serve(t, http.MethodPost, "/api/assets", "/api/assets", strings.NewReader(body), "u1", h.HandleCreateAsset)
	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestAssetHandler_UpdateAndRecalculate(t *testing.T) {
	price := 31.2
	svc := new(mockPortfolioService)
	svc.On("UpdateAsset", mock.Anything, "u1", "a1", models.AssetUpdate{CurrentPrice: &price}).
		Return(&models.Asset{ID: "a1", CurrentPrice: 31.2}, nil)
	svc.On("RecalculateAsset", mock.Anything, "u1", "a1").
		Return(nil, fmt.Errorf("%w: asset PETR4 has no transactions", services.ErrValidation))
	h := NewAssetHandler(svc)

	rec := serve(t, http.MethodPatch, "/api/assets/{id}", "/api/assets/a1", strings.NewReader(`{"currentPrice":31.2}`), "u1", h.HandleUpdateAsset)
	assert.Equal(t, http.StatusOK, rec.Code)

	recalc := serve(t, http.MethodPost, "/api/assets/{id}/recalculate", "/api/assets/a1/recalculate", nil, "u1", h.HandleRecalculateAsset)
	assert.Equal(t, http.StatusBadRequest, recalc.Code)
	assert.Equal(t, "asset PETR4 has no transactions", decodeEnvelope(t, recalc, nil).Error)
}

func TestTransactionHandler_Add(t *testing.T) {
	svc := new(mockPortfolioService)
	in := services.TransactionInput{PortfolioID: "p1", AssetID: "a1", Ticker: "ITSA4", Type: models.TxBonification, Quantity: 3, Price: 0, Date: "2024-04-01"}
	svc.On("CreateTransaction", mock.Anything, "u1", in).Return(&models.Transaction{ID: "tx_1", Ticker: "ITSA4", Type: models.TxBonification}, nil)
	h := NewTransactionHandler(svc)

	missingPrice := `{"portfolioId":"p1","assetId":"a1","ticker":"ITSA4","type":"bonification","quantity":3,"date":"2024-04-01"}`
	bad := serve(t, http.MethodPost, "/api/transactions", "/api/transactions", strings.NewReader(missingPrice), "u1", h.HandleAddTransaction)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	zeroPrice := `{"portfolioId":"p1","assetId":"a1","ticker":"ITSA4","type":"bonification","quantity":3,"price":0,"date":"2024-04-01"}`
	rec := serve(t, http.MethodPost, "/api/transactions", "/api/transactions", strings.NewReader(zeroPrice), "u1", h.HandleAddTransaction)
	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestTransactionHandler_DeleteNeedsPortfolio(t *testing.T) {
	svc := new(mockPortfolioService)
	svc.On("DeleteTransaction", mock.Anything, "u1", "p1", "tx_1").Return(services.ErrAccessDenied)
	h := NewTransactionHandler(svc)

	bad := serve(t, http.MethodDelete, "/api/transactions/{id}", "/api/transactions/tx_1", nil, "u1", h.HandleDeleteTransaction)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "portfolioId é obrigatório", decodeEnvelope(t, bad, nil).Error)

	denied := serve(t, http.MethodDelete, "/api/transactions/{id}", "/api/transactions/tx_1?portfolioId=p1", nil, "u1", h.HandleDeleteTransaction)
	assert.Equal(t, http.StatusForbidden, denied.Code)
}

func TestDividendHandler_AddAndList(t *testing.T) {
	svc := new(mockPortfolioService)
	in := services.DividendInput{PortfolioID: "p1", AssetID: "a1", Ticker: "BBAS3", Type: models.DividendJSCP, Amount: 100, Quantity: 10, PaymentDate: "2024-05-20"}
	svc.On("CreateDividend", mock.Anything, "u1", in).Return(&models.Dividend{ID: "div_1", TaxAmount: 15, NetAmount: 85}, nil)
	svc.On("ListDividends", mock.Anything, "u1", "p1").Return(nil, nil)
	h := NewDividendHandler(svc)

	body := `{"portfolioId":"p1","assetId":"a1","ticker":"BBAS3","type":"jscp","amount":100,"quantity":10,"paymentDate":"2024-05-20"}`
	rec := serve(t, http.MethodPost, "/api/dividends", "/api/dividends", strings.NewReader(body), "u1", h.HandleAddDividend)
	require.Equal(t, http.StatusCreated, rec.Code)
	var d models.Dividend
	decodeEnvelope(t, rec, &d)
	assert.Equal(t, 85.0, d.NetAmount)

	list := serve(t, http.MethodGet, "/api/dividends/{portfolioId}", "/api/dividends/p1", nil, "u1", h.HandleListDividends)
	assert.JSONEq(t, `{"success":true,"data":[]}`, list.Body.String())
}

func TestUploadHandler_JSONPreview(t *testing.T) {
	csv := "date,ticker,type,quantity,price\n2024-01-01,PETR4,buy,10,30.5"
	svc := new(mockPortfolioService)
	svc.On("ImportCSV", mock.Anything, "u1", "p1", csv, false).Return(&models.ImportResult{
		Imported: []models.ImportedRow{{Line: 2, Date: "2024-01-01", Ticker: "PETR4", Type: "buy", Quantity: 10, Price: 30.5}},
		Total:    1,
		Errors:   []string{},
	}, nil)
	h := NewUploadHandler(svc, 1<<20)

	missing := serve(t, http.MethodPost, "/api/import-csv", "/api/import-csv", strings.NewReader(`{"portfolioId":"p1"}`), "u1", h.HandleImportCSV)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, "portfolioId e csvData são obrigatórios", decodeEnvelope(t, missing, nil).Error)

	body := fmt.Sprintf(`{"portfolioId":"p1","csvData":%q}`, csv)
	rec := serve(t, http.MethodPost, "/api/import-csv", "/api/import-csv", strings.NewReader(body), "u1", h.HandleImportCSV)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.ImportResult
	env := decodeEnvelope(t, rec, &res)
	assert.Equal(t, "1 transações importadas", env.Message)
	assert.Equal(t, 30.5, res.Imported[0].Price)
}

func multipartUpload(t *testing.T, contentType string, content []byte, commit string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("portfolioId", "p1"))
	require.NoError(t, mw.WriteField("commit", commit))
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="extrato.csv"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadHandler_Multipart(t *testing.T) {
	csv := "date,ticker,type,quantity,price\n2024-01-01,PETR4,buy,10,30.5\n"
	svc := new(mockPortfolioService)
	svc.On("ImportCSV", mock.Anything, "u1", "p1", csv, true).Return(&models.ImportResult{Total: 1, Created: 1}, nil)
	h := NewUploadHandler(svc, 1<<20)

	send := func(contentType string, content []byte) *httptest.ResponseRecorder {
		body, formType := multipartUpload(t, contentType, content, "true")
		req := httptest.NewRequest(http.MethodPost, "/api/import-csv", body)
		req.Header.Set("Content-Type", formType)
		req = req.WithContext(WithUserID(context.Background(), "u1"))
		rec := httptest.NewRecorder()
		h.HandleImportCSV(rec, req)
		return rec
	}

	ok := send("text/csv; charset=utf-8", []byte(csv))
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "1 transações importadas, 1 gravadas", decodeEnvelope(t, ok, nil).Message)

	binary := send("text/csv", []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x00})
	assert.Equal(t, http.StatusBadRequest, binary.Code)

	sheet := send("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte(csv))
	assert.Equal(t, http.StatusBadRequest, sheet.Code)
	svc.AssertNumberOfCalls(t, "ImportCSV", 1)
}

func TestUploadHandler_MultipartWithoutFile(t *testing.T) {
	h := NewUploadHandler(new(mockPortfolioService), 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("portfolioId", "p1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import-csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(WithUserID(context.Background(), "u1"))
	rec := httptest.NewRecorder()
	h.HandleImportCSV(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errMissingFile.Error(), decodeEnvelope(t, rec, nil).Error)
}

func TestQuoteHandler(t *testing.T) {
	quotes := new(mockQuotes)
	quotes.On("GetQuote", mock.Anything, "PETR4").Return(&services.Quote{Symbol: "PETR4", Price: 36.1}, nil)
	quotes.On("GetQuote", mock.Anything, "NOPE3").Return(nil, services.ErrQuoteNotFound)
	svc := new(mockPortfolioService)
	svc.On("UpdateQuotes", mock.Anything, "u1", "p1").Return(&models.QuoteRefreshResult{Updated: 2, Total: 3, Updates: []models.QuoteUpdate{}}, nil)
	svc.On("UpdateQuotes", mock.Anything, "u1", "empty").Return(&models.QuoteRefreshResult{Updates: []models.QuoteUpdate{}}, nil)
	h := NewQuoteHandler(quotes, svc)

	rec := serve(t, http.MethodGet, "/api/quotes/{ticker}", "/api/quotes/PETR4", nil, "u1", h.HandleGetQuote)
	require.Equal(t, http.StatusOK, rec.Code)
	var q services.Quote
	decodeEnvelope(t, rec, &q)
	assert.Equal(t, 36.1, q.Price)

	missing := serve(t, http.MethodGet, "/api/quotes/{ticker}", "/api/quotes/NOPE3", nil, "u1", h.HandleGetQuote)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "Cotação não encontrada", decodeEnvelope(t, missing, nil).Error)

	upd := serve(t, http.MethodPost, "/api/quotes/update-portfolio/{portfolioId}", "/api/quotes/update-portfolio/p1", nil, "u1", h.HandleUpdatePortfolioQuotes)
	assert.Equal(t, "2 ativo(s) atualizado(s)", decodeEnvelope(t, upd, nil).Message)

	empty := serve(t, http.MethodPost, "/api/quotes/update-portfolio/{portfolioId}", "/api/quotes/update-portfolio/empty", nil, "u1", h.HandleUpdatePortfolioQuotes)
	assert.Equal(t, "Nenhum ativo para atualizar", decodeEnvelope(t, empty, nil).Message)
}

type stubAuth struct {
	signUpErr error
}

func (s *stubAuth) SignUp(ctx context.Context, email, password, displayName string) (*security.AuthSession, error) {
	if s.signUpErr != nil {
		return nil, s.signUpErr
	}
	return &security.AuthSession{IDToken: "id-tok", UID: "new-uid", Email: email, DisplayName: displayName}, nil
}

func (s *stubAuth) SignIn(ctx context.Context, email, password string) (*security.AuthSession, error) {
	if password != "secret1" {
		return nil, security.ErrInvalidCredentials
	}
	return &security.AuthSession{IDToken: "id-tok", UID: "uid-1", Email: email}, nil
}

func TestAuthHandler_Register(t *testing.T) {
	svc := new(mockPortfolioService)
	svc.On("CreatePortfolio", mock.Anything, "new-uid", DefaultPortfolioName, DefaultPortfolioDescription).
		Return(&models.Portfolio{ID: "portfolio_1"}, nil)
	h := NewAuthHandler(&stubAuth{}, svc)

	weak := serve(t, http.MethodPost, "/api/auth/register", "/api/auth/register", strings.NewReader(`{"email":"ana@example.com","password":"123"}`), "", h.HandleRegister)
	assert.Equal(t, http.StatusBadRequest, weak.Code)

	badEmail := serve(t, http.MethodPost, "/api/auth/register", "/api/auth/register", strings.NewReader(`{"email":"ana","password":"secret1"}`), "", h.HandleRegister)
	assert.Equal(t, http.StatusBadRequest, badEmail.Code)

	rec := serve(t, http.MethodPost, "/api/auth/register", "/api/auth/register", strings.NewReader(`{"email":" Ana@Example.com ","password":"secret1"}`), "", h.HandleRegister)
	require.Equal(t, http.StatusCreated, rec.Code)
	var session security.AuthSession
	decodeEnvelope(t, rec, &session)
	assert.Equal(t, "ana@example.com", session.Email)
	svc.AssertExpectations(t)

	dup := NewAuthHandler(&stubAuth{signUpErr: security.ErrEmailExists}, nil)
	conflict := serve(t, http.MethodPost, "/api/auth/register", "/api/auth/register", strings.NewReader(`{"email":"ana@example.com","password":"secret1"}`), "", dup.HandleRegister)
	assert.Equal(t, http.StatusConflict, conflict.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, nil)

	rec := serve(t, http.MethodPost, "/api/auth/login", "/api/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"secret1"}`), "", h.HandleLogin)
	assert.Equal(t, http.StatusOK, rec.Code)

	wrong := serve(t, http.MethodPost, "/api/auth/login", "/api/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"nope"}`), "", h.HandleLogin)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, "Invalid email or password", decodeEnvelope(t, wrong, nil).Error)
}
