// src/services/portfolio_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/model"
	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/parsers/csvimport"
	"github.com/cgscacau/yieldlab/src/processors"
	"github.com/cgscacau/yieldlab/src/security/validation"
	"github.com/cgscacau/yieldlab/src/utils"
)

type portfolioServiceImpl struct {
	repo      PortfolioRepository
	quotes    QuoteProvider
	metrics   processors.MetricsProcessor
	evolution processors.EvolutionProcessor
	txProc    *processors.TransactionProcessor
	parser    *csvimport.Parser
	now       func() time.Time
}

// NewPortfolioService wires the processors around a repository and a quote
// provider. now may be nil.
func NewPortfolioService(repo PortfolioRepository, quotes QuoteProvider, now func() time.Time) PortfolioService {
	if now == nil {
		now = time.Now
	}
	return &portfolioServiceImpl{
		repo:      repo,
		quotes:    quotes,
		metrics:   processors.NewMetricsProcessor(now),
		evolution: processors.NewEvolutionProcessor(),
		txProc:    processors.NewTransactionProcessor(),
		parser:    csvimport.NewParser(),
		now:       now,
	}
}

// --- Ownership ---

func (s *portfolioServiceImpl) ownedPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	if strings.TrimSpace(portfolioID) == "" {
		return nil, fmt.Errorf("%w: portfolioId is required", ErrValidation)
	}
	p, err := s.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	if p.UserID != userID {
		logger.FromContext(ctx).Warn("Portfolio access denied", "portfolioID", portfolioID, "ownerMismatch", true)
		return nil, ErrAccessDenied
	}
	return p, nil
}

func (s *portfolioServiceImpl) ownedAsset(ctx context.Context, userID, assetID string) (*models.Asset, error) {
	a, err := s.repo.GetAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	if a.UserID != userID {
		logger.FromContext(ctx).Warn("Asset access denied", "assetID", assetID)
		return nil, ErrAccessDenied
	}
	return a, nil
}

// --- Portfolios ---

func (s *portfolioServiceImpl) ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error) {
	return s.repo.ListPortfoliosByUser(ctx, userID)
}

func (s *portfolioServiceImpl) CreatePortfolio(ctx context.Context, userID, name, description string) (*models.Portfolio, error) {
	name = validation.SanitizeText(name)
	if err := validation.ValidateName(name, "name"); err != nil {
		return nil, err
	}
	description = validation.SanitizeText(description)
	if err := validation.ValidateStringMaxLength(description, validation.MaxDescriptionLength, "description"); err != nil {
		return nil, err
	}
	return s.repo.CreatePortfolio(ctx, models.Portfolio{UserID: userID, Name: name, Description: description})
}

func (s *portfolioServiceImpl) GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	return s.ownedPortfolio(ctx, userID, portfolioID)
}

func (s *portfolioServiceImpl) UpdatePortfolio(ctx context.Context, userID, portfolioID string, upd models.PortfolioUpdate) (*models.Portfolio, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := validation.SanitizeText(*upd.Name)
		if err := validation.ValidateName(name, "name"); err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if upd.Description != nil {
		desc := validation.SanitizeText(*upd.Description)
		if err := validation.ValidateStringMaxLength(desc, validation.MaxDescriptionLength, "description"); err != nil {
			return nil, err
		}
		upd.Description = &desc
	}
	return s.repo.UpdatePortfolio(ctx, portfolioID, upd)
}

// DeletePortfolio removes the portfolio's assets, transactions and dividends
// before the portfolio itself. Child failures are collected and do not stop
// the sweep.
func (s *portfolioServiceImpl) DeletePortfolio(ctx context.Context, userID, portfolioID string) (*models.CascadeResult, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	res := &models.CascadeResult{}

	txs, err := s.repo.ListTransactionsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if err := s.repo.DeleteTransaction(ctx, tx.ID); err != nil {
			res.Failures = append(res.Failures, tx.ID)
			continue
		}
		res.Transactions++
	}

	divs, err := s.repo.ListDividendsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	for _, d := range divs {
		if err := s.repo.DeleteDividend(ctx, d.ID); err != nil {
			res.Failures = append(res.Failures, d.ID)
			continue
		}
		res.Dividends++
	}

	assets, err := s.repo.ListAssetsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		if err := s.repo.DeleteAsset(ctx, a.ID); err != nil {
			res.Failures = append(res.Failures, a.ID)
			continue
		}
		res.Assets++
	}

	if err := s.repo.DeletePortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	if len(res.Failures) > 0 {
		log.Warn("Portfolio deleted with orphaned children", "portfolioID", portfolioID, "failures", len(res.Failures))
	}
	log.Info("Portfolio deleted", "portfolioID", portfolioID,
		"assets", res.Assets, "transactions", res.Transactions, "dividends", res.Dividends)
	return res, nil
}

// --- Assets ---

func (s *portfolioServiceImpl) ListAssets(ctx context.Context, userID, portfolioID string) ([]models.Asset, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	return s.repo.ListAssetsByPortfolio(ctx, portfolioID)
}

func (s *portfolioServiceImpl) CreateAsset(ctx context.Context, userID string, in AssetInput) (*models.Asset, error) {
	if _, err := s.ownedPortfolio(ctx, userID, in.PortfolioID); err != nil {
		return nil, err
	}

	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if err := validation.ValidateTicker(ticker); err != nil {
		return nil, err
	}
	name := validation.SanitizeText(in.Name)
	if err := validation.ValidateName(name, "name"); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: type %q is not a known asset type", ErrValidation, in.Type)
	}
	for field, v := range map[string]float64{"quantity": in.Quantity, "averageCost": in.AverageCost, "currentPrice": in.CurrentPrice} {
		if err := validation.ValidateNonNegative(v, field); err != nil {
			return nil, err
		}
	}

	purchaseDate := strings.TrimSpace(in.PurchaseDate)
	if purchaseDate == "" {
		purchaseDate = models.Timestamp(s.now())
	} else if _, err := validation.ValidateDateString(purchaseDate, "purchaseDate"); err != nil {
		return nil, err
	}

	asset := models.Asset{
		PortfolioID:  in.PortfolioID,
		UserID:       userID,
		Ticker:       ticker,
		Name:         name,
		Type:         in.Type,
		Quantity:     in.Quantity,
		AverageCost:  in.AverageCost,
		CurrentPrice: in.CurrentPrice,
		Sector:       validation.SanitizeText(in.Sector),
		PurchaseDate: purchaseDate,
	}
	asset.Sector = asset.SectorOrDefault()
	return s.repo.CreateAsset(ctx, asset)
}

func (s *portfolioServiceImpl) UpdateAsset(ctx context.Context, userID, assetID string, upd models.AssetUpdate) (*models.Asset, error) {
	if _, err := s.ownedAsset(ctx, userID, assetID); err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := validation.SanitizeText(*upd.Name)
		if err := validation.ValidateName(name, "name"); err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if upd.Type != nil && !upd.Type.Valid() {
		return nil, fmt.Errorf("%w: type %q is not a known asset type", ErrValidation, *upd.Type)
	}
	for field, v := range map[string]*float64{"quantity": upd.Quantity, "averageCost": upd.AverageCost, "currentPrice": upd.CurrentPrice} {
		if v == nil {
			continue
		}
		if err := validation.ValidateNonNegative(*v, field); err != nil {
			return nil, err
		}
	}
	if upd.Sector != nil {
		sector := validation.SanitizeText(*upd.Sector)
		if sector == "" {
			sector = models.DefaultSector
		}
		upd.Sector = &sector
	}
	if upd.PurchaseDate != nil {
		if _, err := validation.ValidateDateString(*upd.PurchaseDate, "purchaseDate"); err != nil {
			return nil, err
		}
	}
	return s.repo.UpdateAsset(ctx, assetID, upd)
}

func (s *portfolioServiceImpl) DeleteAsset(ctx context.Context, userID, assetID string) error {
	if _, err := s.ownedAsset(ctx, userID, assetID); err != nil {
		return err
	}
	return s.repo.DeleteAsset(ctx, assetID)
}

// RecalculateAsset rewrites quantity and average cost from the asset's
// transaction history.
func (s *portfolioServiceImpl) RecalculateAsset(ctx context.Context, userID, assetID string) (*models.Asset, error) {
	asset, err := s.ownedAsset(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactionsByPortfolio(ctx, asset.PortfolioID)
	if err != nil {
		return nil, err
	}
	history := processors.GroupByAsset(txs)[assetID]
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: asset %s has no transactions", ErrValidation, asset.Ticker)
	}
	return s.applyPosition(ctx, assetID, history)
}

func (s *portfolioServiceImpl) applyPosition(ctx context.Context, assetID string, history []models.Transaction) (*models.Asset, error) {
	pos := s.txProc.Replay(history)
	qty := utils.RoundFloat(pos.Quantity, 8)
	avg := utils.RoundFloat(pos.AverageCost, 6)
	return s.repo.UpdateAsset(ctx, assetID, models.AssetUpdate{Quantity: &qty, AverageCost: &avg})
}

// --- Transactions ---

func (s *portfolioServiceImpl) ListTransactions(ctx context.Context, userID, portfolioID string) ([]models.Transaction, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactionsByPortfolio(ctx, portfolioID)
}

func (s *portfolioServiceImpl) CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	if _, err := s.ownedPortfolio(ctx, userID, in.PortfolioID); err != nil {
		return nil, err
	}
	asset, err := s.ownedAsset(ctx, userID, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset.PortfolioID != in.PortfolioID {
		return nil, fmt.Errorf("%w: asset %s does not belong to portfolio %s", ErrValidation, in.AssetID, in.PortfolioID)
	}

	tx := s.txProc.Normalize(models.Transaction{
		PortfolioID: in.PortfolioID,
		AssetID:     in.AssetID,
		UserID:      userID,
		Type:        in.Type,
		Ticker:      in.Ticker,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Fees:        in.Fees,
		Date:        strings.TrimSpace(in.Date),
		Notes:       validation.SanitizeForFormulaInjection(validation.SanitizeText(in.Notes)),
	})
	if err := validateTransaction(tx); err != nil {
		return nil, err
	}
	return s.repo.CreateTransaction(ctx, tx)
}

func validateTransaction(tx models.Transaction) error {
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: type %q is not a known transaction type", ErrValidation, tx.Type)
	}
	if err := validation.ValidateTicker(tx.Ticker); err != nil {
		return err
	}
	if err := validation.ValidatePositive(tx.Quantity, "quantity"); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(tx.Price, "price"); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(tx.Fees, "fees"); err != nil {
		return err
	}
	_, err := validation.ValidateDateString(tx.Date, "date")
	return err
}

func (s *portfolioServiceImpl) DeleteTransaction(ctx context.Context, userID, portfolioID, transactionID string) error {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return err
	}
	tx, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ErrAccessDenied
		}
		return err
	}
	if tx.PortfolioID != portfolioID {
		return ErrAccessDenied
	}
	return s.repo.DeleteTransaction(ctx, transactionID)
}

// --- Dividends ---

func (s *portfolioServiceImpl) ListDividends(ctx context.Context, userID, portfolioID string) ([]models.Dividend, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	return s.repo.ListDividendsByPortfolio(ctx, portfolioID)
}

func (s *portfolioServiceImpl) CreateDividend(ctx context.Context, userID string, in DividendInput) (*models.Dividend, error) {
	if _, err := s.ownedPortfolio(ctx, userID, in.PortfolioID); err != nil {
		return nil, err
	}
	asset, err := s.ownedAsset(ctx, userID, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset.PortfolioID != in.PortfolioID {
		return nil, fmt.Errorf("%w: asset %s does not belong to portfolio %s", ErrValidation, asset.ID, in.PortfolioID)
	}

	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if err := validation.ValidateTicker(ticker); err != nil {
		return nil, err
	}
	kind := models.DividendType(strings.ToLower(string(in.Type)))
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: type %q is not a known dividend type", ErrValidation, in.Type)
	}
	if err := validation.ValidatePositive(in.Amount, "amount"); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive(in.Quantity, "quantity"); err != nil {
		return nil, err
	}
	if _, err := validation.ValidateDateString(in.PaymentDate, "paymentDate"); err != nil {
		return nil, err
	}
	exDate := strings.TrimSpace(in.ExDate)
	if exDate == "" {
		exDate = strings.TrimSpace(in.PaymentDate)
	}

	tax := processors.DividendTax(in.Amount, kind)
	return s.repo.CreateDividend(ctx, models.Dividend{
		PortfolioID:   in.PortfolioID,
		AssetID:       in.AssetID,
		UserID:        userID,
		Ticker:        ticker,
		Type:          kind,
		Amount:        in.Amount,
		Quantity:      in.Quantity,
		PricePerShare: in.Amount / in.Quantity,
		PaymentDate:   strings.TrimSpace(in.PaymentDate),
		ExDate:        exDate,
		TaxAmount:     tax,
		NetAmount:     in.Amount - tax,
	})
}

func (s *portfolioServiceImpl) DeleteDividend(ctx context.Context, userID, portfolioID, dividendID string) error {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return err
	}
	d, err := s.repo.GetDividend(ctx, dividendID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ErrAccessDenied
		}
		return err
	}
	if d.PortfolioID != portfolioID {
		return ErrAccessDenied
	}
	return s.repo.DeleteDividend(ctx, dividendID)
}

// --- Analytics ---

type portfolioData struct {
	assets       []models.Asset
	transactions []models.Transaction
	dividends    []models.Dividend
}

func (s *portfolioServiceImpl) load(ctx context.Context, portfolioID string) (*portfolioData, error) {
	assets, err := s.repo.ListAssetsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactionsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	divs, err := s.repo.ListDividendsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		assets[i] = assets[i].WithPriceFallback()
	}
	return &portfolioData{assets: assets, transactions: txs, dividends: divs}, nil
}

func (s *portfolioServiceImpl) Metrics(ctx context.Context, userID, portfolioID string) (*models.PortfolioReport, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	data, err := s.load(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	report := &models.PortfolioReport{
		Metrics:            s.metrics.ComputeMetrics(data.assets, data.transactions, data.dividends),
		Assets:             make([]models.AssetPerformance, 0, len(data.assets)),
		PatrimonyEvolution: s.evolution.PatrimonyEvolution(data.transactions),
		DividendsEvolution: s.evolution.DividendsEvolution(data.dividends),
	}
	for _, a := range data.assets {
		report.Assets = append(report.Assets, s.metrics.AssetPerformance(a, data.transactions, data.dividends))
	}
	logger.FromContext(ctx).Info("Portfolio metrics computed", "portfolioID", portfolioID,
		"assets", len(data.assets), "transactions", len(data.transactions), "dividends", len(data.dividends))
	return report, nil
}

func (s *portfolioServiceImpl) Evolution(ctx context.Context, userID, portfolioID string, kind processors.EvolutionKind) ([]models.MonthlyPoint, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	var (
		txs  []models.Transaction
		divs []models.Dividend
		err  error
	)
	switch kind {
	case processors.EvolutionPatrimony:
		txs, err = s.repo.ListTransactionsByPortfolio(ctx, portfolioID)
	case processors.EvolutionDividends:
		divs, err = s.repo.ListDividendsByPortfolio(ctx, portfolioID)
	default:
		return nil, fmt.Errorf("%w: %v", ErrValidation, processors.ErrUnknownEvolutionKind)
	}
	if err != nil {
		return nil, err
	}
	return s.evolution.ComputeEvolution(kind, txs, divs)
}

func (s *portfolioServiceImpl) EstimateTax(kind processors.TaxKind, amount float64) (*TaxEstimate, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown tax kind %q", ErrValidation, kind)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("%w: amount must be a finite number", ErrValidation)
	}
	tax := utils.RoundFloat(processors.ComputeTax(amount, kind), 2)
	return &TaxEstimate{Kind: kind, Amount: amount, Tax: tax, Net: utils.RoundFloat(amount-tax, 2)}, nil
}

// --- Quotes ---

// UpdateQuotes refreshes currentPrice of every asset in the portfolio. Each
// asset is independent: a missing quote or a failed write is reported and
// the rest carry on.
func (s *portfolioServiceImpl) UpdateQuotes(ctx context.Context, userID, portfolioID string) (*models.QuoteRefreshResult, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	assets, err := s.repo.ListAssetsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	res := &models.QuoteRefreshResult{Total: len(assets), Updates: []models.QuoteUpdate{}}
	if len(assets) == 0 {
		return res, nil
	}

	tickers := make([]string, 0, len(assets))
	for _, a := range assets {
		tickers = append(tickers, a.Ticker)
	}
	quotes := s.quotes.GetQuotes(ctx, tickers)
	stamp := models.Timestamp(s.now())
	log := logger.FromContext(ctx)

	for _, a := range assets {
		q, ok := quotes[NormalizeTicker(a.Ticker)]
		if !ok || q.Price <= 0 {
			res.Failed = append(res.Failed, a.Ticker)
			continue
		}
		oldPrice := a.WithPriceFallback().CurrentPrice
		price := q.Price
		if _, err := s.repo.UpdateAsset(ctx, a.ID, models.AssetUpdate{CurrentPrice: &price, LastUpdate: &stamp}); err != nil {
			log.Error("Failed to store refreshed price", "assetID", a.ID, "ticker", a.Ticker, "error", err)
			res.Failed = append(res.Failed, a.Ticker)
			continue
		}
		res.Updates = append(res.Updates, models.QuoteUpdate{
			Ticker:        a.Ticker,
			OldPrice:      oldPrice,
			NewPrice:      price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
		})
	}
	res.Updated = len(res.Updates)
	log.Info("Portfolio quotes refreshed", "portfolioID", portfolioID, "updated", res.Updated, "total", res.Total, "failed", len(res.Failed))
	return res, nil
}

// --- CSV import ---

// ImportCSV parses a statement. With commit, each accepted row is stored as a
// transaction; rows already present (same day, ticker, type, quantity and
// price) are skipped and unknown tickers get a new stock asset. Touched
// assets have their position recalculated afterwards.
func (s *portfolioServiceImpl) ImportCSV(ctx context.Context, userID, portfolioID, csvData string, commit bool) (*models.ImportResult, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(csvData) == "" {
		return nil, fmt.Errorf("%w: csvData is required", ErrValidation)
	}

	parsed := s.parser.Parse(csvData)
	res := &models.ImportResult{
		Imported: parsed.Imported,
		Total:    len(parsed.Imported),
		Errors:   parsed.Errors,
	}
	if !commit || len(parsed.Imported) == 0 {
		return res, nil
	}

	log := logger.FromContext(ctx)
	assets, err := s.repo.ListAssetsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	byTicker := make(map[string]string, len(assets))
	for _, a := range assets {
		byTicker[strings.ToUpper(a.Ticker)] = a.ID
	}
	existing, err := s.repo.ListTransactionsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	// Each stored transaction absorbs one identical statement line, so a
	// re-import is skipped but repeated fills within a statement are kept.
	stored := make(map[string]int, len(existing))
	for _, tx := range existing {
		stored[s.txProc.Fingerprint(tx)]++
	}

	touched := map[string]bool{}
	for _, row := range parsed.Imported {
		tx := s.txProc.Normalize(models.Transaction{
			PortfolioID: portfolioID,
			UserID:      userID,
			Type:        models.TransactionType(row.Type),
			Ticker:      row.Ticker,
			Quantity:    row.Quantity,
			Price:       row.Price,
			Date:        row.Date,
			Notes:       "csv import",
		})
		fp := s.txProc.Fingerprint(tx)
		if stored[fp] > 0 {
			stored[fp]--
			res.Skipped++
			continue
		}

		assetID, ok := byTicker[tx.Ticker]
		if !ok {
			created, err := s.repo.CreateAsset(ctx, models.Asset{
				PortfolioID:  portfolioID,
				UserID:       userID,
				Ticker:       tx.Ticker,
				Name:         tx.Ticker,
				Type:         models.AssetStock,
				Sector:       models.DefaultSector,
				PurchaseDate: tx.Date,
			})
			if err != nil {
				log.Error("CSV import could not create asset", "ticker", tx.Ticker, "error", err)
				res.Errors = append(res.Errors, fmt.Sprintf("line %d: could not create asset %s", row.Line, tx.Ticker))
				continue
			}
			assetID = created.ID
			byTicker[tx.Ticker] = assetID
		}

		tx.AssetID = assetID
		if _, err := s.repo.CreateTransaction(ctx, tx); err != nil {
			log.Error("CSV import could not store transaction", "line", row.Line, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: could not save transaction", row.Line))
			continue
		}
		touched[assetID] = true
		res.Created++
	}

	if len(touched) > 0 {
		all, err := s.repo.ListTransactionsByPortfolio(ctx, portfolioID)
		if err != nil {
			return nil, err
		}
		grouped := processors.GroupByAsset(all)
		for assetID := range touched {
			if _, err := s.applyPosition(ctx, assetID, grouped[assetID]); err != nil {
				log.Error("CSV import could not recalculate asset", "assetID", assetID, "error", err)
			}
		}
	}

	log.Info("CSV import committed", "portfolioID", portfolioID,
		"rows", res.Total, "created", res.Created, "skipped", res.Skipped, "errors", len(res.Errors))
	return res, nil
}
