package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$1.234,56", formatBRL(1234.56))
	assert.Equal(t, "R$0,00", formatBRL(0))
}

func TestImportCSVCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extrato.csv")
	content := "date,ticker,type,quantity,price\n2024-01-01,PETR4,buy,10,30.5\n2024-01-02,VALE3,buy,5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	var out bytes.Buffer
	cmd := &importCSVCmd{file: path, out: &out}
	status := cmd.Execute(context.Background(), flag.NewFlagSet("import-csv", flag.ContinueOnError))

	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "PETR4")
	assert.Contains(t, out.String(), "R$30,50")
	assert.Contains(t, out.String(), "erro: line 3: incomplete data")
	assert.Contains(t, out.String(), "1 transações importadas, 1 erros")
}

func TestImportCSVCmd_MissingFile(t *testing.T) {
	cmd := &importCSVCmd{out: &bytes.Buffer{}}
	assert.Equal(t, subcommands.ExitUsageError, cmd.Execute(context.Background(), flag.NewFlagSet("import-csv", flag.ContinueOnError)))

	cmd.file = filepath.Join(t.TempDir(), "missing.csv")
	assert.Equal(t, subcommands.ExitFailure, cmd.Execute(context.Background(), flag.NewFlagSet("import-csv", flag.ContinueOnError)))
}

func TestPrintReport(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, &models.PortfolioReport{Metrics: models.PortfolioMetrics{
		TotalInvested:    1000,
		CurrentValue:     1100,
		TotalGain:        100,
		TotalGainPercent: 10,
		AssetAllocation:  []models.AssetAllocation{{Ticker: "PETR4", Value: 1100, Percent: 100}},
	}})

	assert.Contains(t, out.String(), "Valor atual:        R$1.100,00")
	assert.Contains(t, out.String(), "R$100,00 (10.00%)")
	assert.Contains(t, out.String(), "PETR4")
	assert.NotContains(t, out.String(), "Alocação por setor")
}

func TestUpdateQuotesCmd_RequiresPortfolio(t *testing.T) {
	cmd := &updateQuotesCmd{token: "t", out: &bytes.Buffer{}}
	assert.Equal(t, subcommands.ExitUsageError, cmd.Execute(context.Background(), flag.NewFlagSet("update-quotes", flag.ContinueOnError)))
}
