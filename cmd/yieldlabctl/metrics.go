package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/google/subcommands"
)

type metricsCmd struct {
	token     string
	portfolio string
	out       io.Writer
}

func (*metricsCmd) Name() string { return "metrics" }
func (*metricsCmd) Synopsis() string {
	return "print the metrics of a portfolio"
}
func (*metricsCmd) Usage() string {
	return `yieldlabctl metrics -token <idToken> -portfolio <portfolioId>
`
}

func (c *metricsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.token, "token", os.Getenv("YIELDLAB_TOKEN"), "identity token of the portfolio owner (default $YIELDLAB_TOKEN)")
	f.StringVar(&c.portfolio, "portfolio", "", "portfolio id")
}

func (c *metricsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" {
		fmt.Fprintln(os.Stderr, "-portfolio is required")
		return subcommands.ExitUsageError
	}
	s, err := openSession(ctx, c.token)
	if err != nil {
		return fail(os.Stderr, err)
	}
	defer s.app.Close()

	report, err := s.app.Portfolios.Metrics(s.ctx, s.userID, c.portfolio)
	if err != nil {
		return fail(os.Stderr, err)
	}
	printReport(c.out, report)
	return subcommands.ExitSuccess
}

func printReport(w io.Writer, report *models.PortfolioReport) {
	m := report.Metrics
	fmt.Fprintf(w, "Investido:          %s\n", formatBRL(m.TotalInvested))
	fmt.Fprintf(w, "Valor atual:        %s\n", formatBRL(m.CurrentValue))
	fmt.Fprintf(w, "Resultado:          %s (%.2f%%)\n", formatBRL(m.TotalGain), m.TotalGainPercent)
	fmt.Fprintf(w, "Proventos:          %s\n", formatBRL(m.TotalDividends))
	fmt.Fprintf(w, "Dividend yield:     %.2f%%\n", m.DividendYield)
	fmt.Fprintf(w, "Média mensal:       %s\n", formatBRL(m.MonthlyDividends))

	if len(m.AssetAllocation) > 0 {
		fmt.Fprintln(w, "\nAlocação por ativo")
		for _, a := range m.AssetAllocation {
			fmt.Fprintf(w, "  %-8s %14s %6.2f%%\n", a.Ticker, formatBRL(a.Value), a.Percent)
		}
	}
	if len(m.SectorAllocation) > 0 {
		fmt.Fprintln(w, "\nAlocação por setor")
		for _, s := range m.SectorAllocation {
			fmt.Fprintf(w, "  %-20s %14s %6.2f%%\n", s.Sector, formatBRL(s.Value), s.Percent)
		}
	}
}
