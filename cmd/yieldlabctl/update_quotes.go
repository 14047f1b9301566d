package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
)

type updateQuotesCmd struct {
	token     string
	portfolio string
	out       io.Writer
}

func (*updateQuotesCmd) Name() string { return "update-quotes" }
func (*updateQuotesCmd) Synopsis() string {
	return "refresh the current price of every asset in a portfolio"
}
func (*updateQuotesCmd) Usage() string {
	return `yieldlabctl update-quotes -token <idToken> -portfolio <portfolioId>
`
}

func (c *updateQuotesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.token, "token", os.Getenv("YIELDLAB_TOKEN"), "identity token of the portfolio owner (default $YIELDLAB_TOKEN)")
	f.StringVar(&c.portfolio, "portfolio", "", "portfolio id")
}

func (c *updateQuotesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" {
		fmt.Fprintln(os.Stderr, "-portfolio is required")
		return subcommands.ExitUsageError
	}
	s, err := openSession(ctx, c.token)
	if err != nil {
		return fail(os.Stderr, err)
	}
	defer s.app.Close()

	res, err := s.app.Portfolios.UpdateQuotes(s.ctx, s.userID, c.portfolio)
	if err != nil {
		return fail(os.Stderr, err)
	}
	for _, u := range res.Updates {
		fmt.Fprintf(c.out, "%-8s %s -> %s (%+.2f%%)\n", u.Ticker, formatBRL(u.OldPrice), formatBRL(u.NewPrice), u.ChangePercent)
	}
	for _, t := range res.Failed {
		fmt.Fprintf(c.out, "%-8s sem cotação\n", t)
	}
	fmt.Fprintf(c.out, "%d de %d ativo(s) atualizado(s)\n", res.Updated, res.Total)
	return subcommands.ExitSuccess
}
