package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Rhymond/go-money"
	"github.com/cgscacau/yieldlab/src/app"
	"github.com/cgscacau/yieldlab/src/config"
	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/store"
	"github.com/google/subcommands"
)

// Commands is the list of yieldlabctl subcommands.
var Commands = []subcommands.Command{
	&importCSVCmd{out: os.Stdout},
	&updateQuotesCmd{out: os.Stdout},
	&metricsCmd{out: os.Stdout},
}

// formatBRL renders an amount the way the dashboard does, e.g. R$1.234,56.
func formatBRL(amount float64) string {
	return money.NewFromFloat(amount, money.BRL).Display()
}

// session is an authenticated service graph for the commands that talk to
// the document store.
type session struct {
	app    *app.App
	userID string
	ctx    context.Context
}

func openSession(ctx context.Context, token string) (*session, error) {
	if token == "" {
		return nil, errors.New("-token is required")
	}
	logger.Discard()
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	identity, err := a.Verifier.Verify(ctx, token)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("token rejected: %w", err)
	}
	return &session{app: a, userID: identity.UID, ctx: store.WithToken(ctx, token)}, nil
}

func fail(w io.Writer, err error) subcommands.ExitStatus {
	fmt.Fprintln(w, err)
	return subcommands.ExitFailure
}
