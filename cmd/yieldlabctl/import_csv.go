package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cgscacau/yieldlab/src/parsers/csvimport"
	"github.com/google/subcommands"
)

type importCSVCmd struct {
	file string
	out  io.Writer
}

func (*importCSVCmd) Name() string { return "import-csv" }
func (*importCSVCmd) Synopsis() string {
	return "parse a broker statement locally and show what would be imported"
}
func (*importCSVCmd) Usage() string {
	return `yieldlabctl import-csv -file <statement.csv>

  Reads a date,ticker,type,quantity,price statement and prints the accepted
  rows followed by the rejected lines. Nothing is written.
`
}

func (c *importCSVCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "path of the CSV statement")
}

func (c *importCSVCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		return subcommands.ExitUsageError
	}
	f, err := os.Open(c.file)
	if err != nil {
		return fail(os.Stderr, err)
	}
	defer f.Close()

	res, err := csvimport.NewParser().ParseReader(f)
	if err != nil {
		return fail(os.Stderr, err)
	}

	for _, row := range res.Imported {
		fmt.Fprintf(c.out, "%4d  %s  %-8s %-13s %12.4f x %s\n",
			row.Line, row.Date, row.Ticker, row.Type, row.Quantity, formatBRL(row.Price))
	}
	for _, e := range res.Errors {
		fmt.Fprintf(c.out, "erro: %s\n", e)
	}
	fmt.Fprintf(c.out, "%d transações importadas, %d erros\n", len(res.Imported), len(res.Errors))
	if len(res.Imported) == 0 && len(res.Errors) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
