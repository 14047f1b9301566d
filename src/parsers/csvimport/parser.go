// src/parsers/csvimport/parser.go
package csvimport

import (
	"fmt"
	"io"
	"strings"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/security/validation"
)

// MinFields is the column count of a statement line: date,ticker,type,quantity,price.
const MinFields = 5

// Result holds the accepted rows and one message per rejected line.
type Result struct {
	Imported []models.ImportedRow
	Errors   []string
}

// Parser reads the plain statement format. Fields are split on every comma;
// quoting is not supported.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseReader reads the whole statement from r and parses it.
func (p *Parser) ParseReader(r io.Reader) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("csv import: failed to read statement: %w", err)
	}
	return p.Parse(string(raw)), nil
}

// Parse never fails as a whole: bad lines are reported in Errors and left
// out of Imported. The first line is the header. Line numbers are 1-based.
func (p *Parser) Parse(data string) Result {
	res := Result{Imported: []models.ImportedRow{}, Errors: []string{}}

	lines := strings.Split(strings.TrimSpace(validation.StripUnprintable(data)), "\n")
	for i := 1; i < len(lines); i++ {
		lineNo := i + 1
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		row, msg := parseLine(line)
		if msg != "" {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %s", lineNo, msg))
			continue
		}
		row.Line = lineNo
		res.Imported = append(res.Imported, row)
	}
	return res
}

func parseLine(line string) (models.ImportedRow, string) {
	parts := strings.Split(line, ",")
	if len(parts) < MinFields {
		return models.ImportedRow{}, "incomplete data"
	}
	for _, f := range parts[:MinFields] {
		if strings.TrimSpace(f) == "" {
			return models.ImportedRow{}, "incomplete data"
		}
	}

	row := models.ImportedRow{
		Date:   strings.TrimSpace(parts[0]),
		Ticker: strings.ToUpper(strings.TrimSpace(parts[1])),
		Type:   strings.ToLower(strings.TrimSpace(parts[2])),
	}

	if _, err := validation.ValidateDateString(row.Date, "date"); err != nil {
		return models.ImportedRow{}, "invalid date"
	}
	if err := validation.ValidateTicker(row.Ticker); err != nil {
		return models.ImportedRow{}, "invalid ticker"
	}
	if !models.TransactionType(row.Type).Valid() {
		return models.ImportedRow{}, fmt.Sprintf("unknown type %q", row.Type)
	}

	var err error
	if row.Quantity, err = validation.ParseFloatField(parts[3], "quantity"); err != nil {
		return models.ImportedRow{}, "invalid quantity"
	}
	if row.Price, err = validation.ParseFloatField(parts[4], "price"); err != nil {
		return models.ImportedRow{}, "invalid price"
	}
	return row, ""
}
