package quotes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"StockForecast/internal/model"
)

// DateLayout is the Date column format of the history download.
const DateLayout = "2006-01-02"

var (
	ErrEmptyBody     = errors.New("empty response body")
	ErrMissingColumn = errors.New("missing column")
	ErrColumnCount   = errors.New("column count mismatch")
	ErrBadDate       = errors.New("malformed date")
	ErrBadPrice      = errors.New("malformed price")
)

// Parse reads the comma-separated history table. The first line is the
// header; every other non-empty line is a data row split positionally.
func Parse(body []byte) ([]model.Quote, error) {
	text := strings.ReplaceAll(string(body), "\r", "")
	lines := strings.Split(text, "\n")

	headerAt := -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrEmptyBody
	}

	header := splitRow(lines[headerAt])
	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch h {
		case "Date":
			dateCol = i
		case "Close":
			closeCol = i
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("%w: Date", ErrMissingColumn)
	}
	if closeCol < 0 {
		return nil, fmt.Errorf("%w: Close", ErrMissingColumn)
	}

	out := make([]model.Quote, 0, len(lines)-headerAt-1)
	for n, l := range lines[headerAt+1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lineNo := headerAt + n + 2
		row := splitRow(l)
		if len(row) != len(header) {
			return nil, fmt.Errorf("line %d: %w: %d fields, header has %d", lineNo, ErrColumnCount, len(row), len(header))
		}
		if row[closeCol] == "null" {
			continue // non-trading day placeholder
		}
		date, err := time.Parse(DateLayout, row[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrBadDate, row[dateCol])
		}
		price, err := decimal.NewFromString(row[closeCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrBadPrice, row[closeCol])
		}
		out = append(out, model.Quote{Date: date, Close: price})
	}
	return out, nil
}

func splitRow(line string) []string {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
