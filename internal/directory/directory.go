package directory

import (
	"errors"
	"fmt"
	"strings"

	"StockForecast/internal/model"
)

// ErrUnknownSymbol is returned when a symbol is not a key of the directory.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Defaults lists the built-in companies (Indian listings on BSE).
var Defaults = []model.Company{
	{Symbol: "INFY.BO", Name: "Infosys Limited"},
	{Symbol: "TCS.BO", Name: "Tata Consultancy Services Limited"},
	{Symbol: "RELIANCE.BO", Name: "Reliance Industries Limited"},
}

// Directory is an ordered, read-only symbol -> display name mapping.
type Directory struct {
	entries []model.Company
	index   map[string]int
}

// New builds a directory from entries, keeping their order.
func New(entries []model.Company) (*Directory, error) {
	d := &Directory{
		entries: make([]model.Company, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, c := range entries {
		sym := strings.TrimSpace(c.Symbol)
		name := strings.TrimSpace(c.Name)
		if sym == "" || name == "" {
			return nil, fmt.Errorf("directory: entry %q/%q needs both symbol and name", c.Symbol, c.Name)
		}
		if _, dup := d.index[sym]; dup {
			return nil, fmt.Errorf("directory: duplicate symbol %s", sym)
		}
		d.index[sym] = len(d.entries)
		d.entries = append(d.entries, model.Company{Symbol: sym, Name: name})
	}
	return d, nil
}

// Default returns the built-in directory with extra entries appended.
func Default(extra ...model.Company) (*Directory, error) {
	all := make([]model.Company, 0, len(Defaults)+len(extra))
	all = append(all, Defaults...)
	all = append(all, extra...)
	return New(all)
}

// All returns a copy of every entry in directory order.
func (d *Directory) All() []model.Company {
	out := make([]model.Company, len(d.entries))
	copy(out, d.entries)
	return out
}

// Len returns the number of entries.
func (d *Directory) Len() int { return len(d.entries) }

// Search returns the entries whose display name contains query,
// case-insensitively, in directory order. An empty query matches everything.
func (d *Directory) Search(query string) []model.Company {
	q := strings.ToLower(query)
	out := make([]model.Company, 0, len(d.entries))
	for _, c := range d.entries {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

// Name looks up the display name of symbol. There is no fallback.
func (d *Directory) Name(symbol string) (string, error) {
	i, ok := d.index[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return d.entries[i].Name, nil
}

// Label formats an entry the way result lists show it.
func Label(c model.Company) string {
	return c.Symbol + ": " + c.Name
}

// Labels formats a result set.
func Labels(cs []model.Company) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = Label(c)
	}
	return out
}

// SymbolFromLabel recovers the symbol from a "SYMBOL: Name" label.
func SymbolFromLabel(label string) string {
	sym, _, _ := strings.Cut(label, ":")
	return strings.TrimSpace(sym)
}
