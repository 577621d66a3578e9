package quote

import (
	"encoding/json"
	"fmt"
	"os"
)

// seedFile is the on-disk shape of the ticker inventory file. Loading
// it is an external-collaborator concern per the spec's non-goals, but
// main still needs a concrete loader to produce a PriceBook to run
// against.
type seedFile struct {
	Tickers []TickerSeed `json:"tickers"`
}

// LoadInventory reads a JSON ticker inventory from path and builds a
// PriceBook from it.
func LoadInventory(path string) (*PriceBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ticker inventory %s: %w", path, err)
	}

	var sf seedFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse ticker inventory %s: %w", path, err)
	}
	if len(sf.Tickers) == 0 {
		return nil, fmt.Errorf("ticker inventory %s defines no tickers", path)
	}

	return NewPriceBook(sf.Tickers), nil
}
