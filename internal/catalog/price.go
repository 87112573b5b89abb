package catalog

import (
	"github.com/shopspring/decimal"
)

// Price is a catalog amount. Text is what the catalog file said and is what gets
// sent to the storefront, Amount is only used for validation and comparisons.
type Price struct {
	Amount decimal.Decimal
	Text   string
}

func ParsePrice(text string) (Price, error) {
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return Price{}, err
	}
	return Price{Amount: amount, Text: text}, nil
}

func (p Price) String() string {
	return p.Text
}
