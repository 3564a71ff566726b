package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity a single cart entry may hold.
const MaxQuantity = 99

type CartEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// CartLine is a cart entry joined with the current state of its product.
// Available is false when the product has been retired from the catalog.
type CartLine struct {
	EntryID   int64           `json:"entry_id"`
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
	Quantity  int             `json:"quantity"`
	Available bool            `json:"available"`
	AddedAt   time.Time       `json:"added_at"`
}

func (l CartLine) UnitPrice() decimal.Decimal {
	return EffectivePrice(l.Price, l.Discount)
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	UserID int64           `json:"user_id"`
	Lines  []CartLine      `json:"lines"`
	Total  decimal.Decimal `json:"total"`
}

// CartTotal sums the available lines. Retired products contribute nothing.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if !l.Available {
			continue
		}
		total = total.Add(l.LineTotal())
	}
	return total
}
