package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	SellerID     int64           `json:"seller_id"`
	ImageURL     string          `json:"image_url"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MoneyScale is the number of decimal places stored for prices.
const MoneyScale = 2

// maxMoney is the first amount that no longer fits NUMERIC(12, 2).
var maxMoney = decimal.New(1, 10)

// ValidMoney reports whether amount is non-negative, fits the price columns
// and has at most MoneyScale decimal places.
func ValidMoney(amount decimal.Decimal) bool {
	if amount.IsNegative() || amount.GreaterThanOrEqual(maxMoney) {
		return false
	}
	return amount.Equal(amount.Truncate(MoneyScale))
}

// EffectivePrice is what a buyer pays per unit. A discount larger than the
// price never produces a negative amount.
func EffectivePrice(price, discount decimal.Decimal) decimal.Decimal {
	return decimal.Max(price.Sub(discount), decimal.Zero)
}

func (p *Product) EffectivePrice() decimal.Decimal {
	return EffectivePrice(p.Price, p.Discount)
}

// ProductFilter narrows a catalog listing. Zero values mean "any".
type ProductFilter struct {
	CategoryID int64
	SellerID   int64
	Search     string
}
