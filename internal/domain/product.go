package domain

import (
	"github.com/shopspring/decimal"
)

// Product represents a product as the commerce backend serves it to the
// purchase panel
type Product struct {
	ID            int64               `json:"id"`
	Brand         string              `json:"brand"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	DiscountRate  decimal.NullDecimal `json:"discountRate"`
	Stock         StockTable          `json:"stockByColorAndSize"`
}

// Discounted reports whether the product is sold below its original price
func (p *Product) Discounted() bool {
	return p.OriginalPrice.Valid && p.OriginalPrice.Decimal.GreaterThan(p.Price)
}

// SelectedOption is one chosen (color, size) line on the purchase panel
type SelectedOption struct {
	Color         string          `json:"color"`
	Size          string          `json:"size"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// Subtotal returns price × quantity for the line
func (o SelectedOption) Subtotal() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
}
