package models

import (
	"github.com/shopspring/decimal"
)

// CartLine 代表購物車中的單個商品項目
type CartLine struct {
	ProductID int             `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// Subtotal returns UnitPrice × Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewCartLine builds a line for product with quantity clamped to at least one.
func NewCartLine(product Product, quantity int) CartLine {
	if quantity < 1 {
		quantity = 1
	}
	return CartLine{
		ProductID: product.ID,
		Title:     product.Title,
		UnitPrice: product.Price,
		Quantity:  quantity,
		Image:     product.Image,
	}
}

// SumLines recomputes the cart total from scratch.
func SumLines(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}
