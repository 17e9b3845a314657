package selector

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PanelView is the render model of the purchase panel
type PanelView struct {
	ProductID         int64               `json:"productId"`
	Brand             string              `json:"brand"`
	Name              string              `json:"name"`
	Price             string              `json:"price"`
	OriginalPrice     string              `json:"originalPrice,omitempty"`
	DiscountRate      decimal.NullDecimal `json:"discountRate"`
	Discounted        bool                `json:"discounted"`
	Colors            []string            `json:"colors"`
	SelectedColor     string              `json:"selectedColor"`
	SelectedSize      string              `json:"selectedSize"`
	Sizes             []string            `json:"sizes"`
	SizePickerEnabled bool                `json:"sizePickerEnabled"`
	Lines             []LineView          `json:"lines"`
	TotalQuantity     int                 `json:"totalQuantity"`
	TotalPrice        string              `json:"totalPrice"`
}

// LineView renders one chosen line
type LineView struct {
	Index         int    `json:"index"`
	Color         string `json:"color"`
	Size          string `json:"size"`
	Quantity      int    `json:"quantity"`
	StockQuantity int    `json:"stockQuantity"`
	Subtotal      string `json:"subtotal"`
}

// View renders the panel. Totals are derived here and never stored.
func (s *Selector) View() PanelView {
	p := s.product
	view := PanelView{
		ProductID:         p.ID,
		Brand:             p.Brand,
		Name:              p.Name,
		Price:             FormatPrice(decimal.NewNullDecimal(p.Price)),
		DiscountRate:      p.DiscountRate,
		Discounted:        p.Discounted(),
		Colors:            s.AvailableColors(),
		SelectedColor:     s.state.PendingColor,
		SelectedSize:      s.state.PendingSize,
		Sizes:             s.AvailableSizes(),
		SizePickerEnabled: s.state.PendingColor != "",
		Lines:             make([]LineView, 0, len(s.state.Lines)),
		TotalQuantity:     s.TotalQuantity(),
		TotalPrice:        FormatPrice(decimal.NewNullDecimal(s.TotalPrice())),
	}
	if view.Discounted {
		view.OriginalPrice = FormatPrice(p.OriginalPrice)
	}

	for i, line := range s.state.Lines {
		view.Lines = append(view.Lines, LineView{
			Index:         i,
			Color:         line.Color,
			Size:          line.Size,
			Quantity:      line.Quantity,
			StockQuantity: line.StockQuantity,
			Subtotal:      FormatPrice(decimal.NewNullDecimal(line.Subtotal())),
		})
	}
	return view
}

// FormatPrice groups digits the Korean way with no decimal places. An absent
// price renders as "0".
func FormatPrice(price decimal.NullDecimal) string {
	if !price.Valid {
		return "0"
	}
	// Printers carry formatting state, so each call gets its own
	p := message.NewPrinter(language.Korean)
	return p.Sprintf("%d", price.Decimal.Round(0).IntPart())
}
