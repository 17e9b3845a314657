// Package selector reduces purchase-panel input (color, size, quantity) into
// stock-bounded line items for a single product.
package selector

import (
	"errors"

	"faishion-storefront/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock        = errors.New("selected option is out of stock")
	ErrInsufficientStock = errors.New("not enough stock to add another item")
	ErrExceedsStock      = errors.New("quantity cannot exceed available stock")
	ErrBelowMinimum      = errors.New("quantity cannot drop below one")
	ErrNoSelection       = errors.New("no option selected")
	ErrIncompleteLine    = errors.New("every line needs a color, a size and a quantity")
	ErrColorRequired     = errors.New("a color must be selected before a size")
	ErrUnknownColor      = errors.New("color is not offered for this product")
	ErrLineNotFound      = errors.New("selected line not found")
)

// State is the persisted part of the panel: pending picks and chosen lines
type State struct {
	PendingColor string                  `json:"pendingColor,omitempty"`
	PendingSize  string                  `json:"pendingSize,omitempty"`
	Lines        []domain.SelectedOption `json:"lines"`
}

// Selector applies panel operations to a State against a product's stock
type Selector struct {
	product *domain.Product
	state   State
}

// New creates a Selector over a copy of state
func New(product *domain.Product, state State) *Selector {
	lines := make([]domain.SelectedOption, len(state.Lines))
	copy(lines, state.Lines)
	state.Lines = lines

	return &Selector{product: product, state: state}
}

// State returns a copy of the current state
func (s *Selector) State() State {
	out := s.state
	out.Lines = s.Lines()
	return out
}

// Lines returns a copy of the chosen lines
func (s *Selector) Lines() []domain.SelectedOption {
	out := make([]domain.SelectedOption, len(s.state.Lines))
	copy(out, s.state.Lines)
	return out
}

// AvailableColors lists the product's colors
func (s *Selector) AvailableColors() []string {
	return s.product.Stock.Colors()
}

// AvailableSizes lists the sizes of the pending color, empty without one
func (s *Selector) AvailableSizes() []string {
	if s.state.PendingColor == "" {
		return []string{}
	}
	return s.product.Stock.Sizes(s.state.PendingColor)
}

// SelectColor sets the pending color and clears the pending size. An empty
// color clears the pick.
func (s *Selector) SelectColor(color string) error {
	if color != "" && !s.product.Stock.HasColor(color) {
		return ErrUnknownColor
	}
	s.state.PendingColor = color
	s.state.PendingSize = ""
	return nil
}

// SelectSize picks a size for the pending color and immediately tries to add
// the pair. Pending picks are cleared afterwards whatever the outcome.
func (s *Selector) SelectSize(size string) error {
	if s.state.PendingColor == "" {
		return ErrColorRequired
	}
	if size == "" {
		s.state.PendingSize = ""
		return nil
	}
	s.state.PendingSize = size
	return s.AddOption(s.state.PendingColor, size)
}

// AddOption adds one unit of (color, size): a new line when none matches,
// otherwise an increment of the matching line, both bounded by stock.
func (s *Selector) AddOption(color, size string) error {
	if color == "" || size == "" {
		return nil
	}
	defer s.resetPending()

	ceiling := s.product.Stock.Quantity(color, size)

	for i := range s.state.Lines {
		line := &s.state.Lines[i]
		if line.Color != color || line.Size != size {
			continue
		}
		if line.Quantity >= ceiling {
			return ErrInsufficientStock
		}
		line.Quantity++
		return nil
	}

	if ceiling <= 0 {
		return ErrOutOfStock
	}
	s.state.Lines = append(s.state.Lines, domain.SelectedOption{
		Color:         color,
		Size:          size,
		Quantity:      1,
		Price:         s.product.Price,
		StockQuantity: ceiling,
	})
	return nil
}

// ChangeQuantity moves the quantity of line index by delta, keeping it
// within [1, stockQuantity].
func (s *Selector) ChangeQuantity(index, delta int) error {
	if index < 0 || index >= len(s.state.Lines) {
		return ErrLineNotFound
	}
	line := &s.state.Lines[index]

	next := line.Quantity + delta
	switch {
	case next > line.StockQuantity:
		return ErrExceedsStock
	case next < 1:
		return ErrBelowMinimum
	}
	line.Quantity = next
	return nil
}

// Remove deletes line index
func (s *Selector) Remove(index int) error {
	if index < 0 || index >= len(s.state.Lines) {
		return ErrLineNotFound
	}
	s.state.Lines = append(s.state.Lines[:index], s.state.Lines[index+1:]...)
	return nil
}

// Clear drops every line
func (s *Selector) Clear() {
	s.state.Lines = nil
}

// TotalQuantity sums line quantities
func (s *Selector) TotalQuantity() int {
	total := 0
	for _, line := range s.state.Lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice sums price × quantity over all lines
func (s *Selector) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.state.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// RequireSelection fails when no line has been chosen
func (s *Selector) RequireSelection() error {
	if len(s.state.Lines) == 0 {
		return ErrNoSelection
	}
	return nil
}

// ValidateForCart checks that there is a selection and that every line is
// complete.
func (s *Selector) ValidateForCart() error {
	if err := s.RequireSelection(); err != nil {
		return err
	}
	for _, line := range s.state.Lines {
		if line.Color == "" || line.Size == "" || line.Quantity <= 0 {
			return ErrIncompleteLine
		}
	}
	return nil
}

// CartLines converts the selection into a cart save payload
func (s *Selector) CartLines() []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(s.state.Lines))
	for _, line := range s.state.Lines {
		lines = append(lines, domain.CartLine{
			Quantity:  line.Quantity,
			Color:     line.Color,
			Size:      line.Size,
			ProductID: s.product.ID,
		})
	}
	return lines
}

// DirectOrder converts the selection into a direct order payload
func (s *Selector) DirectOrder() domain.DirectOrderRequest {
	items := make([]domain.OrderItem, 0, len(s.state.Lines))
	for _, line := range s.state.Lines {
		items = append(items, domain.OrderItem{
			Color:    line.Color,
			Size:     line.Size,
			Quantity: line.Quantity,
		})
	}
	return domain.DirectOrderRequest{ProductID: s.product.ID, Items: items}
}

func (s *Selector) resetPending() {
	s.state.PendingColor = ""
	s.state.PendingSize = ""
}
