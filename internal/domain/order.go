package domain

// CartLine is one entry of a cart save request
type CartLine struct {
	Quantity  int    `json:"quantity"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	ProductID int64  `json:"productId"`
}

// OrderItem is one (color, size, quantity) entry of a direct order
type OrderItem struct {
	Color    string `json:"color"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// DirectOrderRequest creates an order without going through the cart
type DirectOrderRequest struct {
	ProductID int64       `json:"productId"`
	Items     []OrderItem `json:"items"`
}
