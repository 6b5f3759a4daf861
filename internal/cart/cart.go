// Package cart keeps a shopper's cart lines in an opaque session blob. The
// cart has no server-side identity until checkout; the SessionStore decides
// whether the blob rides in a cookie or lives in Redis.
package cart

import (
	"encoding/json"
	"errors"
	"math"
)

// MaxQuantity is the largest quantity a line may hold; order_items.quantity
// is a 32-bit INTEGER.
const MaxQuantity = math.MaxInt32

var (
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrQuantityTooLarge = errors.New("quantity is too large")
	ErrInvalidProduct   = errors.New("product id is required")
	ErrNotInCart        = errors.New("product not found in cart")
)

// Item is one cart line. The JSON shape is the persisted blob format.
type Item struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"quantity"`
}

// Cart is an ordered list of lines with at most one line per product.
type Cart struct {
	items []Item
}

// New builds a cart from decoded lines, dropping unusable ones and capping
// merged duplicates at MaxQuantity.
func New(items []Item) *Cart {
	c := &Cart{}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			continue
		}
		if err := c.merge(it.ProductID, it.Quantity); err != nil {
			c.capLine(it.ProductID)
		}
	}
	return c
}

func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Add(productID string, quantity int) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return c.merge(productID, quantity)
}

// SetQuantity replaces a line's quantity; quantity <= 0 removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		c.Remove(productID)
		return nil
	}

	if quantity > MaxQuantity {
		return ErrQuantityTooLarge
	}

	i := c.index(productID)
	if i < 0 {
		return ErrNotInCart
	}
	c.items[i].Quantity = quantity
	return nil
}

func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// merge leaves the cart unchanged when the line would exceed MaxQuantity.
func (c *Cart) merge(productID string, quantity int) error {
	i := c.index(productID)
	existing := 0
	if i >= 0 {
		existing = c.items[i].Quantity
	}
	if quantity > MaxQuantity || existing > MaxQuantity-quantity {
		return ErrQuantityTooLarge
	}

	if i < 0 {
		c.items = append(c.items, Item{ProductID: productID, Quantity: quantity})
		return nil
	}
	c.items[i].Quantity += quantity
	return nil
}

func (c *Cart) capLine(productID string) {
	if i := c.index(productID); i >= 0 {
		c.items[i].Quantity = MaxQuantity
		return
	}
	c.items = append(c.items, Item{ProductID: productID, Quantity: MaxQuantity})
}

func (c *Cart) index(productID string) int {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func Encode(c *Cart) ([]byte, error) {
	items := c.Items()
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

func Decode(blob []byte) (*Cart, error) {
	if len(blob) == 0 {
		return New(nil), nil
	}

	var items []Item
	if err := json.Unmarshal(blob, &items); err != nil {
		return nil, err
	}
	return New(items), nil
}
