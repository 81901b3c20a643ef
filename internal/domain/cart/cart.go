package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidIdentity = errors.New("no user or session identity supplied")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrInvalidAmount   = errors.New("amount must not be negative")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrCartNotFound    = errors.New("cart not found")
)

type OwnerKind string

const (
	OwnerUser    OwnerKind = "user"
	OwnerSession OwnerKind = "session"
)

// Owner identifies who a cart belongs to: a signed-in user or an anonymous
// browser session, never both. Resolved once at the API boundary.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

func UserOwner(id string) Owner    { return Owner{Kind: OwnerUser, ID: id} }
func SessionOwner(id string) Owner { return Owner{Kind: OwnerSession, ID: id} }

func (o Owner) Valid() bool {
	return o.ID != "" && (o.Kind == OwnerUser || o.Kind == OwnerSession)
}

// Key returns the storage key for the owner, e.g. "user:u-123".
func (o Owner) Key() string {
	return string(o.Kind) + ":" + o.ID
}

// CartID returns the cart identifier for an owner. One owner maps to exactly
// one cart, so repeated lookups always resolve to the same record.
func CartID(o Owner) string {
	return "cart-" + o.Key()
}

// Line is a single product entry in a cart. UnitPrice is a snapshot taken
// from the catalog when the product was first added; later catalog price
// changes do not touch it.
type Line struct {
	ProductID       string            `json:"product_id"`
	Quantity        int               `json:"quantity"`
	UnitPrice       decimal.Decimal   `json:"unit_price"`
	LineTotal       decimal.Decimal   `json:"line_total"`
	SelectedOptions map[string]string `json:"selected_options,omitempty"`
	AddedAt         time.Time         `json:"added_at"`
}

// refreshTotal keeps LineTotal consistent with UnitPrice and Quantity.
func (l *Line) refreshTotal() {
	l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	ID          string          `json:"id"`
	OwnerKind   OwnerKind       `json:"owner_kind"`
	OwnerID     string          `json:"owner_id"`
	Items       []Line          `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discounts   decimal.Decimal `json:"discounts"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// New returns an empty cart for the owner with all monetary fields zero.
func New(o Owner) *Cart {
	now := time.Now()
	return &Cart{
		ID:          CartID(o),
		OwnerKind:   o.Kind,
		OwnerID:     o.ID,
		Items:       []Line{},
		Subtotal:    decimal.Zero,
		Discounts:   decimal.Zero,
		DeliveryFee: decimal.Zero,
		Total:       decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Owner reconstructs the owner identity the cart is keyed by.
func (c *Cart) Owner() Owner {
	return Owner{Kind: c.OwnerKind, ID: c.OwnerID}
}

func (c *Cart) findLine(productID string) *Line {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// AddItem merges the quantity into an existing line for the product, or
// appends a new line with the given unit-price snapshot. Lines are matched
// by product ID only; selected options are not part of the key.
func (c *Cart) AddItem(productID string, qty int, unitPrice decimal.Decimal, options map[string]string) {
	if line := c.findLine(productID); line != nil {
		line.Quantity += qty
		line.refreshTotal()
		return
	}
	line := Line{
		ProductID:       productID,
		Quantity:        qty,
		UnitPrice:       unitPrice,
		SelectedOptions: options,
		AddedAt:         time.Now(),
	}
	line.refreshTotal()
	c.Items = append(c.Items, line)
}

// SetQuantity sets the quantity for the product's line. A quantity of zero
// or less removes the line instead; that is a normalization, not an error.
func (c *Cart) SetQuantity(productID string, qty int) error {
	if qty <= 0 {
		return c.RemoveItem(productID)
	}
	line := c.findLine(productID)
	if line == nil {
		return ErrItemNotFound
	}
	line.Quantity = qty
	line.refreshTotal()
	return nil
}

// RemoveItem deletes the product's line, preserving the order of the rest.
func (c *Cart) RemoveItem(productID string) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear empties the cart and zeroes every monetary field. The cart record
// itself survives so the owner mapping can be reused.
func (c *Cart) Clear() {
	c.Items = []Line{}
	c.Discounts = decimal.Zero
	c.DeliveryFee = decimal.Zero
}

// Recalculate derives Subtotal and Total from the line items. It is the only
// place those fields are written; every mutation must be followed by it.
// Total is clamped at zero when discounts exceed subtotal plus delivery fee.
func (c *Cart) Recalculate() {
	subtotal := decimal.Zero
	for i := range c.Items {
		subtotal = subtotal.Add(c.Items[i].LineTotal)
	}
	c.Subtotal = subtotal

	total := subtotal.Sub(c.Discounts).Add(c.DeliveryFee)
	if total.IsNegative() {
		total = decimal.Zero
	}
	c.Total = total
	c.UpdatedAt = time.Now()
}
