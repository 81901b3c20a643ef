package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/example/ec-cart/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// PostgresCartStore persists carts in PostgreSQL, one row per cart with the
// line items serialized as JSONB. Save is an unconditional upsert, so
// concurrent writers race and the last write wins.
type PostgresCartStore struct {
	db *sql.DB
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db}
}

func (s *PostgresCartStore) Get(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	var (
		c         cart.Cart
		itemsJSON []byte
		subtotal, discounts, deliveryFee, total string
		ownerKind string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_kind, owner_id, items, subtotal, discounts, delivery_fee, total, created_at, updated_at
		FROM carts WHERE id = $1
	`, cart.CartID(owner)).Scan(
		&c.ID, &ownerKind, &c.OwnerID, &itemsJSON,
		&subtotal, &discounts, &deliveryFee, &total,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	c.OwnerKind = cart.OwnerKind(ownerKind)

	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	if c.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("decode subtotal: %w", err)
	}
	if c.Discounts, err = decimal.NewFromString(discounts); err != nil {
		return nil, fmt.Errorf("decode discounts: %w", err)
	}
	if c.DeliveryFee, err = decimal.NewFromString(deliveryFee); err != nil {
		return nil, fmt.Errorf("decode delivery_fee: %w", err)
	}
	if c.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("decode total: %w", err)
	}
	return &c, nil
}

func (s *PostgresCartStore) Save(ctx context.Context, c *cart.Cart) error {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO carts (id, owner_kind, owner_id, items, subtotal, discounts, delivery_fee, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			subtotal = EXCLUDED.subtotal,
			discounts = EXCLUDED.discounts,
			delivery_fee = EXCLUDED.delivery_fee,
			total = EXCLUDED.total,
			updated_at = EXCLUDED.updated_at
	`, c.ID, string(c.OwnerKind), c.OwnerID, itemsJSON,
		c.Subtotal.String(), c.Discounts.String(), c.DeliveryFee.String(), c.Total.String(),
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
