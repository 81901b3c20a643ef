package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/ec-cart/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// PostgresProductStore is the catalog read model carts snapshot prices from.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

func (s *PostgresProductStore) Get(ctx context.Context, id string) (*catalog.Product, error) {
	var (
		p     catalog.Product
		price string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, created_at, updated_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &price, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("decode price: %w", err)
	}
	return &p, nil
}

func (s *PostgresProductStore) List(ctx context.Context) ([]*catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, created_at, updated_at
		FROM products ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		var (
			p     catalog.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("decode price: %w", err)
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

func (s *PostgresProductStore) Save(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.Description, p.Price.String(), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}
