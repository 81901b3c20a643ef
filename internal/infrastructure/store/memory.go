package store

import (
	"context"
	"sync"

	"github.com/example/ec-cart/internal/domain/cart"
	"github.com/example/ec-cart/internal/domain/catalog"
)

// MemoryCartStore is an in-memory cart repository, used for local runs and
// tests. Semantics match the persistent stores: unconditional last-write-wins
// saves, keyed by cart ID.
type MemoryCartStore struct {
	mu    sync.RWMutex
	carts map[string]cart.Cart
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]cart.Cart)}
}

func (s *MemoryCartStore) Get(_ context.Context, owner cart.Owner) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[cart.CartID(owner)]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	clone := c
	clone.Items = append([]cart.Line(nil), c.Items...)
	return &clone, nil
}

func (s *MemoryCartStore) Save(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *c
	clone.Items = append([]cart.Line(nil), c.Items...)
	s.carts[c.ID] = clone
	return nil
}

// MemoryProductStore is an in-memory catalog backend.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[string]catalog.Product)}
}

func (s *MemoryProductStore) Get(_ context.Context, id string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	clone := p
	return &clone, nil
}

func (s *MemoryProductStore) List(_ context.Context) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]*catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		clone := p
		products = append(products, &clone)
	}
	return products, nil
}

func (s *MemoryProductStore) Save(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = *p
	return nil
}
