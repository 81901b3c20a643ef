package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-cart/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Repository is the persistence port for carts. Writes are last-write-wins:
// two concurrent mutations of the same cart may race and the later Save
// silently overwrites the earlier one.
type Repository interface {
	Get(ctx context.Context, owner Owner) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
}

// Catalog resolves product IDs against the external product catalog.
type Catalog interface {
	Get(ctx context.Context, productID string) (*catalog.Product, error)
}

// Cache is an optional read-through cache in front of the repository.
// Implementations return ErrCacheMiss when the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) (*Cart, error)
	Set(ctx context.Context, key string, c *Cart) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Service is the cart pricing engine. Every mutation loads the cart,
// applies the change, recalculates totals and saves the result.
type Service struct {
	repo      Repository
	catalog   Catalog
	publisher EventPublisher
	cache     Cache
	sfg       singleflight.Group // prevents cache stampede on reads
}

func NewService(repo Repository, cat Catalog, publisher EventPublisher, cache Cache) *Service {
	return &Service{
		repo:      repo,
		catalog:   cat,
		publisher: publisher,
		cache:     cache,
	}
}

// GetOrCreateCart returns the owner's cart, creating and persisting an empty
// one on first access. Repeated calls for the same owner return the same
// logical cart.
func (s *Service) GetOrCreateCart(ctx context.Context, owner Owner) (*Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidIdentity
	}

	v, err, _ := s.sfg.Do(owner.Key(), func() (interface{}, error) {
		if s.cache != nil {
			c, errGet := s.cache.Get(ctx, owner.Key())
			if errGet == nil {
				return c, nil
			}
			if !errors.Is(errGet, ErrCacheMiss) {
				log.Printf("[Cart] cache get error: %v", errGet)
			}
		}

		c, errGet := s.repo.Get(ctx, owner)
		if errors.Is(errGet, ErrCartNotFound) {
			c = New(owner)
			if errSave := s.repo.Save(ctx, c); errSave != nil {
				return nil, fmt.Errorf("create cart: %w", errSave)
			}
		} else if errGet != nil {
			return nil, errGet
		}

		if s.cache != nil {
			go func(snapshot *Cart) {
				if errSet := s.cache.Set(context.Background(), owner.Key(), snapshot); errSet != nil {
					log.Printf("[Cart] cache set error: %v", errSet)
				}
			}(c)
		}

		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Cart), nil
}

// AddItem adds a product to the owner's cart, merging into an existing line
// when the product is already present. The unit price is snapshotted from
// the catalog at first add.
func (s *Service) AddItem(ctx context.Context, owner Owner, productID string, qty int, options map[string]string) (*Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidIdentity
	}
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.loadOrNew(ctx, owner)
	if err != nil {
		return nil, err
	}

	c.AddItem(productID, qty, p.Price, options)
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.publish(ctx, c, EventItemAdded, ItemAdded{
		CartID:    c.ID,
		Owner:     owner,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: p.Price,
		AddedAt:   time.Now(),
	})
	return c, nil
}

// UpdateQuantity sets the line's quantity. A quantity of zero or less is
// treated as a removal.
func (s *Service) UpdateQuantity(ctx context.Context, owner Owner, productID string, qty int) (*Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidIdentity
	}
	if qty <= 0 {
		return s.RemoveItem(ctx, owner, productID)
	}

	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := c.SetQuantity(productID, qty); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.publish(ctx, c, EventQuantityUpdated, QuantityUpdated{
		CartID:    c.ID,
		Owner:     owner,
		ProductID: productID,
		Quantity:  qty,
		UpdatedAt: time.Now(),
	})
	return c, nil
}

// RemoveItem deletes the product's line from the owner's cart.
func (s *Service) RemoveItem(ctx context.Context, owner Owner, productID string) (*Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidIdentity
	}

	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveItem(productID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.publish(ctx, c, EventItemRemoved, ItemRemoved{
		CartID:    c.ID,
		Owner:     owner,
		ProductID: productID,
		RemovedAt: time.Now(),
	})
	return c, nil
}

// ClearCart empties the cart and zeroes its totals. The record itself is
// kept so the owner mapping survives.
func (s *Service) ClearCart(ctx context.Context, owner Owner) error {
	if !owner.Valid() {
		return ErrInvalidIdentity
	}

	c, err := s.loadOrNew(ctx, owner)
	if err != nil {
		return err
	}
	c.Clear()
	if err := s.save(ctx, c); err != nil {
		return err
	}

	s.publish(ctx, c, EventCartCleared, Cleared{
		CartID:    c.ID,
		Owner:     owner,
		ClearedAt: time.Now(),
	})
	return nil
}

// ApplyDiscount records an externally computed discount amount on the cart.
// Eligibility is decided elsewhere; this only stores the amount and reprices.
func (s *Service) ApplyDiscount(ctx context.Context, owner Owner, amount decimal.Decimal) (*Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidIdentity
	}
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	c, err := s.loadOrNew(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.Discounts = amount
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.publish(ctx, c, EventDiscountApplied, DiscountApplied{
		CartID:    c.ID,
		Owner:     owner,
		Amount:    amount,
		AppliedAt: time.Now(),
	})
	return c, nil
}

// SetDeliveryFee records the delivery fee for the cart and reprices.
func (s *Service) SetDeliveryFee(ctx context.Context, owner Owner, amount decimal.Decimal) (*Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidIdentity
	}
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	c, err := s.loadOrNew(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.DeliveryFee = amount
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// load fetches the owner's cart; a missing cart surfaces as ErrItemNotFound
// since the operations that use it target an existing line.
func (s *Service) load(ctx context.Context, owner Owner) (*Cart, error) {
	c, err := s.repo.Get(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) loadOrNew(ctx context.Context, owner Owner) (*Cart, error) {
	c, err := s.repo.Get(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return New(owner), nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// save recalculates totals and persists the cart. This is the single write
// path for Subtotal and Total.
func (s *Service) save(ctx context.Context, c *Cart) error {
	c.Recalculate()
	if err := s.repo.Save(ctx, c); err != nil {
		return err
	}
	s.invalidateCache(c.Owner())
	return nil
}

func (s *Service) invalidateCache(owner Owner) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, owner.Key()); err != nil {
		log.Printf("[Cart] cache invalidate error: %v", err)
	}
}

func (s *Service) publish(ctx context.Context, c *Cart, eventType string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, c.ID, eventType, event); err != nil {
		log.Printf("[Cart] failed to publish %s for cart %s: %v", eventType, c.ID, err)
	}
}
