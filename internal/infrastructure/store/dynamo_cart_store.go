package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-cart/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// DynamoCartStore persists carts in DynamoDB, one item per cart. Puts are
// unconditional, matching the last-write-wins behavior of the Postgres store.
type DynamoCartStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoCart represents the DynamoDB item structure. Monetary values are
// stored as decimal strings to survive the round trip exactly.
type dynamoCart struct {
	CartID      string `dynamodbav:"cart_id"`
	OwnerKind   string `dynamodbav:"owner_kind"`
	OwnerID     string `dynamodbav:"owner_id"`
	Items       string `dynamodbav:"items"`
	Subtotal    string `dynamodbav:"subtotal"`
	Discounts   string `dynamodbav:"discounts"`
	DeliveryFee string `dynamodbav:"delivery_fee"`
	Total       string `dynamodbav:"total"`
	CreatedAt   string `dynamodbav:"created_at"`
	UpdatedAt   string `dynamodbav:"updated_at"`
}

func NewDynamoCartStore(client *dynamodb.Client, tableName string) *DynamoCartStore {
	return &DynamoCartStore{client: client, tableName: tableName}
}

func (s *DynamoCartStore) Get(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"cart_id": &types.AttributeValueMemberS{Value: cart.CartID(owner)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if result.Item == nil {
		return nil, cart.ErrCartNotFound
	}

	var item dynamoCart
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart item: %w", err)
	}
	return item.toCart()
}

func (s *DynamoCartStore) Save(ctx context.Context, c *cart.Cart) error {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	item := dynamoCart{
		CartID:      c.ID,
		OwnerKind:   string(c.OwnerKind),
		OwnerID:     c.OwnerID,
		Items:       string(itemsJSON),
		Subtotal:    c.Subtotal.String(),
		Discounts:   c.Discounts.String(),
		DeliveryFee: c.DeliveryFee.String(),
		Total:       c.Total.String(),
		CreatedAt:   c.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put cart: %w", err)
	}
	return nil
}

func (d *dynamoCart) toCart() (*cart.Cart, error) {
	c := cart.Cart{
		ID:        d.CartID,
		OwnerKind: cart.OwnerKind(d.OwnerKind),
		OwnerID:   d.OwnerID,
	}

	if err := json.Unmarshal([]byte(d.Items), &c.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart items: %w", err)
	}

	var err error
	if c.Subtotal, err = decimal.NewFromString(d.Subtotal); err != nil {
		return nil, fmt.Errorf("failed to parse subtotal: %w", err)
	}
	if c.Discounts, err = decimal.NewFromString(d.Discounts); err != nil {
		return nil, fmt.Errorf("failed to parse discounts: %w", err)
	}
	if c.DeliveryFee, err = decimal.NewFromString(d.DeliveryFee); err != nil {
		return nil, fmt.Errorf("failed to parse delivery_fee: %w", err)
	}
	if c.Total, err = decimal.NewFromString(d.Total); err != nil {
		return nil, fmt.Errorf("failed to parse total: %w", err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, d.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339Nano, d.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &c, nil
}
