package menu

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("menu: item not found")
	ErrUnavailable = errors.New("menu: item is not available")
)

// Item is a dish on the restaurant menu. Price is in major currency units
// (whole rubles); conversion to minor units happens at the payment boundary.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Category    string
	Ingredients []string
	Available   bool
}

type Repository interface {
	Get(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
}
