package order

import "context"

type Repository interface {
	Save(ctx context.Context, order *Order) error
	FindByNumber(ctx context.Context, number string) (*Order, error)
	Update(ctx context.Context, order *Order) error
}
