package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/zakazhi/orderpay/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.Number == "" {
		return fmt.Errorf("order repository: number is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[order.Number] = order.Clone()
	return nil
}

func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[number]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return order.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.Number == "" {
		return fmt.Errorf("order repository: number is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.Number]; !exists {
		return domain.ErrNotFound
	}

	r.orders[order.Number] = order.Clone()
	return nil
}
