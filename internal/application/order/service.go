// Package order implements the checkout workflow: items are validated and
// priced against the menu catalog on the server, never trusted from the
// client.
package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/zakazhi/orderpay/internal/domain/menu"
	domain "github.com/zakazhi/orderpay/internal/domain/order"
	domoutbox "github.com/zakazhi/orderpay/internal/domain/outbox"
	"github.com/zakazhi/orderpay/internal/pkg/logging"
)

const numberAttempts = 5

type Service struct {
	repo        domain.Repository
	menuRepo    menu.Repository
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
}

func NewService(repo domain.Repository, menuRepo menu.Repository, idGen IDGenerator, publisher domoutbox.Publisher) *Service {
	return &Service{
		repo:        repo,
		menuRepo:    menuRepo,
		idGenerator: idGen,
		publisher:   publisher,
	}
}

type CheckoutLine struct {
	ItemID             string
	Quantity           int
	RemovedIngredients []string
}

// Checkout places an order from the given cart lines. Prices come from the
// catalog; the resulting order number is the short reference shown to the
// customer and used for payment.
func (s *Service) Checkout(ctx context.Context, lines []CheckoutLine) (*domain.Order, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	orderLines := make([]domain.Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		item, err := s.menuRepo.Get(ctx, l.ItemID)
		if err != nil {
			return nil, fmt.Errorf("order: item %q: %w", l.ItemID, err)
		}
		if !item.Available {
			return nil, fmt.Errorf("order: item %q: %w", l.ItemID, menu.ErrUnavailable)
		}
		orderLines = append(orderLines, domain.Line{
			ItemID:             item.ID,
			Name:               item.Name,
			UnitPrice:          item.Price,
			Quantity:           l.Quantity,
			RemovedIngredients: append([]string(nil), l.RemovedIngredients...),
		})
	}

	number, err := s.newOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	entity, err := domain.New(s.idGenerator.NewID(), number, orderLines)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, entity); err != nil {
		logger.Error("order_save_failed", zap.String("order_number", number), zap.Error(err))
		return nil, fmt.Errorf("order: save: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.NewOrderPlacedEvent(entity)); err != nil {
			logger.Warn("order_placed_event_publish_failed",
				zap.String("order_number", number), zap.Error(err))
		}
	}

	logger.Info("order_placed",
		zap.String("order_number", number),
		zap.Int64("total_amount", entity.TotalAmount),
		zap.Int("lines", len(entity.Lines)),
	)
	return entity.Clone(), nil
}

// Get returns a placed order by its customer-facing number.
func (s *Service) Get(ctx context.Context, number string) (*domain.Order, error) {
	return s.repo.FindByNumber(ctx, number)
}

// newOrderNumber picks a free 4-digit number, the format kitchen staff call
// out. With a day's worth of orders collisions stay rare; a handful of
// retries is enough.
func (s *Service) newOrderNumber(ctx context.Context) (string, error) {
	for i := 0; i < numberAttempts; i++ {
		number := fmt.Sprintf("%d", 1000+rand.IntN(9000))
		if _, err := s.repo.FindByNumber(ctx, number); errors.Is(err, domain.ErrNotFound) {
			return number, nil
		}
	}
	return "", fmt.Errorf("order: could not allocate an order number")
}
