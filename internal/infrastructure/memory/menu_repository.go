package memory

import (
	"context"
	"sync"

	"github.com/zakazhi/orderpay/internal/domain/menu"
)

type MenuRepository struct {
	mu    sync.RWMutex
	items map[string]*menu.Item
	order []string
}

func NewMenuRepository(items []*menu.Item) *MenuRepository {
	r := &MenuRepository{
		items: make(map[string]*menu.Item, len(items)),
		order: make([]string, 0, len(items)),
	}
	for _, item := range items {
		if item == nil || item.ID == "" {
			continue
		}
		clone := *item
		clone.Ingredients = append([]string(nil), item.Ingredients...)
		r.items[item.ID] = &clone
		r.order = append(r.order, item.ID)
	}
	return r
}

func (r *MenuRepository) Get(ctx context.Context, id string) (*menu.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, menu.ErrNotFound
	}

	clone := *item
	clone.Ingredients = append([]string(nil), item.Ingredients...)
	return &clone, nil
}

func (r *MenuRepository) List(ctx context.Context) ([]*menu.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*menu.Item, 0, len(r.order))
	for _, id := range r.order {
		item := r.items[id]
		clone := *item
		clone.Ingredients = append([]string(nil), item.Ingredients...)
		out = append(out, &clone)
	}
	return out, nil
}

// DefaultMenu seeds the catalog the kiosk ships with.
func DefaultMenu() []*menu.Item {
	return []*menu.Item{
		{
			ID:          "1",
			Name:        "Стейк Рибай",
			Description: "Сочный стейк из мраморной говядины с овощами гриль",
			Price:       1850,
			Category:    "Основные блюда",
			Ingredients: []string{"Говядина рибай 300г", "Овощи гриль", "Соус демиглас", "Специи"},
			Available:   true,
		},
		{
			ID:          "2",
			Name:        "Паста Карбонара",
			Description: "Классическая итальянская паста с беконом и сливочным соусом",
			Price:       890,
			Category:    "Основные блюда",
			Ingredients: []string{"Спагетти", "Бекон", "Яйца", "Пармезан", "Сливки"},
			Available:   true,
		},
		{
			ID:          "3",
			Name:        "Лосось на гриле",
			Description: "Филе норвежского лосося с киноа и лимонным соусом",
			Price:       1450,
			Category:    "Основные блюда",
			Ingredients: []string{"Филе лосося 250г", "Киноа", "Лимонный соус", "Шпинат", "Оливковое масло"},
			Available:   true,
		},
		{
			ID:          "4",
			Name:        "Зелёный салат",
			Description: "Микс свежих овощей с авокадо и бальзамической заправкой",
			Price:       650,
			Category:    "Салаты",
			Ingredients: []string{"Салат романо", "Авокадо", "Огурцы", "Помидоры черри", "Бальзамический уксус", "Оливковое масло"},
			Available:   true,
		},
		{
			ID:          "5",
			Name:        "Куриная грудка",
			Description: "Нежная куриная грудка на гриле с овощами и рисом басмати",
			Price:       790,
			Category:    "Основные блюда",
			Ingredients: []string{"Куриная грудка 200г", "Рис басмати", "Цукини", "Морковь", "Специи"},
			Available:   true,
		},
		{
			ID:          "6",
			Name:        "Шоколадный торт",
			Description: "Богатый шоколадный торт с ганашем и свежими ягодами",
			Price:       550,
			Category:    "Десерты",
			Ingredients: []string{"Темный шоколад", "Яйца", "Сахар", "Сливочное масло", "Мука", "Ягоды"},
			Available:   true,
		},
		{
			ID:          "7",
			Name:        "Тирамису",
			Description: "Классический итальянский десерт с маскарпоне и кофе",
			Price:       490,
			Category:    "Десерты",
			Ingredients: []string{"Маскарпоне", "Савоярди", "Эспрессо", "Яйца", "Какао", "Сахар"},
			Available:   true,
		},
		{
			ID:          "8",
			Name:        "Том Ям",
			Description: "Острый тайский суп с креветками и грибами",
			Price:       720,
			Category:    "Супы",
			Ingredients: []string{"Креветки", "Грибы", "Лемонграсс", "Перец чили", "Лайм", "Кокосовое молоко"},
			Available:   true,
		},
	}
}
