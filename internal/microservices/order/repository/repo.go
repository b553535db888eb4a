package repository

import (
	"context"
	"database/sql"
	"errors"

	"restaurant-chatbot/internal/domain"
)

// ErrUnchanged is returned by a Mutate callback that decided the order needs
// no write. Mutate then commits nothing and hands back the current row.
var ErrUnchanged = errors.New("order unchanged")

type OrderStore interface {
	// Create persists o with its item lines and returns it with the assigned id.
	Create(ctx context.Context, o domain.Order) (domain.Order, error)
	Update(ctx context.Context, o domain.Order) error
	FindByID(ctx context.Context, id int64) (domain.Order, error)
	// FindLatestByPhone reports false when the phone never ordered.
	FindLatestByPhone(ctx context.Context, phone string) (domain.Order, bool, error)
	// Mutate re-reads the order under the store's write lock, applies fn and
	// persists the result in the same transaction.
	Mutate(ctx context.Context, id int64, fn func(o *domain.Order) error) (domain.Order, error)
	// FindUnlinked lists online orders still Pending/Pending with no payment
	// reference attached.
	FindUnlinked(ctx context.Context) ([]domain.Order, error)
}

type MenuCatalog interface {
	ListAvailable(ctx context.Context) ([]domain.MenuItem, error)
	// FindByName matches case-insensitively and exactly, availability aside.
	FindByName(ctx context.Context, name string) (domain.MenuItem, bool, error)
	Seed(ctx context.Context, items []domain.MenuItem) error
}

type RestaurantStatus interface {
	IsOpen(ctx context.Context) (bool, error)
	SetOpen(ctx context.Context, open bool) error
}

type Repository struct {
	OrderRepo      OrderStore
	MenuRepo       MenuCatalog
	RestaurantRepo RestaurantStatus
}

func New(db *sql.DB, d Dialect) *Repository {
	return &Repository{
		OrderRepo:      NewOrderRepository(db, d),
		MenuRepo:       NewMenuRepository(db, d),
		RestaurantRepo: NewRestaurantRepository(db, d),
	}
}

func NewMemory() *Repository {
	return &Repository{
		OrderRepo:      NewMemoryOrders(nil),
		MenuRepo:       NewMemoryMenu(),
		RestaurantRepo: NewMemoryRestaurant(),
	}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
