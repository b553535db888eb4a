package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restaurant-chatbot/internal/domain"
)

type MenuRepository struct {
	db *sql.DB
	d  Dialect
}

func NewMenuRepository(db *sql.DB, d Dialect) *MenuRepository {
	return &MenuRepository{db: db, d: d}
}

func (r *MenuRepository) ListAvailable(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, r.d.rebind(`
		SELECT id, name, description, price, available FROM menu_items
		WHERE available = ? ORDER BY id
	`), true)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var it domain.MenuItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Available); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *MenuRepository) FindByName(ctx context.Context, name string) (domain.MenuItem, bool, error) {
	var it domain.MenuItem
	err := r.db.QueryRowContext(ctx, r.d.rebind(`
		SELECT id, name, description, price, available FROM menu_items
		WHERE LOWER(name) = LOWER(?)
	`), name).Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MenuItem{}, false, nil
	}
	if err != nil {
		return domain.MenuItem{}, false, fmt.Errorf("failed to find menu item %q: %w", name, err)
	}
	return it, true, nil
}

// Seed inserts items whose names are not on the menu yet. Existing rows keep
// whatever the owner changed.
func (r *MenuRepository) Seed(ctx context.Context, items []domain.MenuItem) error {
	for _, it := range items {
		if _, err := r.db.ExecContext(ctx, r.d.rebind(`
			INSERT INTO menu_items (name, description, price, available) VALUES (?, ?, ?, ?)
			ON CONFLICT (name) DO NOTHING
		`), it.Name, it.Description, it.Price, it.Available); err != nil {
			return fmt.Errorf("failed to seed menu item %s: %w", it.Name, err)
		}
	}
	return nil
}

// restaurantRow is the single row holding the open flag.
const restaurantRow = 1

type RestaurantRepository struct {
	db *sql.DB
	d  Dialect
}

func NewRestaurantRepository(db *sql.DB, d Dialect) *RestaurantRepository {
	return &RestaurantRepository{db: db, d: d}
}

// IsOpen defaults to open until an owner says otherwise.
func (r *RestaurantRepository) IsOpen(ctx context.Context) (bool, error) {
	var open bool
	err := r.db.QueryRowContext(ctx, r.d.rebind(`SELECT is_open FROM restaurant_info WHERE id = ?`), restaurantRow).Scan(&open)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read restaurant status: %w", err)
	}
	return open, nil
}

func (r *RestaurantRepository) SetOpen(ctx context.Context, open bool) error {
	_, err := r.db.ExecContext(ctx, r.d.rebind(`
		INSERT INTO restaurant_info (id, is_open) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET is_open = excluded.is_open
	`), restaurantRow, open)
	if err != nil {
		return fmt.Errorf("failed to set restaurant status: %w", err)
	}
	return nil
}
