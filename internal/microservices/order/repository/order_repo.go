package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
	d  Dialect
}

func NewOrderRepository(db *sql.DB, d Dialect) *OrderRepository {
	return &OrderRepository{db: db, d: d}
}

const orderColumns = `id, customer_name, user_phone, payment_status, order_status, payment_mode, total_price, order_time, external_payment_ref`

func (r *OrderRepository) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, r.d.rebind(`
		INSERT INTO orders
			(customer_name, user_phone, payment_status, order_status, payment_mode, total_price, order_time, external_payment_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		o.CustomerName,
		o.Phone,
		string(o.PaymentStatus),
		string(o.OrderStatus),
		string(o.PaymentMode),
		o.TotalPrice,
		o.OrderTime.UTC(),
		nullString(o.ExternalPaymentRef),
	).Scan(&o.ID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, r.d.rebind(`
			INSERT INTO order_items (order_id, name, price, quantity) VALUES (?, ?, ?, ?)
		`), o.ID, it.Name, it.Price, it.Quantity); err != nil {
			return domain.Order{}, fmt.Errorf("failed to insert order item %s: %w", it.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) Update(ctx context.Context, o domain.Order) error {
	return r.update(ctx, r.db, o)
}

// Only the two status axes and the payment reference ever change after creation.
func (r *OrderRepository) update(ctx context.Context, q querier, o domain.Order) error {
	res, err := q.ExecContext(ctx, r.d.rebind(`
		UPDATE orders SET payment_status = ?, order_status = ?, external_payment_ref = ?
		WHERE id = ?
	`), string(o.PaymentStatus), string(o.OrderStatus), nullString(o.ExternalPaymentRef), o.ID)
	if err != nil {
		return fmt.Errorf("failed to update order %d: %w", o.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NewNotFoundError("order", o.ID)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (domain.Order, error) {
	return r.load(ctx, r.db, id, "")
}

func (r *OrderRepository) FindLatestByPhone(ctx context.Context, phone string) (domain.Order, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.d.rebind(`
		SELECT id FROM orders WHERE user_phone = ? ORDER BY id DESC LIMIT 1
	`), phone).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("failed to find latest order: %w", err)
	}
	o, err := r.load(ctx, r.db, id, "")
	if err != nil {
		return domain.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderRepository) Mutate(ctx context.Context, id int64, fn func(o *domain.Order) error) (domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	o, err := r.load(ctx, tx, id, r.d.lockClause())
	if err != nil {
		return domain.Order{}, err
	}
	before := o
	if err := fn(&o); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return before, err
		}
		return domain.Order{}, err
	}
	if err := r.update(ctx, tx, o); err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) FindUnlinked(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, r.d.rebind(`
		SELECT id FROM orders
		WHERE payment_mode IN (?, ?) AND payment_status = ? AND order_status = ?
			AND (external_payment_ref IS NULL OR external_payment_ref = '')
		ORDER BY id
	`), string(domain.PaymentUPI), string(domain.PaymentCard), string(domain.PaymentPending), string(domain.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked orders: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.load(ctx, r.db, id, "")
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *OrderRepository) load(ctx context.Context, q querier, id int64, lock string) (domain.Order, error) {
	var o domain.Order
	var payStatus, ordStatus, mode string
	var ts timeValue
	var ref sql.NullString
	err := q.QueryRowContext(ctx, r.d.rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`+lock), id).
		Scan(&o.ID, &o.CustomerName, &o.Phone, &payStatus, &ordStatus, &mode, &o.TotalPrice, &ts, &ref)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, errs.NewNotFoundError("order", id)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to load order %d: %w", id, err)
	}
	o.PaymentStatus = domain.PaymentStatus(payStatus)
	o.OrderStatus = domain.OrderStatus(ordStatus)
	o.PaymentMode = domain.PaymentMode(mode)
	o.OrderTime = ts.Time
	o.ExternalPaymentRef = ref.String

	rows, err := q.QueryContext(ctx, r.d.rebind(`
		SELECT name, price, quantity FROM order_items WHERE order_id = ? ORDER BY id
	`), id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to load items of order %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.Name, &it.Price, &it.Quantity); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timeValue scans timestamps from drivers that hand back either time.Time
// (pgx) or text (sqlite, depending on the declared column type).
type timeValue struct{ time.Time }

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

func (t *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into time", src)
}

func (t *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized time format %q", s)
}
