package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/domain"
)

// MemoryOrders keeps orders in process memory. One mutex guards every
// read-modify-write, which is what the row lock does for the SQL store.
type MemoryOrders struct {
	mu     sync.Mutex
	orders map[int64]domain.Order
	nextID int64
	now    func() time.Time
}

// NewMemoryOrders stamps orders created without a time using now; nil means
// time.Now.
func NewMemoryOrders(now func() time.Time) *MemoryOrders {
	if now == nil {
		now = time.Now
	}
	return &MemoryOrders{orders: make(map[int64]domain.Order), now: now}
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

func (m *MemoryOrders) Create(_ context.Context, o domain.Order) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	if o.OrderTime.IsZero() {
		o.OrderTime = m.now().UTC()
	}
	m.orders[o.ID] = cloneOrder(o)
	return cloneOrder(o), nil
}

func (m *MemoryOrders) Update(_ context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[o.ID]
	if !ok {
		return errs.NewNotFoundError("order", o.ID)
	}
	cur.PaymentStatus = o.PaymentStatus
	cur.OrderStatus = o.OrderStatus
	cur.ExternalPaymentRef = o.ExternalPaymentRef
	m.orders[o.ID] = cur
	return nil
}

func (m *MemoryOrders) FindByID(_ context.Context, id int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, errs.NewNotFoundError("order", id)
	}
	return cloneOrder(o), nil
}

func (m *MemoryOrders) FindLatestByPhone(_ context.Context, phone string) (domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		latest domain.Order
		found  bool
	)
	for id, o := range m.orders {
		if o.Phone == phone && (!found || id > latest.ID) {
			latest, found = o, true
		}
	}
	if !found {
		return domain.Order{}, false, nil
	}
	return cloneOrder(latest), true, nil
}

func (m *MemoryOrders) Mutate(_ context.Context, id int64, fn func(o *domain.Order) error) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[id]
	if !ok {
		return domain.Order{}, errs.NewNotFoundError("order", id)
	}
	o := cloneOrder(cur)
	if err := fn(&o); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return cloneOrder(cur), err
		}
		return domain.Order{}, err
	}
	cur.PaymentStatus = o.PaymentStatus
	cur.OrderStatus = o.OrderStatus
	cur.ExternalPaymentRef = o.ExternalPaymentRef
	m.orders[id] = cur
	return cloneOrder(cur), nil
}

func (m *MemoryOrders) FindUnlinked(_ context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.PaymentMode.Online() && o.PaymentStatus == domain.PaymentPending &&
			o.OrderStatus == domain.StatusPending && o.ExternalPaymentRef == "" {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type MemoryMenu struct {
	mu    sync.RWMutex
	items []domain.MenuItem
}

func NewMemoryMenu(items ...domain.MenuItem) *MemoryMenu {
	m := &MemoryMenu{}
	_ = m.Seed(context.Background(), items)
	return m
}

func (m *MemoryMenu) ListAvailable(_ context.Context) ([]domain.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.MenuItem
	for _, it := range m.items {
		if it.Available {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *MemoryMenu) FindByName(_ context.Context, name string) (domain.MenuItem, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range m.items {
		if strings.EqualFold(it.Name, strings.TrimSpace(name)) {
			return it, true, nil
		}
	}
	return domain.MenuItem{}, false, nil
}

func (m *MemoryMenu) Seed(_ context.Context, items []domain.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
next:
	for _, it := range items {
		for _, have := range m.items {
			if strings.EqualFold(have.Name, it.Name) {
				continue next
			}
		}
		it.ID = int64(len(m.items) + 1)
		m.items = append(m.items, it)
	}
	return nil
}

// Put replaces or adds an item. Tests use it to change prices and availability.
func (m *MemoryMenu) Put(it domain.MenuItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, have := range m.items {
		if strings.EqualFold(have.Name, it.Name) {
			it.ID = have.ID
			m.items[i] = it
			return
		}
	}
	it.ID = int64(len(m.items) + 1)
	m.items = append(m.items, it)
}

type MemoryRestaurant struct {
	mu   sync.RWMutex
	open bool
}

func NewMemoryRestaurant() *MemoryRestaurant { return &MemoryRestaurant{open: true} }

func (m *MemoryRestaurant) IsOpen(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.open, nil
}

func (m *MemoryRestaurant) SetOpen(_ context.Context, open bool) error {
	m.mu.Lock()
	m.open = open
	m.mu.Unlock()
	return nil
}
