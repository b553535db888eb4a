package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/domain"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(context.Background(), db, SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// backends runs fn against every store implementation.
func backends(t *testing.T, fn func(t *testing.T, repo *Repository)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, New(openSQLite(t), SQLite)) })
}

func sampleOrder(phone string) domain.Order {
	items := []domain.OrderItem{
		{Name: "Burger", Price: decimal.NewFromInt(100), Quantity: 2},
		{Name: "Fries", Price: decimal.NewFromInt(50), Quantity: 1},
	}
	return domain.Order{
		CustomerName:  "Asha",
		Phone:         phone,
		PaymentStatus: domain.PaymentPending,
		OrderStatus:   domain.StatusPending,
		PaymentMode:   domain.PaymentCash,
		TotalPrice:    decimal.NewFromInt(250),
		OrderTime:     time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC),
		Items:         items,
	}
}

func TestOrderCreateAndFind(t *testing.T) {
	backends(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		created, err := repo.OrderRepo.Create(ctx, sampleOrder("911"))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if created.ID == 0 {
			t.Fatal("Create did not assign an id")
		}

		got, err := repo.OrderRepo.FindByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if !got.TotalPrice.Equal(decimal.NewFromInt(250)) {
			t.Errorf("total = %s, want 250", got.TotalPrice)
		}
		if len(got.Items) != 2 || got.Items[0].Name != "Burger" || got.Items[0].Quantity != 2 {
			t.Errorf("items = %+v", got.Items)
		}
		if !got.Items[1].Price.Equal(decimal.NewFromInt(50)) {
			t.Errorf("fries price = %s", got.Items[1].Price)
		}
		if !got.OrderTime.Equal(created.OrderTime) {
			t.Errorf("order time = %v, want %v", got.OrderTime, created.OrderTime)
		}
		if got.ExternalPaymentRef != "" {
			t.Errorf("ref = %q, want empty", got.ExternalPaymentRef)
		}
	})
}

func TestFindByIDUnknown(t *testing.T) {
	backends(t, func(t *testing.T, repo *Repository) {
		_, err := repo.OrderRepo.FindByID(context.Background(), 404)
		if !errs.IsNotFound(err) {
			t.Errorf("err = %v, want NotFoundError", err)
		}
	})
}

func TestFindLatestByPhone(t *testing.T) {
	backends(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		if _, ok, err := repo.OrderRepo.FindLatestByPhone(ctx, "911"); err != nil || ok {
			t.Fatalf("empty store: ok=%v err=%v", ok, err)
		}
		first, _ := repo.OrderRepo.Create(ctx, sampleOrder("911"))
		_, _ = repo.OrderRepo.Create(ctx, sampleOrder("922"))
		second, _ := repo.OrderRepo.Create(ctx, sampleOrder("911"))

		got, ok, err := repo.OrderRepo.FindLatestByPhone(ctx, "911")
		if err != nil || !ok {
			t.Fatalf("FindLatestByPhone: ok=%v err=%v", ok, err)
		}
		if got.ID != second.ID || got.ID == first.ID {
			t.Errorf("latest id = %d, want %d", got.ID, second.ID)
		}
	})
}

func TestMutate(t *testing.T) {
	backends(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		o, _ := repo.OrderRepo.Create(ctx, sampleOrder("911"))

		updated, err := repo.OrderRepo.Mutate(ctx, o.ID, func(o *domain.Order) error {
			o.PaymentStatus = domain.PaymentConfirmed
			o.ExternalPaymentRef = "pay_1"
			return nil
		})
		if err != nil {
			t.Fatalf("Mutate: %v", err)
		}
		if updated.PaymentStatus != domain.PaymentConfirmed {
			t.Errorf("returned payment status = %s", updated.PaymentStatus)
		}

		boom := errors.New("boom")
		if _, err := repo.OrderRepo.Mutate(ctx, o.ID, func(o *domain.Order) error {
			o.OrderStatus = domain.StatusCancelled
			return boom
		}); !errors.Is(err, boom) {
			t.Fatalf("Mutate err = %v, want boom", err)
		}

		cur, err := repo.OrderRepo.Mutate(ctx, o.ID, func(o *domain.Order) error {
			o.OrderStatus = domain.StatusCancelled
			return ErrUnchanged
		})
		if !errors.Is(err, ErrUnchanged) || cur.ID != o.ID {
			t.Fatalf("Mutate unchanged = %+v, %v", cur, err)
		}

		got, _ := repo.OrderRepo.FindByID(ctx, o.ID)
		if got.OrderStatus != domain.StatusPending {
			t.Errorf("order status = %s, failed callbacks must not persist", got.OrderStatus)
		}
		if got.PaymentStatus != domain.PaymentConfirmed || got.ExternalPaymentRef != "pay_1" {
			t.Errorf("payment = %s/%q", got.PaymentStatus, got.ExternalPaymentRef)
		}

		if _, err := repo.OrderRepo.Mutate(ctx, 999, func(*domain.Order) error { return nil }); !errs.IsNotFound(err) {
			t.Errorf("Mutate unknown err = %v", err)
		}
	})
}

func TestFindUnlinked(t *testing.T) {
	backends(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		cash, _ := repo.OrderRepo.Create(ctx, sampleOrder("1"))

		upi := sampleOrder("2")
		upi.PaymentMode = domain.PaymentUPI
		unlinked, _ := repo.OrderRepo.Create(ctx, upi)

		card := sampleOrder("3")
		card.PaymentMode = domain.PaymentCard
		card.ExternalPaymentRef = "plink_1"
		_, _ = repo.OrderRepo.Create(ctx, card)

		got, err := repo.OrderRepo.FindUnlinked(ctx)
		if err != nil {
			t.Fatalf("FindUnlinked: %v", err)
		}
		if len(got) != 1 || got[0].ID != unlinked.ID {
			t.Errorf("unlinked = %+v, want only order %d (cash order %d excluded)", got, unlinked.ID, cash.ID)
		}
	})
}

func TestMenuCatalog(t *testing.T) {
	backends(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		seed := []domain.MenuItem{
			{Name: "Burger", Description: "Veg", Price: decimal.NewFromInt(100), Available: true},
			{Name: "Fries", Price: decimal.NewFromInt(50), Available: true},
			{Name: "Soup", Price: decimal.NewFromInt(80), Available: false},
		}
		if err := repo.MenuRepo.Seed(ctx, seed); err != nil {
			t.Fatalf("Seed: %v", err)
		}
		if err := repo.MenuRepo.Seed(ctx, seed); err != nil {
			t.Fatalf("second Seed: %v", err)
		}

		avail, err := repo.MenuRepo.ListAvailable(ctx)
		if err != nil {
			t.Fatalf("ListAvailable: %v", err)
		}
		if len(avail) != 2 || avail[0].Name != "Burger" || avail[1].Name != "Fries" {
			t.Errorf("available = %+v", avail)
		}

		it, ok, err := repo.MenuRepo.FindByName(ctx, "bUrGeR")
		if err != nil || !ok || it.Name != "Burger" || !it.Price.Equal(decimal.NewFromInt(100)) {
			t.Errorf("FindByName(bUrGeR) = %+v, %v, %v", it, ok, err)
		}
		soup, ok, _ := repo.MenuRepo.FindByName(ctx, "soup")
		if !ok || soup.Available {
			t.Errorf("unavailable items must still resolve: %+v %v", soup, ok)
		}
		if _, ok, _ := repo.MenuRepo.FindByName(ctx, "Burg"); ok {
			t.Error("FindByName matched a prefix")
		}
	})
}

func TestRestaurantStatus(t *testing.T) {
	backends(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		open, err := repo.RestaurantRepo.IsOpen(ctx)
		if err != nil || !open {
			t.Fatalf("default IsOpen = %v, %v", open, err)
		}
		for _, want := range []bool{false, false, true} {
			if err := repo.RestaurantRepo.SetOpen(ctx, want); err != nil {
				t.Fatalf("SetOpen(%v): %v", want, err)
			}
			if got, _ := repo.RestaurantRepo.IsOpen(ctx); got != want {
				t.Errorf("IsOpen = %v, want %v", got, want)
			}
		}
	})
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE b = ? AND c IN (?, ?)`
	if got := Postgres.rebind(q); got != `SELECT a FROM t WHERE b = $1 AND c IN ($2, $3)` {
		t.Errorf("postgres rebind = %s", got)
	}
	if got := SQLite.rebind(q); got != q {
		t.Errorf("sqlite rebind changed the query: %s", got)
	}
}
