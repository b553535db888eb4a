package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-chatbot/internal/common/config"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/connections/database"
	"restaurant-chatbot/internal/domain"
	"restaurant-chatbot/internal/microservices/order/handlers"
	"restaurant-chatbot/internal/microservices/order/repository"
	"restaurant-chatbot/internal/microservices/order/service"
)

// OpenStorage connects the configured backend, applies the schema and seeds
// the menu. The returned close func is never nil.
func OpenStorage(ctx context.Context, cfg config.App, log *logger.Logger) (*repository.Repository, func() error, error) {
	var (
		db      *sql.DB
		dialect repository.Dialect
		err     error
	)
	switch cfg.Storage.Driver {
	case "memory":
		repo := repository.NewMemory()
		if err := SeedMenu(ctx, repo.MenuRepo, cfg.Menu); err != nil {
			return nil, nil, err
		}
		log.Warn("storage_in_memory", nil, map[string]any{"reason": "orders are lost on restart"})
		return repo, func() error { return nil }, nil
	case "sqlite":
		db, err = database.OpenSQLite(cfg.Storage.SQLitePath)
		dialect = repository.SQLite
	default:
		db, err = database.ConnectPostgres(ctx, cfg.Database)
		dialect = repository.Postgres
	}
	if err != nil {
		return nil, nil, err
	}

	if err := repository.Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", dialect, err)
	}
	repo := repository.New(db, dialect)
	if err := SeedMenu(ctx, repo.MenuRepo, cfg.Menu); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("storage_ready", map[string]any{"driver": dialect.String()})
	return repo, db.Close, nil
}

// SeedMenu inserts configured items that are not on the menu yet.
func SeedMenu(ctx context.Context, menu repository.MenuCatalog, seed []config.MenuSeed) error {
	if len(seed) == 0 {
		return nil
	}
	items := make([]domain.MenuItem, 0, len(seed))
	for _, s := range seed {
		items = append(items, domain.MenuItem{
			Name:        s.Name,
			Description: s.Description,
			Price:       decimal.NewFromFloat(s.Price).Round(2),
			Available:   s.Available,
		})
	}
	if err := menu.Seed(ctx, items); err != nil {
		return fmt.Errorf("seed menu: %w", err)
	}
	return nil
}

type Module struct {
	Lifecycle *service.LifecycleService
	Orphans   *service.OrphanSweeper
	Handler   *handlers.Handler
}

// Start builds the order lifecycle on top of repo and starts the orphan
// sweeper. Callers stop it through Module.Orphans.
func Start(ctx context.Context, repo *repository.Repository, n service.Notifier, b service.Broadcaster, cfg config.Orders, log *logger.Logger) *Module {
	lifecycle := service.NewLifecycleService(repo.OrderRepo, repo.MenuRepo, n, b, log)
	orphans := service.NewOrphanSweeper(repo.OrderRepo, lifecycle, orDefault(cfg.OrphanGrace, 30*time.Minute), orDefault(cfg.OrphanSweepInterval, 5*time.Minute), log)
	orphans.Start(ctx)
	return &Module{
		Lifecycle: lifecycle,
		Orphans:   orphans,
		Handler:   handlers.New(lifecycle, repo.RestaurantRepo, log),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
