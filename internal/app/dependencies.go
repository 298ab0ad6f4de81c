package app

import (
	"fmt"
	"net/http"

	"github.com/klokku/calmcash/internal/config"
	"github.com/klokku/calmcash/internal/database"
	"github.com/klokku/calmcash/internal/event_bus"
	"github.com/klokku/calmcash/internal/utils"
	"github.com/klokku/calmcash/pkg/auth"
	"github.com/klokku/calmcash/pkg/budget"
	"github.com/klokku/calmcash/pkg/dashboard"
	"github.com/klokku/calmcash/pkg/kv"
	"github.com/klokku/calmcash/pkg/session"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and clients for the application.
type Dependencies struct {
	Store    kv.Store
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	AuthClient   auth.Client
	BudgetClient budget.Client

	Session   *session.Manager
	Dashboard dashboard.Service

	closeStore func() error
}

// BuildDependencies opens the session store and wires the backend clients.
func BuildDependencies(cfg config.Application) (*Dependencies, error) {
	store, closeStore, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	deps := WireDependencies(
		store,
		auth.NewClient(cfg.Auth.URL, httpClient),
		budget.NewClient(cfg.Budget.URL, httpClient),
		utils.SystemClock{},
	)
	deps.closeStore = closeStore
	return deps, nil
}

// WireDependencies builds the services on top of already constructed clients.
func WireDependencies(store kv.Store, authClient auth.Client, budgetClient budget.Client, clock utils.Clock) *Dependencies {
	deps := &Dependencies{
		Store:        store,
		EventBus:     event_bus.NewEventBus(),
		Clock:        clock,
		AuthClient:   authClient,
		BudgetClient: budgetClient,
	}
	deps.Session = session.NewManager(deps.Store, deps.AuthClient, deps.EventBus)
	deps.Dashboard = dashboard.NewDashboardService(deps.Session, deps.BudgetClient, deps.Clock)

	event_bus.SubscribeTyped(deps.EventBus, event_bus.SessionChanged, func(e event_bus.EventT[event_bus.SessionState]) error {
		log.Debugf("session changed: authenticated=%t reason=%s", e.Data.Authenticated, e.Data.Reason)
		return nil
	})
	return deps
}

func (d *Dependencies) Close() error {
	if d.closeStore == nil {
		return nil
	}
	return d.closeStore()
}

// OpenStore returns the key-value store selected by cfg and a function that
// releases it.
func OpenStore(cfg config.Store) (kv.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.StoreMemory:
		return kv.NewMemoryStore(), noop, nil
	case config.StoreFile:
		store, err := kv.NewFileStore(cfg.ResolvedPath())
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case config.StoreSQLite, config.StorePostgres:
		db, dialect, err := database.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db, dialect); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		store, err := kv.NewSQLStore(db, dialect)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
