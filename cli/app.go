// ABOUTME: Wires configuration, local storage, the backend clients and the module controllers
// ABOUTME: Every command shares one App per process
package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/duoproservices/portal/charm"
	"github.com/duoproservices/portal/config"
	"github.com/duoproservices/portal/connectivity"
	"github.com/duoproservices/portal/controller"
	"github.com/duoproservices/portal/db"
	"github.com/duoproservices/portal/handlers"
	"github.com/duoproservices/portal/kvstore"
	"github.com/duoproservices/portal/localapi"
	"github.com/duoproservices/portal/models"
	"github.com/duoproservices/portal/remote"
)

// App holds everything a command may touch.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Store  *kvstore.Store
	Charm  *charm.Client

	Auth *remote.AuthClient
	Gate *connectivity.Gate

	Projects *controller.Projects
	CRM      *controller.CRM
	Social   *controller.Social
	Clients  *controller.Clients

	Tasks      *localapi.TasksAPI
	Invoices   *localapi.InvoicesAPI
	Activities *localapi.ActivitiesAPI

	closeBackend func() error
}

// OpenBackend opens the raw storage named by kind using cfg's locations.
func OpenBackend(cfg *config.Config, kind string) (kvstore.Backend, *charm.Client, func() error, error) {
	switch kind {
	case config.BackendBadger:
		b, err := kvstore.OpenBadger(filepath.Join(cfg.DataDir, "badger"))
		if err != nil {
			return nil, nil, nil, err
		}
		return b, nil, b.Close, nil
	case config.BackendSQLite:
		kv, err := db.OpenKV(filepath.Join(cfg.DataDir, config.AppName+".db"))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return kv, nil, kv.Close, nil
	case config.BackendCharm:
		c, err := charm.Open(charm.Options{Name: config.AppName, Host: cfg.CharmHost, AutoSync: cfg.AutoSync})
		if err != nil {
			return nil, nil, nil, err
		}
		return c, c, c.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown storage backend %q", kind)
}

// NewApp opens the configured store and builds the controllers. notifier
// receives offline and online notices from every module.
func NewApp(cfg *config.Config, logger *zap.Logger, notifier controller.Notifier) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	backend, charmClient, closeFn, err := OpenBackend(cfg, cfg.Storage)
	if err != nil {
		return nil, err
	}

	store := kvstore.New(backend, cfg.BasePrefix, kvstore.WithLogger(logger.Named("kvstore")))
	app := &App{
		Config:       cfg,
		Logger:       logger,
		Store:        store,
		Charm:        charmClient,
		closeBackend: closeFn,
	}
	app.wire(notifier)
	return app, nil
}

func (a *App) wire(notifier controller.Notifier) {
	cfg, logger, store := a.Config, a.Logger, a.Store

	a.Auth = remote.NewAuthClient(cfg.BackendURL, cfg.AnonKey, store, remote.WithLogger(logger.Named("auth")))
	client := remote.NewClient(cfg.BackendURL, cfg.AnonKey, a.Auth, remote.WithLogger(logger.Named("remote")))

	a.Gate = connectivity.NewGate(a.Auth,
		connectivity.WithInterval(cfg.ProbeInterval.Std()),
		connectivity.WithProbeTimeout(cfg.ProbeTimeout.Std()),
		connectivity.WithGateLogger(logger.Named("gate")),
	)

	notifiers := controller.Notifiers{controller.LogNotifier{Logger: logger.Named("notice")}}
	if notifier != nil {
		notifiers = append(notifiers, notifier)
	}
	opts := []controller.Option{
		controller.WithGate(a.Gate),
		controller.WithNotifier(notifiers),
		controller.WithTimeout(cfg.FetchTimeout.Std()),
		controller.WithLogger(logger.Named("controller")),
	}

	a.Tasks = localapi.NewTasksAPI(store)
	a.Invoices = localapi.NewInvoicesAPI(store)
	a.Activities = localapi.NewActivitiesAPI(store)

	a.Projects = controller.NewProjects(
		remote.NewCollection[models.Task](client, cfg.Endpoints.Tasks, "tasks", "task"),
		a.Tasks, connectivity.NewFlag(store, connectivity.TasksFlagKey), opts...)
	a.CRM = controller.NewCRM(
		remote.NewCollection[models.Lead](client, cfg.Endpoints.Leads, "leads", "lead"),
		localapi.NewLeadsAPI(store), connectivity.NewFlag(store, connectivity.CRMFlagKey), opts...)
	a.Social = controller.NewSocial(
		remote.NewCollection[models.SocialPost](client, cfg.Endpoints.Posts, "posts", "post"),
		localapi.NewSocialPostsAPI(store), connectivity.NewFlag(store, connectivity.SocialFlagKey), opts...)
	a.Clients = controller.NewClients(
		remote.NewCollection[models.Client](client, cfg.Endpoints.Clients, "clients", "client"),
		localapi.NewClientsAPI(store), connectivity.NewFlag(store, connectivity.ClientsFlagKey), opts...)
}

// Modules lists the controllers in display order.
func (a *App) Modules() []handlers.Module {
	return []handlers.Module{a.Clients, a.Projects, a.Social, a.CRM}
}

// Actor names the signed-in user for the activity timeline without a
// network round trip.
func (a *App) Actor(ctx context.Context) string {
	var session remote.Session
	if a.Store.Get(ctx, remote.SessionKey, &session) && session.User.Email != "" {
		return session.User.Email
	}
	return "local"
}

// Record appends an entry to the team timeline. Failures are logged only.
func (a *App) Record(ctx context.Context, verb models.ActivityVerb, entityType, entityID, description string) {
	activity := models.NewTeamActivity(a.Actor(ctx), verb, entityType, entityID, description)
	if _, err := a.Activities.LogActivity(ctx, activity); err != nil {
		a.Logger.Warn("failed to record activity", zap.String("entity", entityType), zap.Error(err))
	}
}

// Close releases the store.
func (a *App) Close() error {
	var errs []error
	if a.closeBackend != nil {
		errs = append(errs, a.closeBackend())
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
