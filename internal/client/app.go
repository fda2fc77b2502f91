package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-sync-core/internal/adapter"
	"github.com/MKhiriev/go-sync-core/internal/config"
	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/internal/features"
	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/MKhiriev/go-sync-core/internal/service"
	"github.com/MKhiriev/go-sync-core/internal/store"
	"github.com/MKhiriev/go-sync-core/internal/workers"
	"github.com/MKhiriev/go-sync-core/models"
)

// watchBuffer is the event buffer of the watch subscription.
const watchBuffer = 64

type App struct {
	cfg      config.ClientConfig
	storages *store.ClientStorages
	engine   service.SyncEngine
	logger   *logger.Logger
}

// NewApp opens the local store and builds the engine on top of the HTTP
// transport. The caller must Close the app.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	server, err := adapter.NewHTTPServerAdapter(cfg.Adapter, cfg.App, log)
	if err != nil {
		return nil, fmt.Errorf("create server adapter: %w", err)
	}

	storages, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	return newApp(*cfg, storages, server, log), nil
}

func newApp(cfg config.ClientConfig, storages *store.ClientStorages, server adapter.ServerAdapter, log *logger.Logger, opts ...service.Option) *App {
	provider := crypto.NewProvider()
	engine := service.NewSyncEngine(storages, server, provider, features.NewDefaultRegistry(provider), log, opts...)

	return &App{cfg: cfg, storages: storages, engine: engine, logger: log}
}

func (a *App) Engine() service.SyncEngine {
	return a.engine
}

// CreateAccount registers this device and stores its keys in the key file.
func (a *App) CreateAccount(ctx context.Context, userID, password string) (models.Account, error) {
	account, err := a.engine.CreateAccount(ctx, userID, password, a.cfg.App.DeviceName)
	if err != nil {
		return models.Account{}, err
	}
	defer crypto.Zero(account.PrimaryKey)
	defer crypto.Zero(account.SecretKey)

	if err = SaveKeys(a.cfg.Storage.KeyFile, account); err != nil {
		// without its keys the account is unusable; undo it so it can be
		// created again
		if undoErr := a.engine.SignOut(context.WithoutCancel(ctx)); undoErr != nil {
			a.logger.Err(undoErr).
				Str("func", "App.CreateAccount").
				Msg("failed to undo account after key file error")
			return models.Account{}, errors.Join(err, undoErr)
		}
		return models.Account{}, err
	}

	a.logger.Info().
		Str("func", "App.CreateAccount").
		Str("device_id", account.DeviceID).
		Msg("account keys saved")

	return models.Account{DeviceID: account.DeviceID, UserID: account.UserID, DeviceName: account.DeviceName}, nil
}

// Restore activates the persisted account with the keys from the key file.
func (a *App) Restore(ctx context.Context) (models.Account, error) {
	persisted, err := a.storages.Accounts.LoadAccount(ctx)
	if errors.Is(err, store.ErrAccountNotFound) {
		return models.Account{}, service.ErrNoAccount
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("load account: %w", err)
	}

	account, err := LoadKeys(a.cfg.Storage.KeyFile, persisted)
	if err != nil {
		return models.Account{}, err
	}
	defer crypto.Zero(account.PrimaryKey)
	defer crypto.Zero(account.SecretKey)

	if err = a.engine.UseAccount(account); err != nil {
		return models.Account{}, err
	}

	return persisted, nil
}

// SignOut forgets the account locally and removes the key file.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.engine.SignOut(ctx); err != nil {
		return err
	}
	return RemoveKeys(a.cfg.Storage.KeyFile)
}

// Send sends the staged changes. A feature that must catch up first is
// fetched and the send retried once.
func (a *App) Send(ctx context.Context, sender *service.Sender) error {
	err := sender.Send(ctx)
	if !errors.Is(err, service.ErrFetchRequired) {
		return err
	}

	a.logger.Info().Str("func", "App.Send").Msg("fetching remote changes before send")
	if err = a.engine.Fetch(ctx); err != nil {
		return err
	}
	return a.engine.Send(ctx)
}

// Watch syncs right away and then on every interval, handing each applied
// change to onEvent, until ctx is cancelled.
func (a *App) Watch(ctx context.Context, onEvent func(models.ChangeEvent)) error {
	if _, ok := a.engine.Account(); !ok {
		return service.ErrNoAccount
	}

	sub := a.engine.Subscribe(watchBuffer)
	defer func() { sub.Cancel() }()

	ctx, cancel := context.WithCancel(ctx)
	background := workers.NewWorkers(
		workers.NewSyncWorker(a.engine, a.cfg.Workers.SyncInterval, a.logger, true),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		background.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				// dropped for falling behind; events in between are lost
				a.logger.Warn().
					Str("func", "App.Watch").
					Msg("change feed overflowed, resubscribing")
				sub = a.engine.Subscribe(watchBuffer)
				continue
			}
			onEvent(ev)
		case <-ctx.Done():
			return nil
		}
	}
}

// Close wipes the keys from memory and closes the local store.
func (a *App) Close() error {
	a.engine.Close()
	return a.storages.Close()
}
