package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/internal/store"
	"github.com/MKhiriev/go-sync-core/models"
)

// CreateAccount implements [SyncEngine].
func (e *syncEngine) CreateAccount(ctx context.Context, userID, password, deviceName string) (models.Account, error) {
	ctx = e.logger.WithContext(ctx)

	if _, ok := e.Account(); ok {
		return models.Account{}, ErrAccountExists
	}
	_, err := e.storages.Accounts.LoadAccount(ctx)
	switch {
	case err == nil:
		return models.Account{}, ErrAccountExists
	case !errors.Is(err, store.ErrAccountNotFound):
		return models.Account{}, fmt.Errorf("load account: %w", err)
	}

	keys, err := e.crypto.GenerateAccountKeys(userID, password)
	if err != nil {
		return models.Account{}, fmt.Errorf("generate account keys: %w", err)
	}
	defer crypto.Zero(keys.PasswordHash)

	deviceID := e.newID()
	resp, err := e.server.Register(ctx, models.RegisterRequest{
		UserID:                 userID,
		HashedPassword:         base64.StdEncoding.EncodeToString(keys.PasswordHash),
		ProtectedEncryptionKey: base64.StdEncoding.EncodeToString(keys.ProtectedSecretKey),
		DeviceID:               deviceID,
		DeviceName:             deviceName,
	})
	if err != nil {
		crypto.Zero(keys.PrimaryKey)
		crypto.Zero(keys.SecretKey)
		return models.Account{}, mapRegisterError(err)
	}

	account := models.Account{
		DeviceID:   deviceID,
		UserID:     userID,
		DeviceName: deviceName,
		Token:      resp.Token,
		PrimaryKey: keys.PrimaryKey,
		SecretKey:  keys.SecretKey,
	}
	if resp.UserID != "" {
		account.UserID = resp.UserID
	}

	if err = e.storages.Accounts.SaveAccount(ctx, account); err != nil {
		wipeKeys(&account)
		return models.Account{}, fmt.Errorf("save account: %w", err)
	}

	e.mu.Lock()
	e.account = &account
	e.mu.Unlock()
	e.server.SetToken(account.Token)

	e.logger.Info().
		Str("func", "syncEngine.CreateAccount").
		Str("device_id", deviceID).
		Msg("account created")

	return cloneAccount(account), nil
}

// UseAccount implements [SyncEngine].
func (e *syncEngine) UseAccount(account models.Account) error {
	if !account.HasKeys() {
		return fmt.Errorf("%w: account has no keys", ErrNoAccount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.account != nil {
		return ErrAccountExists
	}
	active := cloneAccount(account)
	e.account = &active
	e.server.SetToken(active.Token)

	return nil
}

// Account implements [SyncEngine].
func (e *syncEngine) Account() (models.Account, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.account == nil {
		return models.Account{}, false
	}
	return cloneAccount(*e.account), true
}

// SignOut implements [SyncEngine].
func (e *syncEngine) SignOut(ctx context.Context) error {
	ctx = e.logger.WithContext(ctx)

	if _, ok := e.Account(); !ok {
		return ErrNoAccount
	}

	err := e.storages.Transactor.InTx(ctx, func(ctx context.Context) error {
		if err := e.storages.Accounts.DeleteAccount(ctx); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if err := e.storages.Metadata.Reset(ctx); err != nil {
			return fmt.Errorf("reset checkpoints: %w", err)
		}
		if err := e.storages.Outbox.Purge(ctx); err != nil {
			return fmt.Errorf("purge outbox: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	e.mu.Lock()
	if e.account != nil {
		wipeKeys(e.account)
		e.account = nil
	}
	e.mu.Unlock()
	e.server.SetToken("")

	e.logger.Info().Str("func", "syncEngine.SignOut").Msg("signed out")
	return nil
}
