package service

import "errors"

var (
	// ErrConflict is returned by a send when the server's cursor moved past
	// the stored one. The feature is left in needsRemoteDataFetch; fetch and
	// send again.
	ErrConflict = errors.New("sync conflict: fetch required before sending")

	// ErrSyncInProgress is returned when a send or fetch of a feature starts
	// while another one of the same feature is running.
	ErrSyncInProgress = errors.New("sync already in progress for feature")

	// ErrFetchRequired is returned by a send for a feature whose checkpoint
	// is not readyToSync.
	ErrFetchRequired = errors.New("feature needs a remote data fetch before sending")

	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found on server")
	ErrNoAccount       = errors.New("no active account")
	ErrUnknownFeature  = errors.New("unknown feature")
)
