package client

import "errors"

var (
	// ErrNoKeyFile is returned when the account key file does not exist.
	ErrNoKeyFile = errors.New("account key file not found")

	// ErrInvalidKeyFile is returned when the key file cannot be parsed or
	// belongs to another device.
	ErrInvalidKeyFile = errors.New("invalid account key file")
)
