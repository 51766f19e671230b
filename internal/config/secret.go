package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the collector's secrets in the OS keychain.
	KeyringService = "vols1365"
	keyringAccount = "SERVICE_KEY"
)

// ErrMissingServiceKey is returned when no API credential is configured.
var ErrMissingServiceKey = errors.New("SERVICE_KEY not set (export it, add it to .env, or run 'vols-fetch key set')")

// KeyringServiceKey reads the API credential from the OS keyring.
func KeyringServiceKey() (string, error) {
	key, err := keyring.Get(KeyringService, keyringAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrMissingServiceKey
		}
		return "", fmt.Errorf("%w (keyring: %v)", ErrMissingServiceKey, err)
	}
	if strings.TrimSpace(key) == "" {
		return "", ErrMissingServiceKey
	}
	return strings.TrimSpace(key), nil
}

// StoreServiceKey saves the API credential in the OS keyring.
func StoreServiceKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("service key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, strings.TrimSpace(key))
}

// DeleteServiceKey removes the stored API credential.
func DeleteServiceKey() error {
	return keyring.Delete(KeyringService, keyringAccount)
}
