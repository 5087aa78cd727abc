package password_store

import (
	"errors"

	"github.com/vulpemventures/keyring/internal/core/ports"
	"github.com/zalando/go-keyring"
)

const defaultServiceName = "keyring"

type osKeyringStore struct {
	serviceName string
}

// NewOSKeyringStore returns a password store backed by the OS keychain
// (Keychain on macOS, Secret Service on Linux, Credential Manager on Windows).
func NewOSKeyringStore(serviceName string) ports.PasswordStore {
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	return &osKeyringStore{serviceName}
}

func (s *osKeyringStore) Get(address string) (string, error) {
	password, err := keyring.Get(s.serviceName, address)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ports.ErrPasswordNotFound
		}
		return "", err
	}
	return password, nil
}

func (s *osKeyringStore) Set(address, password string) error {
	return keyring.Set(s.serviceName, address, password)
}

func (s *osKeyringStore) Delete(address string) error {
	if err := keyring.Delete(s.serviceName, address); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}
