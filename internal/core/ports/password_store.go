package ports

import "errors"

var ErrPasswordNotFound = errors.New("password not found")

// PasswordStore caches the passwords of the accounts, indexed by address,
// outside of the keyring db.
type PasswordStore interface {
	// Get returns ErrPasswordNotFound if nothing is stored for the address.
	Get(address string) (string, error)
	Set(address, password string) error
	// Delete is a no-op if nothing is stored for the address.
	Delete(address string) error
}
