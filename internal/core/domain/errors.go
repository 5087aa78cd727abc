package domain

import (
	"fmt"
)

var (
	ErrPairNotFound      = fmt.Errorf("pair not found")
	ErrAddressNotFound   = fmt.Errorf("address not found")
	ErrInvalidPassword   = fmt.Errorf("wrong password")
	ErrInvalidSeedLength = fmt.Errorf("invalid seed length")
	ErrCorruptRecord     = fmt.Errorf("corrupt record")
	ErrPairLocked        = fmt.Errorf("pair is locked")
	ErrInvalidAddress    = fmt.Errorf("invalid address")
	ErrMissingCypher     = fmt.Errorf("missing cypher")
	ErrMissingRecord     = fmt.Errorf("missing record")
	ErrUnknownNamespace  = fmt.Errorf("unknown record namespace")
	ErrStalePair         = fmt.Errorf("pair has been replaced in the keyring")
)
