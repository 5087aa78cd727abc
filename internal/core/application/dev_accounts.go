package application

import (
	"fmt"
	"strings"

	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

var devAccountNames = []string{
	"Alice", "Bob", "Charlie", "Dave", "Eve", "Ferdie",
}

// DevAccountSeed returns the seed of the well-known development account with
// the given name: the name right-padded with spaces to the seed size.
func DevAccountSeed(name string) []byte {
	return []byte(fmt.Sprintf("%-*s", keypair.SeedSize, name))
}

// LoadDevAccounts registers the well-known development accounts. They are
// flagged as testing, hence visible only in test mode, they are not
// encrypted and they are never persisted. Addresses already owned by the
// keyring are left untouched.
func (ks *KeyringService) LoadDevAccounts() error {
	defer ks.lockMutations()()

	count := 0
	for _, name := range devAccountNames {
		pair, err := domain.NewPair(domain.NewPairArgs{
			Seed:    DevAccountSeed(name),
			KeyType: ks.keyType,
			Meta: domain.Meta{
				domain.MetaName:      strings.ToLower(name),
				domain.MetaIsTesting: true,
			},
			Prefix: ks.prefix,
			Cypher: ks.cypher,
		})
		if err != nil {
			return err
		}
		if _, err := ks.pairStore.GetPair(pair.Address()); err == nil {
			pair.Destroy()
			continue
		}

		ks.addAccount(pair)
		count++
	}

	ks.log("loaded %d development accounts", count)
	return nil
}
