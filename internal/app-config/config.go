package appconfig

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/keyring/internal/config"
	"github.com/vulpemventures/keyring/internal/core/application"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/internal/core/ports"
	pair_store "github.com/vulpemventures/keyring/internal/infrastructure/pair-store/in-memory"
	dbbadger "github.com/vulpemventures/keyring/internal/infrastructure/storage/db/badger"
	dbbolt "github.com/vulpemventures/keyring/internal/infrastructure/storage/db/bolt"
	"github.com/vulpemventures/keyring/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/vulpemventures/keyring/internal/infrastructure/storage/db/postgres"
	"github.com/vulpemventures/keyring/internal/interfaces/metrics"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

// AppConfig is the struct holding all configuration options for the keyring
// service. This data structure acts also as a factory of the service and the
// portable services used by it.
// Public config args:
//   - KeyType - (optional) The type of the key pairs created (defaults to ed25519).
//   - SS58Prefix - (optional) The network prefix of the addresses (defaults to 0).
//   - ScryptN - (optional) The scrypt cost used to encrypt the key pairs.
//   - TestMode - (optional) Whether accounts and addresses flagged as testing are visible.
//   - DevAccounts - (optional) Whether to register the well-known development accounts.
//   - RepoManagerType - (required) One of the supported repository manager types.
//   - RepoManagerConfig - (optional) Custom config args for the repository manager based on its type.
type AppConfig struct {
	Version string
	Commit  string
	Date    string

	KeyType     keypair.KeyType
	SS58Prefix  uint8
	ScryptN     int
	TestMode    bool
	DevAccounts bool

	RepoManagerType   string
	RepoManagerConfig interface{}

	rm         ports.RepoManager
	pairStore  domain.PairStore
	keyringSvc *application.KeyringService
	collector  *metrics.Collector
}

func (c *AppConfig) Validate() error {
	if len(c.RepoManagerType) == 0 {
		return fmt.Errorf("missing repo manager type")
	}
	if _, ok := config.SupportedDbs[c.RepoManagerType]; !ok {
		return fmt.Errorf(
			"repo manager type not supported, must be one of: %s",
			config.SupportedDbs,
		)
	}
	if c.KeyType != "" {
		if _, err := keypair.ParseKeyType(c.KeyType.String()); err != nil {
			return err
		}
	}
	if c.SS58Prefix > 63 {
		return fmt.Errorf("ss58 prefix must be in range [0, 63]")
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	return nil
}

func (c *AppConfig) RepoManager() ports.RepoManager {
	return c.rm
}

func (c *AppConfig) KeyringService() *application.KeyringService {
	return c.keyringService()
}

// MetricsCollector returns the prometheus collector of the keyring service.
func (c *AppConfig) MetricsCollector() *metrics.Collector {
	if c.collector != nil {
		return c.collector
	}

	c.collector = metrics.NewCollector(c.keyringService())
	return c.collector
}

func (c *AppConfig) BuildInfo() string {
	version := "dev"
	if c.Version != "" {
		version = c.Version
	}
	commit := "none"
	if c.Commit != "" {
		commit = c.Commit
	}
	date := "unknown"
	if c.Date != "" {
		date = c.Date
	}
	return fmt.Sprintf("version: %s, commit: %s, date: %s", version, commit, date)
}

func (c *AppConfig) repoManager() (ports.RepoManager, error) {
	if c.rm != nil {
		return c.rm, nil
	}

	switch c.RepoManagerType {
	case "inmemory":
		c.rm = inmemory.NewRepoManager()
		return c.rm, nil
	case "badger":
		if c.RepoManagerConfig == nil {
			return nil, fmt.Errorf("missing repo manager config args")
		}
		datadir, ok := c.RepoManagerConfig.(string)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := dbbadger.NewRepoManager(datadir, log.New())
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	case "bolt":
		datadir, ok := c.RepoManagerConfig.(string)
		if !ok || datadir == "" {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := dbbolt.NewRepoManager(datadir)
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	case "postgres":
		dbConfig, ok := c.RepoManagerConfig.(postgresdb.DbConfig)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be postgresdb.DbConfig")
		}

		rm, err := postgresdb.NewRepoManager(dbConfig)
		if err != nil {
			return nil, err
		}

		c.rm = rm
		return c.rm, nil
	default:
		return nil, fmt.Errorf("unknown repo manager type")
	}
}

func (c *AppConfig) keyringService() *application.KeyringService {
	if c.keyringSvc != nil {
		return c.keyringSvc
	}

	rm, _ := c.repoManager()
	if c.pairStore == nil {
		c.pairStore = pair_store.NewInMemoryPairStore()
	}
	c.keyringSvc = application.NewKeyringService(
		rm, c.pairStore, keypair.NewCypher(c.ScryptN),
		c.KeyType, c.SS58Prefix, c.TestMode,
	)
	if c.DevAccounts {
		if err := c.keyringSvc.LoadDevAccounts(); err != nil {
			log.WithError(err).Warn("keyring: failed to load development accounts")
		}
	}
	return c.keyringSvc
}
