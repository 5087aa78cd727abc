package main

import (
	"context"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	appconfig "github.com/vulpemventures/keyring/internal/app-config"
	"github.com/vulpemventures/keyring/internal/core/application"
	"github.com/vulpemventures/keyring/internal/core/ports"
	password_store "github.com/vulpemventures/keyring/internal/infrastructure/password-store/os-keyring"
	postgresdb "github.com/vulpemventures/keyring/internal/infrastructure/storage/db/postgres"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

const (
	datadirFlag  = "datadir"
	dbFlag       = "db"
	testModeFlag = "test-mode"
	devFlag      = "dev-accounts"
	keyTypeFlag  = "key-type"
	prefixFlag   = "ss58-prefix"
	scryptNFlag  = "scrypt-n"
	logLevelFlag = "log-level"

	dbUserKey = "db_user"
	dbPassKey = "db_pass"
	dbHostKey = "db_host"
	dbPortKey = "db_port"
	dbNameKey = "db_name"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	vip = viper.New()

	appCfg        *appconfig.AppConfig
	keyring       *application.KeyringService
	passwordStore ports.PasswordStore

	rootCmd = &cobra.Command{
		Use:   "keyring",
		Short: "CLI for the keyring",
		Long: "This CLI lets you manage the accounts and the address book of " +
			"a local keyring",
		PersistentPreRunE: initKeyring,
		SilenceUsage:      true,
		Version:           formatVersion(),
	}
)

func init() {
	vip.SetEnvPrefix("KEYRING")
	vip.AutomaticEnv()

	vip.SetDefault(dbUserKey, "root")
	vip.SetDefault(dbPassKey, "secret")
	vip.SetDefault(dbHostKey, "127.0.0.1")
	vip.SetDefault(dbPortKey, 5432)
	vip.SetDefault(dbNameKey, "keyring-db-pg")

	flags := rootCmd.PersistentFlags()
	flags.String(
		datadirFlag, btcutil.AppDataDir("keyring-cli", false),
		"directory where the keyring db is stored",
	)
	flags.String(dbFlag, "badger", "type of db: badger | bolt | inmemory | postgres")
	flags.Bool(testModeFlag, false, "show accounts and addresses flagged as testing")
	flags.Bool(devFlag, false, "add the well-known development accounts, shown in test mode")
	flags.String(keyTypeFlag, keypair.KeyTypeEd25519.String(), "type of the new key pairs: ed25519 | ecdsa")
	flags.Uint8(prefixFlag, 42, "ss58 network prefix of the addresses")
	flags.Int(scryptNFlag, keypair.DefaultScryptN, "scrypt cost used to encrypt new key pairs")
	flags.Uint32(logLevelFlag, uint32(log.WarnLevel), "log level in range [0, 6]")

	for _, name := range []string{
		datadirFlag, dbFlag, testModeFlag, devFlag, keyTypeFlag, prefixFlag,
		scryptNFlag, logLevelFlag,
	} {
		//nolint:errcheck
		vip.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(accountCmd, addressCmd, mnemonicCmd)
}

func main() {
	err := rootCmd.Execute()
	closeKeyring()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initKeyring(_ *cobra.Command, _ []string) error {
	log.SetLevel(log.Level(vip.GetUint32(logLevelFlag)))

	keyType, err := keypair.ParseKeyType(vip.GetString(keyTypeFlag))
	if err != nil {
		return err
	}

	datadir := cleanAndExpandPath(vip.GetString(datadirFlag))
	var dbConfig interface{} = datadir
	if vip.GetString(dbFlag) == "postgres" {
		dbConfig = postgresdb.DbConfig{
			DbUser:     vip.GetString(dbUserKey),
			DbPassword: vip.GetString(dbPassKey),
			DbHost:     vip.GetString(dbHostKey),
			DbPort:     vip.GetInt(dbPortKey),
			DbName:     vip.GetString(dbNameKey),
		}
	}

	appCfg = &appconfig.AppConfig{
		Version:           version,
		Commit:            commit,
		Date:              date,
		KeyType:           keyType,
		SS58Prefix:        uint8(vip.GetUint32(prefixFlag)),
		ScryptN:           vip.GetInt(scryptNFlag),
		TestMode:          vip.GetBool(testModeFlag),
		DevAccounts:       vip.GetBool(devFlag),
		RepoManagerType:   vip.GetString(dbFlag),
		RepoManagerConfig: dbConfig,
	}
	if err := appCfg.Validate(); err != nil {
		return err
	}

	passwordStore = password_store.NewOSKeyringStore("")
	keyring = appCfg.KeyringService()
	return keyring.LoadAll(context.Background())
}

func closeKeyring() {
	if appCfg != nil && appCfg.RepoManager() != nil {
		appCfg.RepoManager().Close()
	}
}
