package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

const (
	// DatadirKey is the key to customize the keyring datadir.
	DatadirKey = "DATADIR"
	// DatabaseTypeKey is the key to customize the type of database to use.
	DatabaseTypeKey = "DATABASE_TYPE"
	// PortKey is the key to customize the port where the daemon streams
	// registry events over websocket.
	PortKey = "PORT"
	// ProfilerPortKey is the key to customize the port where the profiler will
	// be listening to.
	ProfilerPortKey = "PROFILER_PORT"
	// LogLevelKey is the key to customize the log level to catch more specific
	// or more high level logs.
	LogLevelKey = "LOG_LEVEL"
	// TestModeKey is the key to make accounts and addresses flagged as testing
	// visible.
	TestModeKey = "TEST_MODE"
	// DevAccountsKey is the key to register the well-known development
	// accounts, visible only in test mode.
	DevAccountsKey = "DEV_ACCOUNTS"
	// SS58PrefixKey is the key to customize the network prefix of the
	// addresses.
	SS58PrefixKey = "SS58_PREFIX"
	// KeyTypeKey is the key to customize the type of the key pairs created.
	KeyTypeKey = "KEY_TYPE"
	// ScryptNKey is the key to customize the scrypt cost used to encrypt
	// the key pairs.
	ScryptNKey = "SCRYPT_N"
	// NoProfilerKey is the key to disable Prometheus profiling.
	NoProfilerKey = "NO_PROFILER"
	// StatsIntervalKey is the key to customize the interval for the profiled to
	// gather profiling stats.
	StatsIntervalKey = "STATS_INTERVAL"
	// DbUserKey is user used to connect to db
	DbUserKey = "DB_USER"
	// DbPassKey is password used to connect to db
	DbPassKey = "DB_PASS"
	// DbHostKey is host where db is installed
	DbHostKey = "DB_HOST"
	// DbPortKey is port on which db is listening
	DbPortKey = "DB_PORT"
	// DbNameKey is name of database
	DbNameKey = "DB_NAME"

	// DbLocation is the folder inside the datadir containing db files.
	DbLocation = "db"
	// ProfilerLocation is the folder inside the datadir containing profiler
	// stats files.
	ProfilerLocation = "stats"
)

var (
	vip *viper.Viper

	defaultDatadir       = btcutil.AppDataDir("keyringd", false)
	defaultDbType        = "badger"
	defaultPort          = 18100
	defaultLogLevel      = 4
	defaultSS58Prefix    = 42
	defaultKeyType       = keypair.KeyTypeEd25519.String()
	defaultScryptN       = keypair.DefaultScryptN
	defaultProfilerPort  = 18101
	defaultStatsInterval = 600 // 10 minutes

	SupportedDbs = supportedType{
		"badger":   {},
		"bolt":     {},
		"inmemory": {},
		"postgres": {},
	}
	SupportedKeyTypes = supportedType{
		keypair.KeyTypeEd25519.String(): {},
		keypair.KeyTypeEcdsa.String():   {},
	}
)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("KEYRING")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DatabaseTypeKey, defaultDbType)
	vip.SetDefault(PortKey, defaultPort)
	vip.SetDefault(LogLevelKey, defaultLogLevel)
	vip.SetDefault(TestModeKey, false)
	vip.SetDefault(DevAccountsKey, false)
	vip.SetDefault(SS58PrefixKey, defaultSS58Prefix)
	vip.SetDefault(KeyTypeKey, defaultKeyType)
	vip.SetDefault(ScryptNKey, defaultScryptN)
	vip.SetDefault(NoProfilerKey, false)
	vip.SetDefault(ProfilerPortKey, defaultProfilerPort)
	vip.SetDefault(StatsIntervalKey, defaultStatsInterval)
	vip.SetDefault(DbUserKey, "root")
	vip.SetDefault(DbPassKey, "secret")
	vip.SetDefault(DbHostKey, "127.0.0.1")
	vip.SetDefault(DbPortKey, 5432)
	vip.SetDefault(DbNameKey, "keyring-db-pg")

	if err := Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	if err := initDatadir(); err != nil {
		log.Fatalf("config: error while creating datadir: %s", err)
	}
}

// Validate checks the current configuration.
func Validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	dbType := GetString(DatabaseTypeKey)
	if _, ok := SupportedDbs[dbType]; !ok {
		return fmt.Errorf("unsupported database type, must be one of %s", SupportedDbs)
	}

	keyType := GetString(KeyTypeKey)
	if _, ok := SupportedKeyTypes[keyType]; !ok {
		return fmt.Errorf("unsupported key type, must be one of %s", SupportedKeyTypes)
	}

	prefix := GetInt(SS58PrefixKey)
	if prefix < 0 || prefix > 63 {
		return fmt.Errorf("ss58 prefix must be in range [0, 63]")
	}

	scryptN := GetInt(ScryptNKey)
	if scryptN <= 1 || scryptN&(scryptN-1) != 0 {
		return fmt.Errorf("scrypt N must be a power of 2 greater than 1")
	}

	level := GetInt(LogLevelKey)
	if level < int(log.PanicLevel) || level > int(log.TraceLevel) {
		return fmt.Errorf("log level must be in range [0, 6]")
	}

	port := GetInt(PortKey)
	noProfiler := GetBool(NoProfilerKey)
	if !noProfiler {
		profilerPort := GetInt(ProfilerPortKey)
		if port == profilerPort {
			return fmt.Errorf("port and profiler port must not be equal")
		}
	}

	return nil
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

func GetProfilerDir() string {
	return filepath.Join(GetDatadir(), ProfilerLocation)
}

func GetKeyType() keypair.KeyType {
	keyType, _ := keypair.ParseKeyType(GetString(KeyTypeKey))
	return keyType
}

func GetSS58Prefix() uint8 {
	return uint8(GetInt(SS58PrefixKey))
}

func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func Set(key string, val interface{}) {
	vip.Set(key, val)
}

func Unset(key string) {
	vip.Set(key, nil)
}

func IsSet(key string) bool {
	return vip.IsSet(key)
}

func initDatadir() error {
	if err := makeDirectoryIfNotExists(GetDbDir()); err != nil {
		return err
	}

	noProfiler := GetBool(NoProfilerKey)
	if !noProfiler {
		if err := makeDirectoryIfNotExists(GetProfilerDir()); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}
