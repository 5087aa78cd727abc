package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	appconfig "github.com/vulpemventures/keyring/internal/app-config"
	"github.com/vulpemventures/keyring/internal/config"
	postgresdb "github.com/vulpemventures/keyring/internal/infrastructure/storage/db/postgres"
	"github.com/vulpemventures/keyring/internal/interfaces"
	ws_interface "github.com/vulpemventures/keyring/internal/interfaces/ws"
	"github.com/vulpemventures/keyring/pkg/profiler"
)

var (
	// Build info.
	version string
	commit  string
	date    string

	// Config from env vars.
	dbType        = config.GetString(config.DatabaseTypeKey)
	logLevel      = config.GetLogLevel()
	port          = config.GetInt(config.PortKey)
	profilerPort  = config.GetInt(config.ProfilerPortKey)
	noProfiler    = config.GetBool(config.NoProfilerKey)
	testMode      = config.GetBool(config.TestModeKey)
	devAccounts   = config.GetBool(config.DevAccountsKey)
	keyType       = config.GetKeyType()
	ss58Prefix    = config.GetSS58Prefix()
	scryptN       = config.GetInt(config.ScryptNKey)
	dbDir         = config.GetDbDir()
	profilerDir   = config.GetProfilerDir()
	statsInterval = time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
	dbUser        = config.GetString(config.DbUserKey)
	dbPassword    = config.GetString(config.DbPassKey)
	dbHost        = config.GetString(config.DbHostKey)
	dbPort        = config.GetInt(config.DbPortKey)
	dbName        = config.GetString(config.DbNameKey)
)

func main() {
	log.SetLevel(logLevel)

	var repoManagerConfig interface{} = dbDir
	if dbType == "postgres" {
		repoManagerConfig = postgresdb.DbConfig{
			DbUser:     dbUser,
			DbPassword: dbPassword,
			DbHost:     dbHost,
			DbPort:     dbPort,
			DbName:     dbName,
		}
	}

	serviceCfg := ws_interface.ServiceConfig{
		Port: port,
	}
	appCfg := &appconfig.AppConfig{
		Version:           version,
		Commit:            commit,
		Date:              date,
		KeyType:           keyType,
		SS58Prefix:        ss58Prefix,
		ScryptN:           scryptN,
		TestMode:          testMode,
		DevAccounts:       devAccounts,
		RepoManagerType:   dbType,
		RepoManagerConfig: repoManagerConfig,
	}

	serviceManager, err := interfaces.NewWsServiceManager(serviceCfg, appCfg)
	if err != nil {
		log.WithError(err).Fatal("service: error while initializing")
	}
	log.Infof("keyringd %s", appCfg.BuildInfo())

	if profilerEnabled := !noProfiler; profilerEnabled {
		profilerSvc, err := profiler.NewService(profiler.ServiceOpts{
			Port:          profilerPort,
			StatsInterval: statsInterval,
			Datadir:       profilerDir,
			Collectors: []prometheus.Collector{
				appCfg.MetricsCollector(),
			},
		})
		if err != nil {
			log.WithError(err).Fatal("profiler: error while starting")
		}

		//nolint:errcheck
		profilerSvc.Start()
		defer func() {
			profilerSvc.Stop()
		}()
	}

	if err := serviceManager.Service.Start(); err != nil {
		log.WithError(err).Fatal("service: error while starting")
	}
	defer func() {
		serviceManager.Service.Stop()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
}
