package ws_interface

import (
	"context"
	"fmt"
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"
	appconfig "github.com/vulpemventures/keyring/internal/app-config"
	"github.com/vulpemventures/keyring/internal/core/application"
)

type service struct {
	config     ServiceConfig
	appConfig  *appconfig.AppConfig
	httpServer *http.Server
	notifiers  []*Notifier

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewService(config ServiceConfig, appConfig *appconfig.AppConfig) (*service, error) {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("service: %s", format)
		log.Infof(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	return &service{
		config: config, appConfig: appConfig, log: logFn, warn: warnFn,
	}, nil
}

// Start restores the keyring from the db and starts streaming the registry
// events.
func (s *service) Start() error {
	keyring := s.appConfig.KeyringService()
	if err := keyring.LoadAll(context.Background()); err != nil {
		return fmt.Errorf("failed to load keyring: %s", err)
	}
	s.log(
		"loaded keyring with %d accounts and %d addresses",
		keyring.Accounts().Len(), keyring.Addresses().Len(),
	)

	lis, err := net.Listen("tcp", s.config.address())
	if err != nil {
		return err
	}

	mux, notifiers := NewHandler(keyring)
	s.notifiers = notifiers
	s.httpServer = &http.Server{Handler: mux}

	go func() {
		if err := s.httpServer.Serve(lis); err != nil &&
			err != http.ErrServerClosed {
			s.warn(err, "websocket server stopped unexpectedly")
		}
	}()

	s.log("start listening on %s", s.config.address())
	return nil
}

func (s *service) Stop() {
	for _, n := range s.notifiers {
		n.Close()
	}
	s.log("closed stream connections")

	if s.httpServer != nil {
		//nolint:errcheck
		s.httpServer.Shutdown(context.Background())
		s.log("stopped websocket server")
	}

	s.appConfig.RepoManager().Close()
	s.log("closed connection with db")
}

// NewHandler returns the mux serving the accounts and addresses streams of
// the given keyring, together with their notifiers.
func NewHandler(keyring *application.KeyringService) (*http.ServeMux, []*Notifier) {
	accounts := NewNotifier(keyring.Accounts())
	addresses := NewNotifier(keyring.Addresses())

	mux := http.NewServeMux()
	mux.Handle("/"+application.AccountsSubject, accounts)
	mux.Handle("/"+application.AddressesSubject, addresses)
	return mux, []*Notifier{accounts, addresses}
}
