package interfaces

import (
	"fmt"

	appconfig "github.com/vulpemventures/keyring/internal/app-config"
	ws_interface "github.com/vulpemventures/keyring/internal/interfaces/ws"
)

// Service interface defines the methods that every kind of interface, whether
// websocket, gRPC, REST, or whatever must be compliant with.
type Service interface {
	Start() error
	Stop()
}

type ServiceManager struct {
	Service
}

func NewWsServiceManager(
	config ws_interface.ServiceConfig, appConfig *appconfig.AppConfig,
) (*ServiceManager, error) {
	svc, err := ws_interface.NewService(config, appConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initalize websocket service: %s", err)
	}
	return &ServiceManager{svc}, nil
}
