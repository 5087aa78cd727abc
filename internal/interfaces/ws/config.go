package ws_interface

import (
	"fmt"
	"net"
)

const (
	minPort = 1024
	maxPort = 49151
)

type ServiceConfig struct {
	Port int
	// Host defaults to localhost, the notifier is not meant to be exposed.
	Host string
}

func (c ServiceConfig) validate() error {
	if c.Port < minPort || c.Port > maxPort {
		return fmt.Errorf("port must be in range [%d, %d]", minPort, maxPort)
	}
	return nil
}

func (c ServiceConfig) address() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, fmt.Sprintf("%d", c.Port))
}
