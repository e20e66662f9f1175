// Package discovery advertises the server on the local network.
package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_driftboard._tcp"

// Advertiser publishes the server over mDNS until Shutdown.
type Advertiser struct {
	server *mdns.Server
}

// Service builds the mDNS record for an instance listening on port. With no
// ips the host's addresses are looked up.
func Service(instance string, port int, ips ...net.IP) (*mdns.MDNSService, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}

	info := []string{"driftboard", "path=/boards"}
	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, ips, info)
	if err != nil {
		return nil, fmt.Errorf("create mdns service: %w", err)
	}
	return service, nil
}

// Advertise starts answering mDNS queries for the server.
func Advertise(instance string, port int) (*Advertiser, error) {
	service, err := Service(instance, port)
	if err != nil {
		return nil, err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mdns server: %w", err)
	}
	slog.Info("mdns advertising", "instance", service.Instance, "service", ServiceType, "port", port)
	return &Advertiser{server: server}, nil
}

func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}
