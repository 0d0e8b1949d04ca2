// Package zeroconf advertises the emulator control API over mDNS/DNS-SD so
// visualizers on the LAN can find a running session.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type of the control API.
const ServiceType = "_picoemu._tcp"

// Advert is one session's mDNS registration.
type Advert struct {
	instance string
	port     int
	txt      []string
}

// InstanceName builds a DNS-SD instance label unique per session, so several
// emulators on one host don't collide: "<host>-<first 8 of session>".
func InstanceName(host, session string) string {
	host = strings.TrimSuffix(host, ".local")
	if len(session) > 8 {
		session = session[:8]
	}
	if session == "" {
		return host
	}
	return host + "-" + session
}

// New creates an Advert for instance on port with the given TXT records
// (e.g. "board=pico").
func New(instance string, port int, txt []string) *Advert {
	return &Advert{instance: instance, port: port, txt: txt}
}

// Instance returns the advertised instance label.
func (a *Advert) Instance() string { return a.instance }

// TXT returns the records advertised by Start.
func (a *Advert) TXT() []string { return a.txt }

// Start registers on all interfaces and blocks until ctx ends.
func (a *Advert) Start(ctx context.Context) error {
	if a.port <= 0 || a.port > 65535 {
		return fmt.Errorf("zeroconf: invalid port %d", a.port)
	}
	server, err := zeroconf.Register(a.instance, ServiceType, "local.", a.port, a.txt, nil)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	defer server.Shutdown()
	slog.Info("zeroconf: advertising", "instance", a.instance, "port", a.port, "txt", a.txt)

	<-ctx.Done()
	slog.Debug("zeroconf: withdrawn", "instance", a.instance)
	return nil
}
