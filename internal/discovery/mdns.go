// Package discovery answers mDNS queries for the gateway host name so the
// advertised SEMP URL resolves on the LAN.
package discovery

import (
	"fmt"
	"net"
	"strings"

	"github.com/pion/mdns/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Announcer owns the mDNS responder.
type Announcer struct {
	conn   *mdns.Conn
	name   string
	logger zerolog.Logger
}

// LocalName appends the .local suffix when missing.
func LocalName(name string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	if name == "" {
		return ""
	}
	if !strings.HasSuffix(name, ".local") {
		name += ".local"
	}
	return name
}

// Announce starts answering for localName on both IPv4 and IPv6.
func Announce(localName string, logger zerolog.Logger) (*Announcer, error) {
	name := LocalName(localName)
	if name == "" {
		return nil, fmt.Errorf("mdns: empty local name")
	}

	addr4, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		return nil, fmt.Errorf("mdns: resolving udp4 address: %w", err)
	}
	addr6, err := net.ResolveUDPAddr("udp6", mdns.DefaultAddressIPv6)
	if err != nil {
		return nil, fmt.Errorf("mdns: resolving udp6 address: %w", err)
	}

	l4, err := net.ListenUDP("udp4", addr4)
	if err != nil {
		return nil, fmt.Errorf("mdns: listening on udp4: %w", err)
	}
	l6, err := net.ListenUDP("udp6", addr6)
	if err != nil {
		l4.Close()
		return nil, fmt.Errorf("mdns: listening on udp6: %w", err)
	}

	conn, err := mdns.Server(ipv4.NewPacketConn(l4), ipv6.NewPacketConn(l6), &mdns.Config{
		LocalNames: []string{name},
	})
	if err != nil {
		l4.Close()
		l6.Close()
		return nil, fmt.Errorf("mdns: starting server: %w", err)
	}

	logger.Info().Str("name", name).Msg("mDNS responder started")
	return &Announcer{conn: conn, name: name, logger: logger}, nil
}

func (a *Announcer) Close() error {
	a.logger.Info().Str("name", a.name).Msg("mDNS responder stopped")
	return a.conn.Close()
}
