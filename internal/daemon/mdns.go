package daemon

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// DNS-SD names of the daemon's HTTP API.
const (
	ServiceAPI    = "_ieee1905._tcp"
	DefaultDomain = "local."
)

// DefaultDiscoverTimeout bounds DiscoverAPI when ctx has no deadline.
const DefaultDiscoverTimeout = 3 * time.Second

// TXT record keys.
const (
	txtRole      = "role"
	txtALMAC     = "al_mac"
	txtTransport = "transport"
	txtDataPort  = "data_port"
)

// MDNSServer is a registered DNS-SD service.
type MDNSServer interface {
	// Shutdown withdraws the registration.
	Shutdown()
}

// MDNSServerFactory registers DNS-SD services. Tests inject an in-memory one.
type MDNSServerFactory interface {
	// Register answers with the addresses of the local interfaces.
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)

	// RegisterProxy answers with host and ips instead.
	RegisterProxy(instance, service, domain string, port int, host string, ips []string, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

// MDNSResolver browses for DNS-SD services.
type MDNSResolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// zeroconfServerFactory is the production implementation using grandcat/zeroconf.
type zeroconfServerFactory struct{}

func (zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

func (zeroconfServerFactory) RegisterProxy(instance, service, domain string, port int, host string, ips []string, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.RegisterProxy(instance, service, domain, port, host, ips, txt, ifaces)
}

// NewMDNSResolver returns a resolver on all multicast interfaces.
func NewMDNSResolver() (MDNSResolver, error) {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Service is a daemon API found through DNS-SD.
type Service struct {
	Instance  string
	HostName  string
	Port      int
	IPs       []net.IP
	Role      string
	ALMAC     string
	Transport string
	// DataPort is the UDP data port, zero on the link-layer transport.
	DataPort int
}

// APIAddr returns host:port of the API, preferring IPv4.
func (s Service) APIAddr() string {
	ip := s.preferredIP()
	if ip == nil {
		return ""
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(s.Port))
}

// DataAddr returns host:port of the UDP data socket, or "" if the daemon
// is not reachable over UDP.
func (s Service) DataAddr() string {
	ip := s.preferredIP()
	if ip == nil || s.DataPort == 0 {
		return ""
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(s.DataPort))
}

func (s Service) preferredIP() net.IP {
	for _, ip := range s.IPs {
		if ip.To4() != nil {
			return ip
		}
	}
	if len(s.IPs) > 0 {
		return s.IPs[0]
	}
	return nil
}

// instanceName is the DNS-SD instance advertised for this daemon.
func (d *Daemon) instanceName() string {
	if d.config.MDNSInstance != "" {
		return d.config.MDNSInstance
	}
	return "ieee1905d-" + strings.ReplaceAll(d.tc.LocalAddress().String(), ":", "")
}

func (d *Daemon) txtRecords() []string {
	txt := []string{
		txtRole + "=" + d.tc.Role().String(),
		txtALMAC + "=" + d.tc.LocalAddress().String(),
		txtTransport + "=" + d.config.Transport,
	}
	if udp, ok := d.tc.LocalAddr().(*net.UDPAddr); ok {
		txt = append(txt, txtDataPort+"="+strconv.Itoa(udp.Port))
	}
	return txt
}

// advertise registers the API listening on addr. An API bound to one
// address is advertised with that address only. The returned server is
// nil when advertising is disabled.
func (d *Daemon) advertise(addr *net.TCPAddr) (MDNSServer, error) {
	if !d.config.Advertise {
		return nil, nil
	}

	instance := d.instanceName()
	txt := d.txtRecords()
	d.log.Debugf("registering mDNS service: instance=%s service=%s addr=%v txt=%v",
		instance, ServiceAPI, addr, txt)

	var (
		server MDNSServer
		err    error
	)
	if addr.IP == nil || addr.IP.IsUnspecified() {
		server, err = d.mdns.Register(instance, ServiceAPI, DefaultDomain, addr.Port, txt, nil)
	} else {
		server, err = d.mdns.RegisterProxy(instance, ServiceAPI, DefaultDomain, addr.Port,
			instance, []string{addr.IP.String()}, txt, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("daemon: mDNS registration of %s: %w", ServiceAPI, err)
	}
	d.log.Infof("advertising api as %s.%s.%s", instance, ServiceAPI, DefaultDomain)
	return server, nil
}

// DiscoverAPI browses for daemon APIs and returns the first one accepted
// by match. A nil match accepts any daemon.
func DiscoverAPI(ctx context.Context, resolver MDNSResolver, match func(Service) bool) (Service, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDiscoverTimeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Only the resolver writes to entries; it stops once ctx is cancelled.
	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, ServiceAPI, DefaultDomain, entries); err != nil {
		return Service{}, fmt.Errorf("browse %s: %w", ServiceAPI, err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return Service{}, ErrServiceNotFound
			}
			if entry == nil {
				continue
			}
			svc := entryToService(entry)
			if svc.APIAddr() == "" {
				continue
			}
			if match == nil || match(svc) {
				return svc, nil
			}
		case <-ctx.Done():
			return Service{}, ErrServiceNotFound
		}
	}
}

// RoleMatch accepts daemons advertising role.
func RoleMatch(role string) func(Service) bool {
	return func(s Service) bool { return s.Role == role }
}

func entryToService(entry *zeroconf.ServiceEntry) Service {
	svc := Service{
		Instance: entry.Instance,
		HostName: entry.HostName,
		Port:     entry.Port,
	}
	svc.IPs = append(svc.IPs, entry.AddrIPv4...)
	svc.IPs = append(svc.IPs, entry.AddrIPv6...)

	for _, kv := range entry.Text {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch key {
		case txtRole:
			svc.Role = value
		case txtALMAC:
			svc.ALMAC = value
		case txtTransport:
			svc.Transport = value
		case txtDataPort:
			if port, err := strconv.Atoi(value); err == nil && port > 0 && port <= 65535 {
				svc.DataPort = port
			}
		}
	}
	return svc
}
