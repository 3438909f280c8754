package daemon

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pion/logging"

	"github.com/backkem/ieee1905/pkg/transport"
)

// Transport kinds.
const (
	TransportUDP       = "udp"
	TransportLinkLayer = "linklayer"
)

// Drain modes.
const (
	DrainEvent = "event"
	DrainPoll  = "poll"
)

// DefaultAPIAddr is where the HTTP API listens by default.
const DefaultAPIAddr = "127.0.0.1:8019"

// DefaultAPMAC is the interface / radio id placeholder used on the UDP
// substrate, where no real interface address exists.
var DefaultAPMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x10}

// Config configures the daemon.
type Config struct {
	// Role is the protocol role of the local endpoint.
	Role transport.Role

	// Transport is TransportUDP or TransportLinkLayer.
	Transport string

	// BindAddress is the UDP host to bind. Empty binds all addresses.
	BindAddress string

	// ListenPort is the UDP data port. Zero picks an ephemeral port.
	ListenPort int

	// Interface is the network interface for the link-layer transport.
	Interface string

	// ALMAC is the local AL MAC identity. If nil, one is generated.
	ALMAC net.HardwareAddr

	// APMAC is the interface / radio id written into outgoing frames.
	// On the link-layer transport the interface's own address is used.
	APMAC net.HardwareAddr

	// APIAddr is the HTTP API listen address.
	APIAddr string

	// LogLevel is one of disabled, error, warn, info, debug, trace.
	LogLevel string

	// DrainMode selects how inbound frames are drained: DrainEvent waits
	// for socket readiness and drains, DrainPoll polls with PollInterval.
	DrainMode string

	// PollInterval bounds each Poll in DrainPoll mode.
	PollInterval time.Duration

	// AutoRespond answers topology queries, and AP-autoconfiguration
	// searches when acting as controller.
	AutoRespond bool

	// Advertise publishes the HTTP API as a DNS-SD service over mDNS.
	Advertise bool

	// MDNSInstance is the advertised instance name. Empty derives one
	// from the AL MAC.
	MDNSInstance string
}

// DefaultConfig returns the configuration of a controller on the UDP substrate.
func DefaultConfig() Config {
	return Config{
		Role:         transport.RoleController,
		Transport:    TransportUDP,
		ListenPort:   transport.DefaultPort,
		APMAC:        append(net.HardwareAddr(nil), DefaultAPMAC...),
		APIAddr:      DefaultAPIAddr,
		LogLevel:     "info",
		DrainMode:    DrainEvent,
		PollInterval: 100 * time.Millisecond,
		AutoRespond:  true,
		Advertise:    true,
	}
}

type fileConfig struct {
	Role         string `toml:"role"`
	Transport    string `toml:"transport"`
	BindAddress  string `toml:"bind_address"`
	ListenPort   int    `toml:"listen_port"`
	Interface    string `toml:"interface"`
	ALMAC        string `toml:"al_mac"`
	APMAC        string `toml:"ap_mac"`
	APIAddr      string `toml:"api_addr"`
	LogLevel     string `toml:"log_level"`
	DrainMode    string `toml:"drain_mode"`
	PollInterval string `toml:"poll_interval"`
	AutoRespond  bool   `toml:"auto_respond"`
	Advertise    bool   `toml:"advertise"`
	MDNSInstance string `toml:"mdns_instance"`
}

// LoadConfig reads a TOML file and overlays the keys it defines onto DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load daemon config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}

	if meta.IsDefined("role") {
		role, ok := transport.ParseRole(strings.TrimSpace(raw.Role))
		if !ok {
			return Config{}, fmt.Errorf("%w: role %q", ErrInvalidConfig, raw.Role)
		}
		cfg.Role = role
	}

	if meta.IsDefined("transport") {
		cfg.Transport = strings.TrimSpace(raw.Transport)
	}

	if meta.IsDefined("bind_address") {
		cfg.BindAddress = strings.TrimSpace(raw.BindAddress)
	}

	if meta.IsDefined("listen_port") {
		cfg.ListenPort = raw.ListenPort
	}

	if meta.IsDefined("interface") {
		cfg.Interface = strings.TrimSpace(raw.Interface)
	}

	if meta.IsDefined("al_mac") {
		mac, err := parseMAC(raw.ALMAC)
		if err != nil {
			return Config{}, fmt.Errorf("parse al_mac: %w", err)
		}
		cfg.ALMAC = mac
	}

	if meta.IsDefined("ap_mac") {
		mac, err := parseMAC(raw.APMAC)
		if err != nil {
			return Config{}, fmt.Errorf("parse ap_mac: %w", err)
		}
		cfg.APMAC = mac
	}

	if meta.IsDefined("api_addr") {
		cfg.APIAddr = strings.TrimSpace(raw.APIAddr)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("drain_mode") {
		cfg.DrainMode = strings.TrimSpace(raw.DrainMode)
	}

	if meta.IsDefined("poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return Config{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}

	if meta.IsDefined("auto_respond") {
		cfg.AutoRespond = raw.AutoRespond
	}

	if meta.IsDefined("advertise") {
		cfg.Advertise = raw.Advertise
	}

	if meta.IsDefined("mdns_instance") {
		cfg.MDNSInstance = strings.TrimSpace(raw.MDNSInstance)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if !c.Role.IsValid() {
		return fmt.Errorf("%w: role %d", ErrInvalidConfig, c.Role)
	}

	switch c.Transport {
	case TransportUDP:
		if c.ListenPort < 0 || c.ListenPort > 65535 {
			return fmt.Errorf("%w: listen_port %d", ErrInvalidConfig, c.ListenPort)
		}
	case TransportLinkLayer:
		if c.Interface == "" {
			return fmt.Errorf("%w: transport %q requires an interface", ErrInvalidConfig, c.Transport)
		}
	default:
		return fmt.Errorf("%w: transport %q", ErrInvalidConfig, c.Transport)
	}

	switch c.DrainMode {
	case DrainEvent:
	case DrainPoll:
		if c.PollInterval <= 0 {
			return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: drain_mode %q", ErrInvalidConfig, c.DrainMode)
	}

	if c.ALMAC != nil && len(c.ALMAC) != 6 {
		return fmt.Errorf("%w: al_mac must be 6 bytes", ErrInvalidConfig)
	}
	if len(c.APMAC) != 6 {
		return fmt.Errorf("%w: ap_mac must be 6 bytes", ErrInvalidConfig)
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}

	return nil
}

// ListenAddr returns the UDP address to bind.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.BindAddress, fmt.Sprint(c.ListenPort))
}

var logLevels = map[string]logging.LogLevel{
	"disabled": logging.LogLevelDisabled,
	"error":    logging.LogLevelError,
	"warn":     logging.LogLevelWarn,
	"info":     logging.LogLevelInfo,
	"debug":    logging.LogLevelDebug,
	"trace":    logging.LogLevelTrace,
}

// LoggerFactory returns a pion logger factory at the configured level.
func (c Config) LoggerFactory() logging.LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	if level, ok := logLevels[c.LogLevel]; ok {
		f.DefaultLogLevel = level
	}
	return f
}

func parseMAC(s string) (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("%q is not a 6-byte address", s)
	}
	return mac, nil
}
