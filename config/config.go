// Package config loads the engine's flat integer/string configuration
// surface from environment variables with defaults, via
// github.com/spf13/viper — a better fit here than hand-rolled os.Getenv
// parsing given how many integer knobs the engine exposes. The CLI/flag
// front-end that would normally sit on top of this loader is out of
// scope; only the loader itself is in-engine.
package config

import (
	"net"
	"time"

	"github.com/spf13/viper"
)

// Config is the engine's process-wide configuration.
type Config struct {
	OutwardPort int // default 9100
	InwardPort  int // default 9101
	StatusPort  int // default 9190 (consumed by the out-of-scope status page)

	OutwardThreads int // outward TCP server thread count
	InwardThreads  int // inward TCP server thread count
	ClientThreads  int // inward-client-pool thread count

	McastGroup string // default 234.1.1.18
	McastPort  int    // default 1234

	// engine-internal knobs beyond the wire-level settings above
	CallTimeout      time.Duration // default per-call sync suspend timeout
	AsyncSessionTTL  time.Duration // age at which the reaper evicts a stale async fan-in (swept every TTL/2)
	StopDrainTimeout time.Duration // default 30s; inward.Pool does not read it and uses its own fixed 30s drain deadline
	DebugArchive     bool          // select the textual (jsoniter) codec instead of msgp
	Compression      bool          // enable LZ4 body compression on the wire framer
}

const (
	defOutwardPort = 9100
	defInwardPort  = 9101
	defStatusPort  = 9190
	defMcastGroup  = "234.1.1.18"
	defMcastPort   = 1234
)

// Load reads defaults, then overrides from PIONEER_-prefixed environment
// variables (PIONEER_OUTWARD_PORT, PIONEER_MCAST_GROUP, ...).
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("PIONEER")
	v.AutomaticEnv()

	v.SetDefault("outward_port", defOutwardPort)
	v.SetDefault("inward_port", defInwardPort)
	v.SetDefault("status_port", defStatusPort)
	v.SetDefault("outward_threads", 4)
	v.SetDefault("inward_threads", 4)
	v.SetDefault("client_threads", 2)
	v.SetDefault("mcast_group", defMcastGroup)
	v.SetDefault("mcast_port", defMcastPort)
	v.SetDefault("call_timeout_ms", 2000)
	v.SetDefault("async_session_ttl_s", 60)
	v.SetDefault("stop_drain_timeout_s", 30)
	v.SetDefault("debug_archive", false)
	v.SetDefault("compression", false)

	return &Config{
		OutwardPort:      v.GetInt("outward_port"),
		InwardPort:       v.GetInt("inward_port"),
		StatusPort:       v.GetInt("status_port"),
		OutwardThreads:   v.GetInt("outward_threads"),
		InwardThreads:    v.GetInt("inward_threads"),
		ClientThreads:    v.GetInt("client_threads"),
		McastGroup:       v.GetString("mcast_group"),
		McastPort:        v.GetInt("mcast_port"),
		CallTimeout:      time.Duration(v.GetInt("call_timeout_ms")) * time.Millisecond,
		AsyncSessionTTL:  time.Duration(v.GetInt("async_session_ttl_s")) * time.Second,
		StopDrainTimeout: time.Duration(v.GetInt("stop_drain_timeout_s")) * time.Second,
		DebugArchive:     v.GetBool("debug_archive"),
		Compression:      v.GetBool("compression"),
	}
}

// McastAddr resolves the configured multicast group:port.
func (c *Config) McastAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(c.McastGroup), Port: c.McastPort}
}

// Default returns a Config populated purely from defaults, useful in tests
// that don't want environment leakage between cases.
func Default() *Config {
	return &Config{
		OutwardPort:      defOutwardPort,
		InwardPort:       defInwardPort,
		StatusPort:       defStatusPort,
		OutwardThreads:   4,
		InwardThreads:    4,
		ClientThreads:    2,
		McastGroup:       defMcastGroup,
		McastPort:        defMcastPort,
		CallTimeout:      2 * time.Second,
		AsyncSessionTTL:  60 * time.Second,
		StopDrainTimeout: 30 * time.Second,
	}
}
