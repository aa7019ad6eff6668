// Package status exposes the engine's runtime counters on a process-local
// prometheus registry. Callers such as an out-of-scope status page scrape
// Registry directly, this package never serves HTTP itself.
package status

import "github.com/prometheus/client_golang/prometheus"

// Counters is the full set of metrics the engine maintains.
type Counters struct {
	Registry *prometheus.Registry

	// McastSent is registered but no engine component increments it.
	McastSent      prometheus.Counter
	McastReceived  prometheus.Counter
	McastDuplicate prometheus.Counter
	FramesDropped  prometheus.Counter

	OutwardConnections prometheus.Gauge
	InwardConnections  prometheus.Gauge
}

// New builds a fresh registry with every counter registered under a common
// namespace, ready for a caller to scrape or expose.
func New() *Counters {
	reg := prometheus.NewRegistry()
	c := &Counters{
		Registry: reg,
		McastSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pioneer", Subsystem: "mcast", Name: "sent_total",
			Help: "Multicast datagrams sent.",
		}),
		McastReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pioneer", Subsystem: "mcast", Name: "received_total",
			Help: "Multicast datagrams accepted after dedup.",
		}),
		McastDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pioneer", Subsystem: "mcast", Name: "duplicate_total",
			Help: "Multicast datagrams dropped as duplicates.",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pioneer", Subsystem: "dispatch", Name: "frames_dropped_total",
			Help: "Frames dropped by the TCP stream framer for a malformed length prefix.",
		}),
		OutwardConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pioneer", Subsystem: "conn", Name: "outward_count",
			Help: "Live outward-direction connections.",
		}),
		InwardConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pioneer", Subsystem: "conn", Name: "inward_count",
			Help: "Live inward-direction connections.",
		}),
	}
	reg.MustRegister(c.McastSent, c.McastReceived, c.McastDuplicate, c.FramesDropped,
		c.OutwardConnections, c.InwardConnections)
	return c
}
