package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/dtn-simulator/core"
)

// SimCollector bundles the Prometheus metrics of a simulation run. It plugs
// into the world as a ConnectionListener and an UpdateListener, so every
// link transition is counted and the time and host gauges refresh after
// every completed update round, without touching the core loop.
type SimCollector struct {
	gatherer prometheus.Gatherer
	clock    *core.SimClock

	SimTime         prometheus.Gauge
	Hosts           prometheus.Gauge
	LiveConnections prometheus.Gauge
	ConnectionsUp   prometheus.Counter
	ConnectionsDown prometheus.Counter
	UpdateDuration  prometheus.Histogram
}

// NewSimCollector registers the simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(clock *core.SimClock, reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dtnsim_time_seconds",
		Help: "Current simulation time in seconds.",
	}), "dtnsim_time_seconds")
	if err != nil {
		return nil, err
	}
	hosts, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dtnsim_hosts",
		Help: "Number of hosts in the world.",
	}), "dtnsim_hosts")
	if err != nil {
		return nil, err
	}
	live, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dtnsim_live_connections",
		Help: "Number of currently live connections.",
	}), "dtnsim_live_connections")
	if err != nil {
		return nil, err
	}
	ups, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dtnsim_connections_up_total",
		Help: "Total number of connection-up transitions.",
	}), "dtnsim_connections_up_total")
	if err != nil {
		return nil, err
	}
	downs, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dtnsim_connections_down_total",
		Help: "Total number of connection-down transitions.",
	}), "dtnsim_connections_down_total")
	if err != nil {
		return nil, err
	}
	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dtnsim_update_duration_seconds",
		Help:    "Wall-clock duration of one World.Update call.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}), "dtnsim_update_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:        gatherer,
		clock:           clock,
		SimTime:         simTime,
		Hosts:           hosts,
		LiveConnections: live,
		ConnectionsUp:   ups,
		ConnectionsDown: downs,
		UpdateDuration:  durations,
	}, nil
}

// HostsConnected counts a link coming up.
func (c *SimCollector) HostsConnected(a, b *core.DTNHost) {
	c.ConnectionsUp.Inc()
	c.LiveConnections.Inc()
}

// HostsDisconnected counts a link going down.
func (c *SimCollector) HostsDisconnected(a, b *core.DTNHost) {
	c.ConnectionsDown.Inc()
	c.LiveConnections.Dec()
}

// Updated refreshes the gauges after a completed update round.
func (c *SimCollector) Updated(hosts []*core.DTNHost) {
	if c.clock != nil {
		c.SimTime.Set(c.clock.Time())
	}
	c.Hosts.Set(float64(len(hosts)))
}

// ObserveUpdate records the wall-clock duration of one World.Update call.
func (c *SimCollector) ObserveUpdate(d time.Duration) {
	c.UpdateDuration.Observe(d.Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
