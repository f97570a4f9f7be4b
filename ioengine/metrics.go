package ioengine

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a prometheus.Collector exposing engine throughput and
// flow-control counters. Registering it is optional: a nil *Metrics is
// safe everywhere it's consulted in this package (every call site
// nil-checks before touching it).
type Metrics struct {
	bytesWritten     atomic.Uint64
	bytesRead        atomic.Uint64
	statusEvents     atomic.Uint64
	speedPotEvents   atomic.Uint64
	echoEvents       atomic.Uint64
	xoffTransitions  atomic.Uint64

	bytesWrittenDesc    *prometheus.Desc
	bytesReadDesc       *prometheus.Desc
	statusEventsDesc    *prometheus.Desc
	speedPotEventsDesc  *prometheus.Desc
	echoEventsDesc      *prometheus.Desc
	xoffTransitionsDesc *prometheus.Desc
	bgQueueDepthDesc    *prometheus.Desc

	bgQueueDepth func() int
}

// NewMetrics constructs a Metrics collector. constLabels carries values
// constant for the process (e.g. the serial device path), matching the
// constLabels parameter of the collector this is grounded on.
func NewMetrics(constLabels prometheus.Labels) *Metrics {
	ns := "winkey"
	return &Metrics{
		bytesWrittenDesc: prometheus.NewDesc(
			ns+"_bytes_written_total", "Total bytes written to the keyer.", nil, constLabels),
		bytesReadDesc: prometheus.NewDesc(
			ns+"_bytes_read_total", "Total bytes read from the keyer.", nil, constLabels),
		statusEventsDesc: prometheus.NewDesc(
			ns+"_status_events_total", "Total Status bytes classified.", nil, constLabels),
		speedPotEventsDesc: prometheus.NewDesc(
			ns+"_speed_pot_events_total", "Total SpeedPot bytes classified.", nil, constLabels),
		echoEventsDesc: prometheus.NewDesc(
			ns+"_echo_events_total", "Total Echo bytes classified.", nil, constLabels),
		xoffTransitionsDesc: prometheus.NewDesc(
			ns+"_xoff_transitions_total", "Total times the XOFF gate was observed asserted.", nil, constLabels),
		bgQueueDepthDesc: prometheus.NewDesc(
			ns+"_bg_queue_depth", "Current depth of the background request queue.", nil, constLabels),
	}
}

// SetBGQueueDepthFunc wires a gauge supplier; the keyer handshake
// (Builder.dialWithPort) calls this with Engine.BGQueueLen once the engine
// is constructed.
func (m *Metrics) SetBGQueueDepthFunc(f func() int) { m.bgQueueDepth = f }

func (m *Metrics) AddBytesWritten(n int)   { m.bytesWritten.Add(uint64(n)) }
func (m *Metrics) AddBytesRead(n int)      { m.bytesRead.Add(uint64(n)) }
func (m *Metrics) IncStatusEvents()        { m.statusEvents.Add(1) }
func (m *Metrics) IncSpeedPotEvents()      { m.speedPotEvents.Add(1) }
func (m *Metrics) IncEchoEvents()          { m.echoEvents.Add(1) }
func (m *Metrics) IncXoffTransitions()     { m.xoffTransitions.Add(1) }

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(descs chan<- *prometheus.Desc) {
	descs <- m.bytesWrittenDesc
	descs <- m.bytesReadDesc
	descs <- m.statusEventsDesc
	descs <- m.speedPotEventsDesc
	descs <- m.echoEventsDesc
	descs <- m.xoffTransitionsDesc
	descs <- m.bgQueueDepthDesc
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(metrics chan<- prometheus.Metric) {
	metrics <- prometheus.MustNewConstMetric(m.bytesWrittenDesc, prometheus.CounterValue, float64(m.bytesWritten.Load()))
	metrics <- prometheus.MustNewConstMetric(m.bytesReadDesc, prometheus.CounterValue, float64(m.bytesRead.Load()))
	metrics <- prometheus.MustNewConstMetric(m.statusEventsDesc, prometheus.CounterValue, float64(m.statusEvents.Load()))
	metrics <- prometheus.MustNewConstMetric(m.speedPotEventsDesc, prometheus.CounterValue, float64(m.speedPotEvents.Load()))
	metrics <- prometheus.MustNewConstMetric(m.echoEventsDesc, prometheus.CounterValue, float64(m.echoEvents.Load()))
	metrics <- prometheus.MustNewConstMetric(m.xoffTransitionsDesc, prometheus.CounterValue, float64(m.xoffTransitions.Load()))
	if m.bgQueueDepth != nil {
		metrics <- prometheus.MustNewConstMetric(m.bgQueueDepthDesc, prometheus.GaugeValue, float64(m.bgQueueDepth()))
	}
}

var _ prometheus.Collector = (*Metrics)(nil)
