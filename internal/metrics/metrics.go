package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "lamportd"

// Collector is a prometheus.Collector that collects metrics about the mutual
// exclusion engine and its transport. A nil *Collector is valid and records
// nothing.
type Collector struct {
	requests         prometheus.Counter
	grants           prometheus.Counter
	held             prometheus.Gauge
	queueLength      prometheus.Gauge
	waitTime         prometheus.Histogram
	violations       prometheus.Counter
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	sendFailures     *prometheus.CounterVec
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		requests: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "The number of local critical section requests.",
			},
		),
		grants: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "grants_total",
				Help:      "The number of times the local process entered the critical section.",
			},
		),
		held: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "held",
				Help:      "1 while the local process holds the critical section.",
			},
		),
		queueLength: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "pending_requests",
				Help:      "The number of requests in the local pending queue.",
			},
		),
		waitTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "wait_seconds",
				Help:      "The time between a local request and entering the critical section.",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		violations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "protocol_violations_total",
				Help:      "The number of protocol violations detected.",
			},
		),
		messagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "messages_sent_total",
				Help:      "The number of messages written to peers.",
			}, []string{"kind"},
		),
		messagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "messages_received_total",
				Help:      "The number of messages received from peers.",
			}, []string{"kind"},
		),
		sendFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "send_failures_total",
				Help:      "The number of messages dropped because the peer could not be reached.",
			}, []string{"kind"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.requests.Describe(ch)
	c.grants.Describe(ch)
	c.held.Describe(ch)
	c.queueLength.Describe(ch)
	c.waitTime.Describe(ch)
	c.violations.Describe(ch)
	c.messagesSent.Describe(ch)
	c.messagesReceived.Describe(ch)
	c.sendFailures.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.requests.Collect(ch)
	c.grants.Collect(ch)
	c.held.Collect(ch)
	c.queueLength.Collect(ch)
	c.waitTime.Collect(ch)
	c.violations.Collect(ch)
	c.messagesSent.Collect(ch)
	c.messagesReceived.Collect(ch)
	c.sendFailures.Collect(ch)
}

// RequestIssued records a local request.
func (c *Collector) RequestIssued() {
	if c == nil {
		return
	}
	c.requests.Inc()
}

// Entered records entry into the critical section after waiting for wait.
func (c *Collector) Entered(wait time.Duration) {
	if c == nil {
		return
	}
	c.grants.Inc()
	c.held.Set(1)
	c.waitTime.Observe(wait.Seconds())
}

// Exited records leaving the critical section.
func (c *Collector) Exited() {
	if c == nil {
		return
	}
	c.held.Set(0)
}

// QueueLength records the current size of the pending queue.
func (c *Collector) QueueLength(n int) {
	if c == nil {
		return
	}
	c.queueLength.Set(float64(n))
}

// ProtocolViolation records a detected protocol violation.
func (c *Collector) ProtocolViolation() {
	if c == nil {
		return
	}
	c.violations.Inc()
}

// MessageSent records a message of the given kind written to a peer.
func (c *Collector) MessageSent(kind string) {
	if c == nil {
		return
	}
	c.messagesSent.WithLabelValues(kind).Inc()
}

// MessageReceived records a message of the given kind received from a peer.
func (c *Collector) MessageReceived(kind string) {
	if c == nil {
		return
	}
	c.messagesReceived.WithLabelValues(kind).Inc()
}

// SendFailed records a message of the given kind that could not be delivered.
func (c *Collector) SendFailed(kind string) {
	if c == nil {
		return
	}
	c.sendFailures.WithLabelValues(kind).Inc()
}
