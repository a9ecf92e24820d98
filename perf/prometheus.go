package perf

import (
	"github.com/encodeous/sensornet/state"
	"github.com/prometheus/client_golang/prometheus"
)

// AccountingCollector exports the network-wide message counters. The source must be safe to
// call from the scraping goroutine.
type AccountingCollector struct {
	source     func() state.Counters
	messages   *prometheus.Desc
	efficiency *prometheus.Desc
}

func NewAccountingCollector(source func() state.Counters) *AccountingCollector {
	return &AccountingCollector{
		source: source,
		messages: prometheus.NewDesc(
			"sensornet_messages_total",
			"Messages sent by all nodes, by kind.",
			[]string{"kind"}, nil,
		),
		efficiency: prometheus.NewDesc(
			"sensornet_protocol_efficiency",
			"Share of data packets in all messages sent.",
			nil, nil,
		),
	}
}

func (c *AccountingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.messages
	ch <- c.efficiency
}

func (c *AccountingCollector) Collect(ch chan<- prometheus.Metric) {
	counters := c.source()
	ch <- prometheus.MustNewConstMetric(c.messages, prometheus.CounterValue, float64(counters.Hello), "hello")
	ch <- prometheus.MustNewConstMetric(c.messages, prometheus.CounterValue, float64(counters.Topology), "topology")
	ch <- prometheus.MustNewConstMetric(c.messages, prometheus.CounterValue, float64(counters.RouteDiscovery), "route_discovery")
	ch <- prometheus.MustNewConstMetric(c.messages, prometheus.CounterValue, float64(counters.DataPackets), "data")

	eff := 0.0
	if total := counters.Total(); total > 0 {
		eff = float64(counters.DataPackets) / float64(total)
	}
	ch <- prometheus.MustNewConstMetric(c.efficiency, prometheus.GaugeValue, eff)
}
