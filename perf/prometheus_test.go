package perf

import (
	"strings"
	"testing"

	"github.com/encodeous/sensornet/state"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAccountingCollector(t *testing.T) {
	counters := state.Counters{Hello: 3, Topology: 2, RouteDiscovery: 1, DataPackets: 2}
	c := NewAccountingCollector(func() state.Counters { return counters })

	assert.Equal(t, 5, testutil.CollectAndCount(c))

	expected := `
# HELP sensornet_messages_total Messages sent by all nodes, by kind.
# TYPE sensornet_messages_total counter
sensornet_messages_total{kind="data"} 2
sensornet_messages_total{kind="hello"} 3
sensornet_messages_total{kind="route_discovery"} 1
sensornet_messages_total{kind="topology"} 2
# HELP sensornet_protocol_efficiency Share of data packets in all messages sent.
# TYPE sensornet_protocol_efficiency gauge
sensornet_protocol_efficiency 0.25
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestAccountingCollectorNoTraffic(t *testing.T) {
	c := NewAccountingCollector(func() state.Counters { return state.Counters{} })
	expected := `
# HELP sensornet_protocol_efficiency Share of data packets in all messages sent.
# TYPE sensornet_protocol_efficiency gauge
sensornet_protocol_efficiency 0
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "sensornet_protocol_efficiency"))
}
