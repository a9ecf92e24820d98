package core

import (
	"math"

	"github.com/encodeous/sensornet/state"
)

type MessageTotals struct {
	Hello          uint64 `yaml:"hello"`
	Topology       uint64 `yaml:"topology"`
	RouteDiscovery uint64 `yaml:"route_discovery"`
	DataPackets    uint64 `yaml:"data_packets"`
	Total          uint64 `yaml:"total"`
}

// Efficiency is the share of data packets in all messages, 0 when nothing was sent.
func (t MessageTotals) Efficiency() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.DataPackets) / float64(t.Total)
}

func Totals(net *state.Network) MessageTotals {
	c := net.Counters()
	return MessageTotals{
		Hello:          c.Hello,
		Topology:       c.Topology,
		RouteDiscovery: c.RouteDiscovery,
		DataPackets:    c.DataPackets,
		Total:          c.Total(),
	}
}

func Efficiency(net *state.Network) float64 {
	return Totals(net).Efficiency()
}

type CounterKind int

const (
	HelloCounter CounterKind = iota
	TopologyCounter
	RouteDiscoveryCounter
	DataCounter
)

// ResetCounters zeroes the given counters on every node, or all of them if none are given.
func ResetCounters(net *state.Network, kinds ...CounterKind) {
	if len(kinds) == 0 {
		kinds = []CounterKind{HelloCounter, TopologyCounter, RouteDiscoveryCounter, DataCounter}
	}
	for _, node := range net.Nodes() {
		for _, k := range kinds {
			switch k {
			case HelloCounter:
				node.Counters.Hello = 0
			case TopologyCounter:
				node.Counters.Topology = 0
			case RouteDiscoveryCounter:
				node.Counters.RouteDiscovery = 0
			case DataCounter:
				node.Counters.DataPackets = 0
			}
		}
	}
}

// SendHellos has every node with at least one neighbour broadcast a single hello.
func SendHellos(net *state.Network) int {
	sent := 0
	for _, node := range net.Nodes() {
		if node.Degree() > 0 {
			node.Counters.Hello++
			sent++
		}
	}
	return sent
}

type Connectivity struct {
	Connected bool    `yaml:"connected"`
	Ratio     float64 `yaml:"ratio"`
	// ordered (src, dst) pairs without a finite route
	Unreachable []state.Pair[state.NodeId, state.NodeId] `yaml:"unreachable,omitempty"`
}

// CheckConnectivity inspects the routing tables for pairs of nodes that cannot reach each other.
func CheckConnectivity(net *state.Network) Connectivity {
	res := Connectivity{Connected: true, Ratio: 1}
	n := net.Len()
	if n < 2 {
		return res
	}
	reachable := 0
	for _, src := range net.Nodes() {
		for _, dst := range net.Ids() {
			if dst == src.Id {
				continue
			}
			if r, ok := src.RoutingTable[dst]; ok && !math.IsInf(r.Metric, 1) {
				reachable++
			} else {
				res.Unreachable = append(res.Unreachable, state.Pair[state.NodeId, state.NodeId]{V1: src.Id, V2: dst})
			}
		}
	}
	res.Connected = len(res.Unreachable) == 0
	res.Ratio = float64(reachable) / float64(n*(n-1))
	return res
}
