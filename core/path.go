package core

import (
	"fmt"
	"math"
	"slices"

	"github.com/encodeous/sensornet/perf"
	"github.com/encodeous/sensornet/state"
	"github.com/jellydator/ttlcache/v3"
)

type RouteErrorKind int

const (
	NodeMissing RouteErrorKind = iota
	NoRoute
	IncompleteTable
	RoutingLoop
	MaxHopsExceeded
	LinkMissing
)

func (k RouteErrorKind) String() string {
	switch k {
	case NodeMissing:
		return "node_missing"
	case NoRoute:
		return "no_route"
	case IncompleteTable:
		return "incomplete_table"
	case RoutingLoop:
		return "routing_loop"
	case MaxHopsExceeded:
		return "max_hops_exceeded"
	case LinkMissing:
		return "link_missing"
	}
	return fmt.Sprintf("RouteErrorKind(%d)", int(k))
}

func (k RouteErrorKind) message() string {
	switch k {
	case NodeMissing:
		return "node does not exist"
	case NoRoute:
		return "no route - different partition"
	case IncompleteTable:
		return "incomplete routing table"
	case RoutingLoop:
		return "routing loop detected"
	case MaxHopsExceeded:
		return "maximum hop count exceeded"
	case LinkMissing:
		return "link missing in path"
	}
	return k.String()
}

// RouteError is a failed transmission. It is an expected outcome, not a fault.
type RouteError struct {
	Kind     RouteErrorKind
	Src, Dst state.NodeId
	err      error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("%d -> %d: %s", e.Src, e.Dst, e.Kind.message())
}

func (e *RouteError) Unwrap() error {
	return e.err
}

// Transmission is a resolved forwarding path. Path starts at the source and ends at the
// destination.
type Transmission struct {
	Path  []state.NodeId
	Delay float64
}

func (t Transmission) Hops() int {
	return max(len(t.Path)-1, 0)
}

// ResolvePath walks the routing tables from src towards dst. On success the source's data
// packet counter is incremented once. A transmission to self is trivially delivered and not
// counted.
func ResolvePath(net *state.Network, src, dst state.NodeId) (Transmission, error) {
	path, err := walkPath(net, src, dst)
	if err != nil {
		return Transmission{Delay: state.INF}, err
	}
	return deliver(net, src, dst, path)
}

func walkPath(net *state.Network, src, dst state.NodeId) ([]state.NodeId, error) {
	source, err := net.Node(src)
	if err != nil {
		return nil, &RouteError{Kind: NodeMissing, Src: src, Dst: dst, err: err}
	}
	if _, err := net.Node(dst); err != nil {
		return nil, &RouteError{Kind: NodeMissing, Src: src, Dst: dst, err: err}
	}
	if src == dst {
		return []state.NodeId{src}, nil
	}
	if r, ok := source.RoutingTable[dst]; !ok || math.IsInf(r.Metric, 1) {
		return nil, &RouteError{Kind: NoRoute, Src: src, Dst: dst}
	}

	maxHops := net.Len() + 1
	path := make([]state.NodeId, 0)
	for cur := src; cur != dst; {
		if len(path) >= maxHops {
			return nil, &RouteError{Kind: MaxHopsExceeded, Src: src, Dst: dst}
		}
		path = append(path, cur)
		r, ok := net.GetNodeById(cur).RoutingTable[dst]
		if !ok || r.Nh == state.None || net.GetNodeById(r.Nh) == nil {
			return nil, &RouteError{Kind: IncompleteTable, Src: src, Dst: dst}
		}
		if slices.Contains(path, r.Nh) {
			return nil, &RouteError{Kind: RoutingLoop, Src: src, Dst: dst}
		}
		cur = r.Nh
	}
	return append(path, dst), nil
}

// pathDelay sums the current link delays along path
func pathDelay(net *state.Network, path []state.NodeId) (float64, bool) {
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		delay, ok := net.GetNodeById(path[i]).Connections[path[i+1]]
		if !ok {
			return state.INF, false
		}
		total += delay
	}
	return total, true
}

func deliver(net *state.Network, src, dst state.NodeId, path []state.NodeId) (Transmission, error) {
	delay, ok := pathDelay(net, path)
	if !ok {
		perf.FailedTransmissionsPerSecond.Add(1)
		return Transmission{Delay: state.INF}, &RouteError{Kind: LinkMissing, Src: src, Dst: dst}
	}
	if src != dst {
		net.GetNodeById(src).Counters.DataPackets++
	}
	perf.TransmissionsPerSecond.Add(1)
	return Transmission{Path: path, Delay: delay}, nil
}

type pathKey = state.Pair[state.NodeId, state.NodeId]

// Resolver caches walked paths until the network changes. Delays are always taken from the
// current links.
type Resolver struct {
	net     *state.Network
	cache   *ttlcache.Cache[pathKey, []state.NodeId]
	version uint64
}

func NewResolver(net *state.Network) *Resolver {
	return &Resolver{
		net: net,
		cache: ttlcache.New[pathKey, []state.NodeId](
			ttlcache.WithCapacity[pathKey, []state.NodeId](state.PathCacheCapacity),
			ttlcache.WithDisableTouchOnHit[pathKey, []state.NodeId](),
		),
		version: net.Version(),
	}
}

// Resolve behaves like ResolvePath.
func (r *Resolver) Resolve(src, dst state.NodeId) (Transmission, error) {
	if v := r.net.Version(); v != r.version {
		r.cache.DeleteAll()
		r.version = v
	}
	key := pathKey{V1: src, V2: dst}
	if item := r.cache.Get(key); item != nil {
		perf.PathCacheHitsPerSecond.Add(1)
		return deliver(r.net, src, dst, slices.Clone(item.Value()))
	}
	perf.PathCacheMissesPerSecond.Add(1)

	path, err := walkPath(r.net, src, dst)
	if err != nil {
		perf.FailedTransmissionsPerSecond.Add(1)
		return Transmission{Delay: state.INF}, err
	}
	r.cache.Set(key, slices.Clone(path), ttlcache.NoTTL)
	return deliver(r.net, src, dst, path)
}

// Cached returns the number of cached paths.
func (r *Resolver) Cached() int {
	return r.cache.Len()
}
