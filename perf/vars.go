package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	ConvergenceRounds            = metric.NewHistogram("1m1s")
	IncrementalRounds            = metric.NewHistogram("1m1s")
	ConvergenceLatency           = metric.NewHistogram("1m1s")
	SentVectorsPerSecond         = metric.NewCounter("10s1s")
	TopologyChangesPerSecond     = metric.NewCounter("10s1s")
	TransmissionsPerSecond       = metric.NewCounter("10s1s")
	FailedTransmissionsPerSecond = metric.NewCounter("10s1s")
	PathCacheHitsPerSecond       = metric.NewCounter("10s1s")
	PathCacheMissesPerSecond     = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("sensornet:ConvergenceRounds", ConvergenceRounds)
	expvar.Publish("sensornet:IncrementalRounds", IncrementalRounds)
	expvar.Publish("sensornet:ConvergenceLatency (µs)", ConvergenceLatency)

	expvar.Publish("sensornet:SentVectors/s", SentVectorsPerSecond)
	expvar.Publish("sensornet:TopologyChanges/s", TopologyChangesPerSecond)
	expvar.Publish("sensornet:Transmissions/s", TransmissionsPerSecond)
	expvar.Publish("sensornet:FailedTransmissions/s", FailedTransmissionsPerSecond)
	expvar.Publish("sensornet:PathCacheHits/s", PathCacheHitsPerSecond)
	expvar.Publish("sensornet:PathCacheMisses/s", PathCacheMissesPerSecond)
}
