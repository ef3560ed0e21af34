// Package metrics abstracts the counters and latency observations the
// purchase core emits: verification outcomes, purchase terminal states,
// security events. The Prometheus recorder is optional; everything defaults
// to the noop.
package metrics

import "time"

// Recorder receives one counter increment or latency observation per call.
// The name selects the series; labels carry at least the chain.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
