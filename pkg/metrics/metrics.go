package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registry = prometheus.NewRegistry()

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vpsweb",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "List page cache lookups by prefix and result (hit, miss).",
	}, []string{"prefix", "result"})

	Mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vpsweb",
		Subsystem: "mutation",
		Name:      "settled_total",
		Help:      "Settled mutations by cache prefix and outcome (committed, rolled_back).",
	}, []string{"prefix", "outcome"})

	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vpsweb",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Requests sent to the remote API by path and result (ok, app_error, transport_error).",
	}, []string{"path", "result"})
)

func init() {
	Registry.MustRegister(CacheLookups, Mutations, UpstreamRequests)
}
