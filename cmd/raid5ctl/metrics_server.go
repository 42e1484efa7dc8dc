package main

import (
	"net/http"
	"time"

	"github.com/mdraid5/raid5vol/internal/raid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newMetricsServer mirrors cmd/pulse/metrics_server.go's shape: a single
// promhttp.Handler mounted under /metrics, wrapped in an *http.Server with
// the same conservative timeouts. The registry is built fresh per volume
// rather than reusing prometheus.DefaultRegisterer so a volume's
// collectors never collide with another package's metrics under the same
// process.
func newMetricsServer(addr string, v *raid.Volume) *http.Server {
	reg := prometheus.NewRegistry()
	for _, c := range v.Collectors() {
		reg.MustRegister(c)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}
