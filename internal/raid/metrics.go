package raid

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the Prometheus collectors for one volume. Exported via
// Volume.Collectors() so cmd/raid5ctl can register them with its own
// registry, mirroring how cmd/pulse/metrics_server.go wires promhttp.
type metrics struct {
	status      prometheus.Gauge
	deviceAlive *prometheus.GaugeVec
	reads       prometheus.Counter
	writes      prometheus.Counter
	reconstructs prometheus.Counter
	resyncs      *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "raid5vol",
			Name:      "array_status",
			Help:      "Current array status: 0=stopped 1=ok 2=degraded 3=failed.",
		}),
		deviceAlive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "raid5vol",
			Name:      "device_alive",
			Help:      "1 if the device is alive, 0 if marked dead.",
		}, []string{"device"}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "raid5vol",
			Name:      "reads_total",
			Help:      "Logical sectors read.",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "raid5vol",
			Name:      "writes_total",
			Help:      "Logical sectors written.",
		}),
		reconstructs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "raid5vol",
			Name:      "reconstructs_total",
			Help:      "Sectors rebuilt on the fly from parity.",
		}),
		resyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raid5vol",
			Name:      "resyncs_total",
			Help:      "Resync attempts by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *metrics) setStatus(s Status) {
	m.status.Set(float64(s))
}

func (m *metrics) setDeviceAlive(idx int, alive bool) {
	v := 0.0
	if alive {
		v = 1.0
	}
	m.deviceAlive.WithLabelValues(deviceLabel(idx)).Set(v)
}

func deviceLabel(idx int) string {
	const digits = "0123456789"
	if idx < 10 {
		return string(digits[idx])
	}
	// MaxDevices is 16; two digits always suffice.
	return string(digits[idx/10]) + string(digits[idx%10])
}

// Collectors returns the volume's Prometheus collectors for registration.
func (v *Volume) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		v.m.status,
		v.m.deviceAlive,
		v.m.reads,
		v.m.writes,
		v.m.reconstructs,
		v.m.resyncs,
	}
}
