package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HttpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalog_studio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	IntakeRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog_studio",
			Subsystem: "intake",
			Name:      "rejections_total",
			Help:      "Raw image files rejected before cropping",
		},
		[]string{"reason"},
	)

	CropsApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "catalog_studio",
			Subsystem: "crop",
			Name:      "applied_total",
			Help:      "Crop sessions finished with an encoded image",
		},
	)

	CropsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "catalog_studio",
			Subsystem: "crop",
			Name:      "cancelled_total",
			Help:      "Crop sessions closed without output",
		},
	)

	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog_studio",
			Subsystem: "submit",
			Name:      "attempts_total",
			Help:      "Draft submissions by result",
		},
		[]string{"result"},
	)

	OpenForms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "catalog_studio",
			Subsystem: "form",
			Name:      "open",
			Help:      "Form sessions currently open",
		},
	)
)

// Register 注册全部指标
func Register(reg prometheus.Registerer) {
	reg.MustRegister(HttpDuration, IntakeRejections, CropsApplied, CropsCancelled, Submissions, OpenForms)
}
