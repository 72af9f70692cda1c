package catalogue

import (
	"time"

	"github.com/chembank/chembank/pkg/errors"
	"github.com/chembank/chembank/pkg/transfer"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics is registered on a registry owned by the catalogue so that several
// catalogues (tests, resets) never collide on the default registerer.
type metrics struct {
	registry    *prometheus.Registry
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transferred *prometheus.CounterVec
	imageBytes  *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chembank",
			Name:      "operations_total",
			Help:      "Catalogue operations by name and outcome.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chembank",
			Name:      "operation_duration_seconds",
			Help:      "Time spent inside catalogue operations, lock held.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		transferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chembank",
			Name:      "transfer_rows_total",
			Help:      "Rows moved by bulk export and import.",
		}, []string{"direction", "table"}),
		imageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chembank",
			Name:      "transfer_image_bytes_total",
			Help:      "Image payload bytes moved by bulk export and import.",
		}, []string{"direction"}),
	}
	m.registry.MustRegister(m.operations, m.duration, m.transferred, m.imageBytes)
	return m
}

// observe records one finished operation. err points at the named result.
func (m *metrics) observe(op string, start time.Time, err *error) {
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.operations.WithLabelValues(op, resultLabel(*err)).Inc()
}

func (m *metrics) recordTransfer(direction string, s *transfer.Stats) {
	if s == nil {
		return
	}
	m.transferred.WithLabelValues(direction, "structures").Add(float64(s.Structures))
	m.transferred.WithLabelValues(direction, "properties").Add(float64(s.Properties))
	m.transferred.WithLabelValues(direction, "components").Add(float64(s.Components))
	m.transferred.WithLabelValues(direction, "images").Add(float64(s.Images))
	m.imageBytes.WithLabelValues(direction).Add(float64(s.ImageBytes))
}

func resultLabel(err error) string {
	switch errors.KindOf(err) {
	case nil:
		if err != nil {
			return "storage_failure"
		}
		return "ok"
	case errors.ErrNotFound:
		return "not_found"
	case errors.ErrConstraintViolation:
		return "constraint_violation"
	case errors.ErrReferencedByOther:
		return "referenced_by_other"
	case errors.ErrMalformedInput:
		return "malformed_input"
	case errors.ErrEmptyImageFolder:
		return "empty_image_folder"
	case errors.ErrInvalidImageFolder:
		return "invalid_image_folder"
	default:
		return "storage_failure"
	}
}
