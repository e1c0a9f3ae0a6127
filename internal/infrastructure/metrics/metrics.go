// Package metrics colectores Prometheus de verificación y persistencia.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/pharmaverif-api/internal/application/verification"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
)

const namespace = "pharmaverif"

var _ verification.Recorder = (*Metrics)(nil)

// Metrics agrupa los colectores del servicio. Se registran una sola vez en el Registerer recibido.
type Metrics struct {
	verifications       *prometheus.CounterVec
	anomalies           *prometheus.CounterVec
	recoverable         prometheus.Counter
	verifyDuration      prometheus.Histogram
	persistenceWarnings *prometheus.CounterVec
}

// New crea y registra los colectores. registerer nil = prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verificaciones de factura completadas, por estado resultante.",
		}, []string{"status"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_detected_total",
			Help:      "Anomalías registradas por las verificaciones, por tipo.",
		}, []string{"type"}),
		recoverable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recoverable_amount_euros_total",
			Help:      "Importe reclamable detectado (anomalías distintas de descuento excesivo).",
		}),
		verifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Duración de una verificación completa (carga, motor y reemplazo).",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		persistenceWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_warnings_total",
			Help:      "Escrituras al medio durable fallidas, por operación.",
		}, []string{"op"}),
	}
	for _, c := range []prometheus.Collector{m.verifications, m.anomalies, m.recoverable, m.verifyDuration, m.persistenceWarnings} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveVerification implementa verification.Recorder.
func (m *Metrics) ObserveVerification(status entity.InvoiceStatus, anomalies []*entity.Anomaly, elapsed time.Duration) {
	m.verifications.WithLabelValues(string(status)).Inc()
	m.verifyDuration.Observe(elapsed.Seconds())
	for _, a := range anomalies {
		m.anomalies.WithLabelValues(string(a.Type)).Inc()
		if a.Type.Recoverable() {
			amount, _ := a.Amount.Float64()
			m.recoverable.Add(amount)
		}
	}
}

// ObservePersistenceWarning se conecta a recordstore.Options.OnWarning.
func (m *Metrics) ObservePersistenceWarning(w *domain.PersistenceWarning) {
	if w == nil {
		return
	}
	m.persistenceWarnings.WithLabelValues(w.Op).Inc()
}
