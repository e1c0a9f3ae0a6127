package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
	engine "github.com/jhoicas/pharmaverif-api/internal/domain/verification"
	"github.com/jhoicas/pharmaverif-api/pkg/logger"
)

// Recorder puerto de métricas de verificación. nil = sin métricas.
type Recorder interface {
	ObserveVerification(status entity.InvoiceStatus, anomalies []*entity.Anomaly, elapsed time.Duration)
}

// Result factura enriquecida con su nuevo estado y las anomalías persistidas.
type Result struct {
	Invoice   *entity.Invoice
	Anomalies []*entity.Anomaly
}

// Orchestrator único componente que muta el almacén como consecuencia de una verificación:
//
//	Cargar factura → Cargar proveedor → Resolver condiciones → Motor → Reemplazar anomalías + estado
//
// Las anomalías previas se sustituyen en bloque (ReplaceForInvoice), así que re-verificar es idempotente.
// Cualquier fallo antes del reemplazo deja el almacén intacto. La factura se bloquea durante toda la
// ejecución para que un borrado o una verificación concurrente no se intercalen.
type Orchestrator struct {
	invoices  repository.InvoiceRepository
	anomalies repository.AnomalyRepository
	locker    repository.AggregateLocker
	resolver  *Resolver
	engine    *engine.Engine
	metrics   Recorder
	log       *logger.Logger
	now       func() time.Time
}

// Option configura el orquestador.
type Option func(*Orchestrator)

// WithRecorder registra las métricas de cada verificación.
func WithRecorder(r Recorder) Option { return func(o *Orchestrator) { o.metrics = r } }

// WithLogger fija el logger (por defecto Nop).
func WithLogger(l *logger.Logger) Option { return func(o *Orchestrator) { o.log = l } }

// WithClock fija el reloj usado para resolver las condiciones vigentes.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// NewOrchestrator construye el orquestador con todas sus dependencias.
func NewOrchestrator(
	invoices repository.InvoiceRepository,
	anomalies repository.AnomalyRepository,
	locker repository.AggregateLocker,
	resolver *Resolver,
	eng *engine.Engine,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		invoices:  invoices,
		anomalies: anomalies,
		locker:    locker,
		resolver:  resolver,
		engine:    eng,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run verifica la factura invoiceID. Devuelve domain.ErrNotFound si la factura o su proveedor no existen,
// domain.ErrValidation si sus importes están fuera de rango; en ambos casos sin mutar nada.
func (o *Orchestrator) Run(ctx context.Context, invoiceID int64) (*Result, error) {
	start := time.Now()
	unlock := o.locker.LockInvoice(invoiceID)
	defer unlock()

	// ── 1. Cargar factura ─────────────────────────────────────────────────────
	inv, err := o.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("cargar factura: %w", err)
	}
	if inv == nil {
		return nil, domain.NotFound("invoice", invoiceID)
	}

	// ── 2. Proveedor + condiciones vigentes ──────────────────────────────────
	supplier, err := o.resolver.Resolve(ctx, inv.SupplierID, o.now())
	if err != nil {
		return nil, err
	}

	// ── 3. Motor ─────────────────────────────────────────────────────────────
	findings, err := o.engine.Verify(inv, supplier)
	if err != nil {
		o.log.Warn().Err(err).Int64("invoice_id", invoiceID).Msg("verificación rechazada")
		return nil, err
	}
	anomalies := make([]*entity.Anomaly, 0, len(findings))
	for _, f := range findings {
		anomalies = append(anomalies, f.ToAnomaly(invoiceID))
	}
	status := entity.InvoiceStatusCompliant
	if len(anomalies) > 0 {
		status = entity.InvoiceStatusAnomalous
	}

	// ── 4. Reemplazar anomalías y fijar estado (atómico) ─────────────────────
	if err := o.anomalies.ReplaceForInvoice(ctx, invoiceID, anomalies, status); err != nil {
		return nil, fmt.Errorf("persistir verificación: %w", err)
	}

	// ── 5. Releer enriquecido ────────────────────────────────────────────────
	inv, err = o.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.NotFound("invoice", invoiceID)
	}
	persisted, err := o.anomalies.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if o.metrics != nil {
		o.metrics.ObserveVerification(status, persisted, time.Since(start))
	}
	o.log.Info().
		Int64("invoice_id", invoiceID).
		Int64("supplier_id", inv.SupplierID).
		Str("status", string(status)).
		Int("anomalies", len(persisted)).
		Msg("factura verificada")
	return &Result{Invoice: inv, Anomalies: persisted}, nil
}
