// Package bootstrap compone el almacén de registros y los casos de uso a partir de la configuración.
// Lo comparten el servidor HTTP y la CLI de operador.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pharmaverif-api/internal/application/auth"
	"github.com/jhoicas/pharmaverif-api/internal/application/importing"
	"github.com/jhoicas/pharmaverif-api/internal/application/report"
	"github.com/jhoicas/pharmaverif-api/internal/application/seed"
	"github.com/jhoicas/pharmaverif-api/internal/application/usecase"
	"github.com/jhoicas/pharmaverif-api/internal/application/verification"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	engine "github.com/jhoicas/pharmaverif-api/internal/domain/verification"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/importer"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/pdf"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/recordstore"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/pharmaverif-api/pkg/config"
	"github.com/jhoicas/pharmaverif-api/pkg/logger"
)

// OpenMedium abre el medio durable indicado por STORE_DRIVER.
func OpenMedium(ctx context.Context, store config.StoreConfig, db config.DBConfig) (recordstore.Medium, error) {
	switch store.Driver {
	case config.DriverMemory:
		return recordstore.NewMemoryMedium(), nil
	case config.DriverSQLite:
		return sqlite.Open(store.SQLitePath)
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, db)
		if err != nil {
			return nil, err
		}
		m, err := postgres.NewKVMedium(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("driver de almacén desconocido %q", store.Driver)
	}
}

// StoreOptions ganchos opcionales del almacén.
type StoreOptions struct {
	Logger    *logger.Logger
	Now       func() time.Time
	OnWarning func(*domain.PersistenceWarning)
}

// OpenStore abre el medio y carga (o migra) el snapshot. Close del Store cierra el medio.
func OpenStore(ctx context.Context, cfg *config.Config, opts StoreOptions) (*recordstore.Store, error) {
	medium, err := OpenMedium(ctx, cfg.Store, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("abrir medio %s: %w", cfg.Store.Driver, err)
	}
	s := recordstore.New(medium, recordstore.Options{
		KeyPrefix: cfg.Store.KeyPrefix,
		Logger:    opts.Logger,
		Now:       opts.Now,
		OnWarning: opts.OnWarning,
	})
	if err := s.Initialize(ctx); err != nil {
		_ = medium.Close()
		return nil, err
	}
	return s, nil
}

// Options dependencias opcionales de los servicios.
type Options struct {
	Logger *logger.Logger
	// Recorder métricas de verificación; nil = sin métricas.
	Recorder verification.Recorder
	// Now reloj para la vigencia de condiciones y las fechas de resolución.
	Now func() time.Time
	// Pharmacy firma de las reclamaciones PDF.
	Pharmacy string
	Operator auth.Operator
	JWT      auth.JWTConfig
}

// Services casos de uso listos para HTTP o CLI.
type Services struct {
	Store        *recordstore.Store
	Suppliers    *usecase.SupplierUseCase
	Conditions   *usecase.ConditionUseCase
	Invoices     *usecase.InvoiceUseCase
	Anomalies    *usecase.AnomalyUseCase
	Verification *usecase.VerificationUseCase
	Stats        *usecase.StatsUseCase
	Import       *importing.ImportUseCase
	Claims       *report.ClaimUseCase
	Seed         *seed.Generator
	Auth         *auth.AuthUseCase
}

// NewServices compone todos los casos de uso sobre un almacén ya inicializado.
func NewServices(store *recordstore.Store, opts Options) *Services {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	sups, conds, invs, anoms := store.Suppliers(), store.Conditions(), store.Invoices(), store.Anomalies()

	orchOpts := []verification.Option{verification.WithLogger(log.Component("verification"))}
	if opts.Recorder != nil {
		orchOpts = append(orchOpts, verification.WithRecorder(opts.Recorder))
	}
	if opts.Now != nil {
		orchOpts = append(orchOpts, verification.WithClock(opts.Now))
	}
	orch := verification.NewOrchestrator(invs, anoms, store, verification.NewResolver(sups, conds), engine.NewEngine(), orchOpts...)

	supplierUC := usecase.NewSupplierUseCase(sups, store)
	conditionUC := usecase.NewConditionUseCase(conds, sups, store)
	invoiceUC := usecase.NewInvoiceUseCase(invs, anoms, store)
	verificationUC := usecase.NewVerificationUseCase(orch, invoiceUC)

	parsers := map[string]importing.Parser{
		".csv": importer.NewCSVParser(),
		".xml": importer.NewXMLParser(),
	}
	pharmacy := opts.Pharmacy
	if pharmacy == "" {
		pharmacy = "Pharmacie"
	}

	return &Services{
		Store:        store,
		Suppliers:    supplierUC,
		Conditions:   conditionUC,
		Invoices:     invoiceUC,
		Anomalies:    usecase.NewAnomalyUseCase(anoms, invs),
		Verification: verificationUC,
		Stats:        usecase.NewStatsUseCase(invs, anoms),
		Import:       importing.NewImportUseCase(parsers, invoiceUC, supplierUC, verificationUC, log.Component("import")),
		Claims:       report.NewClaimUseCase(invs, anoms, pdf.NewMarotoClaimGenerator(pharmacy)),
		Seed:         seed.NewGenerator(supplierUC, conditionUC, invoiceUC, verificationUC, log),
		Auth:         auth.NewAuthUseCase(opts.Operator, opts.JWT),
	}
}

// FromConfig opciones de servicios derivadas de la configuración.
func FromConfig(cfg *config.Config, log *logger.Logger, recorder verification.Recorder) Options {
	return Options{
		Logger:   log,
		Recorder: recorder,
		Pharmacy: cfg.App.Pharmacy,
		Operator: auth.Operator{User: cfg.Auth.AdminUser, PasswordHash: cfg.Auth.AdminPasswordHash},
		JWT: auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		},
	}
}
