package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/pharmaverif-api/internal/application/verification"
	"github.com/jhoicas/pharmaverif-api/internal/bootstrap"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/metrics"
	httpRouter "github.com/jhoicas/pharmaverif-api/internal/interfaces/http"
	"github.com/jhoicas/pharmaverif-api/pkg/config"
	"github.com/jhoicas/pharmaverif-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	// Métricas Prometheus (registro propio, sin el global)
	var (
		gatherer prometheus.Gatherer
		recorder verification.Recorder
		onWarn   func(*domain.PersistenceWarning)
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg)
		if err != nil {
			log.Fatal().Err(err).Msg("registrar métricas")
		}
		gatherer, recorder, onWarn = reg, m, m.ObservePersistenceWarning
	}

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg, bootstrap.StoreOptions{Logger: log, OnWarning: onWarn})
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén de registros")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar almacén")
		}
	}()
	st := store.Status()
	log.Info().
		Str("source", string(st.Source)).
		Str("key", st.Key).
		Int("suppliers", st.Suppliers).
		Int("invoices", st.Invoices).
		Msg("almacén listo")

	svc := bootstrap.NewServices(store, bootstrap.FromConfig(cfg, log, recorder))

	if cfg.App.SeedDemo {
		rep, err := svc.Seed.SeedIfEmpty(ctx)
		if err != nil {
			log.Error().Err(err).Msg("sembrar datos de demostración")
		} else if !rep.Skipped {
			log.Info().Int("invoices", rep.Invoices).Msg("datos de demostración sembrados")
		}
	}
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: API sin autenticación, toda petición actúa como admin")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    10 * 1024 * 1024, // importaciones de ficheros de proveedor
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		SupplierUC:      svc.Suppliers,
		ConditionUC:     svc.Conditions,
		InvoiceUC:       svc.Invoices,
		AnomalyUC:       svc.Anomalies,
		VerificationUC:  svc.Verification,
		StatsUC:         svc.Stats,
		ImportUC:        svc.Import,
		ClaimUC:         svc.Claims,
		AuthUC:          svc.Auth,
		Store:           store,
		ServiceName:     cfg.App.Name,
		JWTSecret:       cfg.JWT.Secret,
		MetricsGatherer: gatherer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
