package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/pharmaverif-api/internal/application/auth"
	"github.com/jhoicas/pharmaverif-api/internal/application/importing"
	"github.com/jhoicas/pharmaverif-api/internal/application/report"
	"github.com/jhoicas/pharmaverif-api/internal/application/usecase"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/recordstore"
	"github.com/jhoicas/pharmaverif-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SupplierUC     *usecase.SupplierUseCase
	ConditionUC    *usecase.ConditionUseCase
	InvoiceUC      *usecase.InvoiceUseCase
	AnomalyUC      *usecase.AnomalyUseCase
	VerificationUC *usecase.VerificationUseCase
	StatsUC        *usecase.StatsUseCase
	ImportUC       *importing.ImportUseCase
	ClaimUC        *report.ClaimUseCase
	AuthUC         *auth.AuthUseCase
	Store          *recordstore.Store
	ServiceName    string
	JWTSecret      string
	// MetricsGatherer nil = sin /metrics.
	MetricsGatherer prometheus.Gatherer
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	statsHandler := NewStatsHandler(deps.StatsUC, deps.Store, deps.ServiceName)
	app.Get("/health", statsHandler.Health)
	if deps.MetricsGatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token salvo JWT_SECRET vacío)
	protected := api.Group("", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Suppliers + conditions
	supplierHandler := NewSupplierHandler(deps.SupplierUC, deps.ConditionUC)
	suppliers := protected.Group("/suppliers")
	suppliers.Get("/", supplierHandler.List)
	suppliers.Post("/", supplierHandler.Create)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Put("/:id", supplierHandler.Update)
	suppliers.Delete("/:id", adminOnly, supplierHandler.Delete)
	suppliers.Get("/:id/conditions", supplierHandler.ListConditions)
	suppliers.Post("/:id/conditions", supplierHandler.CreateCondition)

	conditionHandler := NewConditionHandler(deps.ConditionUC)
	conditions := protected.Group("/conditions")
	conditions.Put("/:id", conditionHandler.Update)
	conditions.Delete("/:id", adminOnly, conditionHandler.Delete)

	// Invoices + verification
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, deps.VerificationUC, deps.AnomalyUC, deps.ImportUC, deps.ClaimUC)
	invoices := protected.Group("/invoices")
	invoices.Get("/", invoiceHandler.List)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Post("/import", invoiceHandler.Import)
	invoices.Post("/verify", invoiceHandler.VerifyAll)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Delete("/:id", adminOnly, invoiceHandler.Delete)
	invoices.Post("/:id/verify", invoiceHandler.Verify)
	invoices.Get("/:id/anomalies", invoiceHandler.Anomalies)
	invoices.Get("/:id/report.pdf", invoiceHandler.ReportPDF)

	// Anomalies
	anomalyHandler := NewAnomalyHandler(deps.AnomalyUC)
	anomalies := protected.Group("/anomalies")
	anomalies.Get("/", anomalyHandler.List)
	anomalies.Post("/:id/resolve", anomalyHandler.Resolve)

	protected.Get("/stats", statsHandler.Stats)
}
