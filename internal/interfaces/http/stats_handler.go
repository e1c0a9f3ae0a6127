package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharmaverif-api/internal/application/usecase"
	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/recordstore"
)

// StatsHandler agregados globales y estado del servicio.
type StatsHandler struct {
	uc      *usecase.StatsUseCase
	store   *recordstore.Store
	service string
}

// NewStatsHandler construye el handler. store puede ser nil (health sin detalle del almacén).
func NewStatsHandler(uc *usecase.StatsUseCase, store *recordstore.Store, service string) *StatsHandler {
	return &StatsHandler{uc: uc, store: store, service: service}
}

// Stats godoc
// @Summary      Estadísticas globales
// @Tags         stats
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StatsResponse
// @Router       /api/stats [get]
func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Health godoc
// @Summary      Estado del servicio y del almacén
// @Description  status "degraded" si la última escritura al medio durable falló (el estado en memoria sigue vigente).
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (h *StatsHandler) Health(c *fiber.Ctx) error {
	if h.store == nil {
		return c.JSON(fiber.Map{"status": "ok", "service": h.service})
	}
	st := h.store.Status()
	body := fiber.Map{
		"status":         "ok",
		"service":        h.service,
		"schema_version": st.SchemaVersion,
		"source":         st.Source,
		"suppliers":      st.Suppliers,
		"invoices":       st.Invoices,
		"anomalies":      st.Anomalies,
	}
	if st.LastWarning != nil {
		body["status"] = "degraded"
		body["last_warning"] = st.LastWarning.Error()
	}
	if !st.Ready {
		body["status"] = "unavailable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}
