package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/application/usecase"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
)

// AnomalyHandler listado global y resolución de anomalías (protegido).
type AnomalyHandler struct {
	uc *usecase.AnomalyUseCase
}

// NewAnomalyHandler construye el handler.
func NewAnomalyHandler(uc *usecase.AnomalyUseCase) *AnomalyHandler {
	return &AnomalyHandler{uc: uc}
}

// List godoc
// @Summary      Listar anomalías
// @Tags         anomalies
// @Security     Bearer
// @Produce      json
// @Param        type      query  string  false  "missing_discount | excessive_discount | calculation_mismatch | shipping_fee_anomaly | suspect_price"
// @Param        resolved  query  bool    false  "Filtrar por estado de resolución"
// @Param        limit     query  int     false  "Tamaño de página (máx. 500)"
// @Param        offset    query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.AnomalyListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/anomalies [get]
func (h *AnomalyHandler) List(c *fiber.Ctx) error {
	filter := dto.AnomalyFilterRequest{Type: c.Query("type")}
	if raw := c.Query("resolved"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return respondError(c, domain.Invalid("resolved", "true o false"))
		}
		filter.Resolved = &b
	}
	out, err := h.uc.List(c.UserContext(), filter, pageFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Resolve godoc
// @Summary      Marcar anomalía como resuelta
// @Description  Resolver de nuevo sustituye la nota.
// @Tags         anomalies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                        true   "ID de la anomalía"
// @Param        body  body  dto.ResolveAnomalyRequest  false  "Nota de resolución"
// @Success      200   {object}  dto.AnomalyResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/anomalies/{id}/resolve [post]
func (h *AnomalyHandler) Resolve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.ResolveAnomalyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.Resolve(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
