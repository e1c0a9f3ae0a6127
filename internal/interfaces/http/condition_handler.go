package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/application/usecase"
)

// ConditionHandler modificación y borrado de condiciones por su propio ID.
type ConditionHandler struct {
	uc *usecase.ConditionUseCase
}

// NewConditionHandler construye el handler.
func NewConditionHandler(uc *usecase.ConditionUseCase) *ConditionHandler {
	return &ConditionHandler{uc: uc}
}

// Update godoc
// @Summary      Actualizar condición comercial (parcial)
// @Tags         conditions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                         true  "ID de la condición"
// @Param        body  body  dto.UpdateConditionRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ConditionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/conditions/{id} [put]
func (h *ConditionHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateConditionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar condición comercial
// @Tags         conditions
// @Security     Bearer
// @Param        id   path  int  true  "ID de la condición"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/conditions/{id} [delete]
func (h *ConditionHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
