package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/application/importing"
	"github.com/jhoicas/pharmaverif-api/internal/application/report"
	"github.com/jhoicas/pharmaverif-api/internal/application/usecase"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
)

// InvoiceHandler maneja facturas de compra: CRUD, verificación, importación e informe PDF (protegido).
type InvoiceHandler struct {
	uc        *usecase.InvoiceUseCase
	verifier  *usecase.VerificationUseCase
	anomalies *usecase.AnomalyUseCase
	importer  *importing.ImportUseCase
	claims    *report.ClaimUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(
	uc *usecase.InvoiceUseCase,
	verifier *usecase.VerificationUseCase,
	anomalies *usecase.AnomalyUseCase,
	importer *importing.ImportUseCase,
	claims *report.ClaimUseCase,
) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, verifier: verifier, anomalies: anomalies, importer: importer, claims: claims}
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        supplier_id  query  int     false  "Filtrar por proveedor"
// @Param        status       query  string  false  "unverified | compliant | anomalous"
// @Param        limit        query  int     false  "Tamaño de página (máx. 500)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	supplierID, err := queryID(c, "supplier_id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), supplierID, c.Query("status"), pageFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura enriquecida (proveedor + líneas)
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear factura con sus líneas
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Cabecera y líneas"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar cabecera de factura (parcial)
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                       true  "ID de la factura"
// @Param        body  body  dto.UpdateInvoiceRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateInvoiceRequest
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
// @Summary      Eliminar factura con sus líneas y anomalías
// @Tags         invoices
// @Security     Bearer
// @Param        id   path  int  true  "ID de la factura"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Verify godoc
// @Summary      Verificar factura contra las condiciones del proveedor
// @Description  Sustituye las anomalías previas; re-verificar es idempotente.
// @Tags         verification
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {object}  dto.VerificationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/verify [post]
func (h *InvoiceHandler) Verify(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.verifier.Verify(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// VerifyAll godoc
// @Summary      Verificar todas las facturas
// @Tags         verification
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.VerifyAllResponse
// @Router       /api/invoices/verify [post]
func (h *InvoiceHandler) VerifyAll(c *fiber.Ctx) error {
	out, err := h.verifier.VerifyAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Anomalies godoc
// @Summary      Anomalías de una factura
// @Tags         anomalies
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {object}  dto.AnomalyListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/anomalies [get]
func (h *InvoiceHandler) Anomalies(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.anomalies.ListByInvoice(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ReportPDF godoc
// @Summary      Descargar reclamación en PDF
// @Description  Lista las anomalías pendientes de una factura ya verificada.
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/report.pdf [get]
func (h *InvoiceHandler) ReportPDF(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	pdf, filename, err := h.claims.DownloadClaimPDF(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}

// Import godoc
// @Summary      Importar factura desde fichero de proveedor (CSV ';' o XML)
// @Tags         invoices
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData  file    true   "Fichero .csv o .xml"
// @Param        supplier_id  formData  int     false  "Proveedor; si falta se usa el indicado en el fichero"
// @Param        verify       formData  bool    false  "Verificar tras importar"
// @Success      201  {object}  dto.ImportResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/import [post]
func (h *InvoiceHandler) Import(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, domain.Invalid("file", "fichero requerido (multipart, campo file)"))
	}
	var supplierID int64
	if raw := c.FormValue("supplier_id"); raw != "" {
		supplierID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || supplierID < 0 {
			return respondError(c, domain.Invalid("supplier_id", "id numérico inválido"))
		}
	}
	verify, _ := strconv.ParseBool(c.FormValue("verify"))

	f, err := fh.Open()
	if err != nil {
		return respondError(c, fmt.Errorf("abrir fichero subido: %w", err))
	}
	defer f.Close()

	out, err := h.importer.Import(c.UserContext(), supplierID, fh.Filename, f, verify)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
