package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// VolumeTierDTO escalón de descuento por volumen.
type VolumeTierDTO struct {
	MinAmount decimal.Decimal `json:"min_amount"`
	Rate      decimal.Decimal `json:"rate"`
}

// RangeRateDTO tasa por gama.
type RangeRateDTO struct {
	Range string          `json:"range"`
	Rate  decimal.Decimal `json:"rate"`
}

// ConditionParamsDTO parámetros de una condición. Solo los campos del tipo indicado se leen:
//   - free_shipping_threshold: threshold
//   - volume_discount_tiers: tiers
//   - range_discount: ranges
//   - year_end_rebate: target, rate
type ConditionParamsDTO struct {
	Threshold *decimal.Decimal `json:"threshold,omitempty"`
	Tiers     []VolumeTierDTO  `json:"tiers,omitempty"`
	Ranges    []RangeRateDTO   `json:"ranges,omitempty"`
	Target    *decimal.Decimal `json:"target,omitempty"`
	Rate      *decimal.Decimal `json:"rate,omitempty"`
}

// CreateConditionRequest entrada para crear una condición. Fechas YYYY-MM-DD; Active por defecto true.
type CreateConditionRequest struct {
	Type        string             `json:"type" validate:"required"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Params      ConditionParamsDTO `json:"params"`
	Active      *bool              `json:"active,omitempty"`
	DateStart   string             `json:"date_start,omitempty"`
	DateEnd     string             `json:"date_end,omitempty"`
}

// UpdateConditionRequest actualización parcial. Una fecha "" elimina el límite; Params sustituye los parámetros.
type UpdateConditionRequest struct {
	Type        *string             `json:"type,omitempty"`
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Params      *ConditionParamsDTO `json:"params,omitempty"`
	Active      *bool               `json:"active,omitempty"`
	DateStart   *string             `json:"date_start,omitempty"`
	DateEnd     *string             `json:"date_end,omitempty"`
}

// ConditionResponse salida de una condición comercial.
type ConditionResponse struct {
	ID          int64              `json:"id"`
	SupplierID  int64              `json:"supplier_id"`
	Type        string             `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Params      ConditionParamsDTO `json:"params"`
	Active      bool               `json:"active"`
	DateStart   string             `json:"date_start,omitempty"`
	DateEnd     string             `json:"date_end,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
