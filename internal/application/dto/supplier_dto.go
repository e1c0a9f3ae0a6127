package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSupplierRequest entrada para crear un proveedor. Active por defecto true.
type CreateSupplierRequest struct {
	Name                    string          `json:"name" validate:"required,min=1,max=200"`
	Kind                    string          `json:"kind" validate:"required,oneof=wholesaler laboratory"`
	BaseDiscountRate        decimal.Decimal `json:"base_discount_rate"`
	CooperativeRate         decimal.Decimal `json:"cooperative_rate"`
	CashDiscountRate        decimal.Decimal `json:"cash_discount_rate"`
	FrancoThreshold         decimal.Decimal `json:"franco_threshold"`
	RangeDiscountEnabled    bool            `json:"range_discount_enabled"`
	QuantityDiscountEnabled bool            `json:"quantity_discount_enabled"`
	YearEndRebateEnabled    bool            `json:"year_end_rebate_enabled"`
	Active                  *bool           `json:"active,omitempty"`
	Notes                   string          `json:"notes"`
}

// UpdateSupplierRequest actualización parcial: solo los campos presentes se aplican.
type UpdateSupplierRequest struct {
	Name                    *string          `json:"name,omitempty"`
	Kind                    *string          `json:"kind,omitempty"`
	BaseDiscountRate        *decimal.Decimal `json:"base_discount_rate,omitempty"`
	CooperativeRate         *decimal.Decimal `json:"cooperative_rate,omitempty"`
	CashDiscountRate        *decimal.Decimal `json:"cash_discount_rate,omitempty"`
	FrancoThreshold         *decimal.Decimal `json:"franco_threshold,omitempty"`
	RangeDiscountEnabled    *bool            `json:"range_discount_enabled,omitempty"`
	QuantityDiscountEnabled *bool            `json:"quantity_discount_enabled,omitempty"`
	YearEndRebateEnabled    *bool            `json:"year_end_rebate_enabled,omitempty"`
	Active                  *bool            `json:"active,omitempty"`
	Notes                   *string          `json:"notes,omitempty"`
}

// SupplierResponse salida de un proveedor con sus condiciones vigentes.
type SupplierResponse struct {
	ID                      int64               `json:"id"`
	Name                    string              `json:"name"`
	Kind                    string              `json:"kind"`
	BaseDiscountRate        decimal.Decimal     `json:"base_discount_rate"`
	CooperativeRate         decimal.Decimal     `json:"cooperative_rate"`
	CashDiscountRate        decimal.Decimal     `json:"cash_discount_rate"`
	ExpectedRate            decimal.Decimal     `json:"expected_rate"`
	FrancoThreshold         decimal.Decimal     `json:"franco_threshold"`
	RangeDiscountEnabled    bool                `json:"range_discount_enabled"`
	QuantityDiscountEnabled bool                `json:"quantity_discount_enabled"`
	YearEndRebateEnabled    bool                `json:"year_end_rebate_enabled"`
	Active                  bool                `json:"active"`
	Notes                   string              `json:"notes"`
	CreatedAt               time.Time           `json:"created_at"`
	UpdatedAt               time.Time           `json:"updated_at"`
	Conditions              []ConditionResponse `json:"conditions"`
}

// SupplierListResponse listado paginado.
type SupplierListResponse struct {
	Items []SupplierResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
