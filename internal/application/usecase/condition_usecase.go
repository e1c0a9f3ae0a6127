package usecase

import (
	"context"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// ConditionUseCase casos de uso para las condiciones comerciales de un proveedor.
type ConditionUseCase struct {
	conditions repository.ConditionRepository
	suppliers  repository.SupplierRepository
	locker     repository.AggregateLocker
}

// NewConditionUseCase construye el caso de uso.
func NewConditionUseCase(conditions repository.ConditionRepository, suppliers repository.SupplierRepository, locker repository.AggregateLocker) *ConditionUseCase {
	return &ConditionUseCase{conditions: conditions, suppliers: suppliers, locker: locker}
}

// ListBySupplier lista todas las condiciones del proveedor, vigentes o no.
func (uc *ConditionUseCase) ListBySupplier(ctx context.Context, supplierID int64) ([]dto.ConditionResponse, error) {
	s, err := uc.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.NotFound("supplier", supplierID)
	}
	list, err := uc.conditions.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ConditionResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toConditionResponse(c))
	}
	return out, nil
}

// Create añade una condición al proveedor.
func (uc *ConditionUseCase) Create(ctx context.Context, supplierID int64, in dto.CreateConditionRequest) (*dto.ConditionResponse, error) {
	unlock := uc.locker.LockSupplier(supplierID)
	defer unlock()

	t := entity.ConditionType(in.Type)
	params, err := paramsFromDTO(t, in.Params)
	if err != nil {
		return nil, err
	}
	start, err := parseOptionalDate("date_start", in.DateStart)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("date_end", in.DateEnd)
	if err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	c := &entity.Condition{
		SupplierID:  supplierID,
		Type:        t,
		Name:        in.Name,
		Description: in.Description,
		Params:      params,
		Active:      active,
		DateStart:   start,
		DateEnd:     end,
	}
	if err := uc.conditions.Create(ctx, c); err != nil {
		return nil, err
	}
	return toConditionResponse(c), nil
}

// Update aplica una actualización parcial. Cambiar el tipo exige enviar los nuevos parámetros.
func (uc *ConditionUseCase) Update(ctx context.Context, id int64, in dto.UpdateConditionRequest) (*dto.ConditionResponse, error) {
	c, err := uc.conditions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NotFound("condition", id)
	}
	unlock := uc.locker.LockSupplier(c.SupplierID)
	defer unlock()

	if in.Type != nil {
		c.Type = entity.ConditionType(*in.Type)
		if in.Params == nil && (c.Params == nil || c.Params.Type() != c.Type) {
			return nil, domain.Invalid("params", "requeridos al cambiar el tipo")
		}
	}
	if in.Params != nil {
		p, err := paramsFromDTO(c.Type, *in.Params)
		if err != nil {
			return nil, err
		}
		c.Params = p
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if in.DateStart != nil {
		if c.DateStart, err = parseOptionalDate("date_start", *in.DateStart); err != nil {
			return nil, err
		}
	}
	if in.DateEnd != nil {
		if c.DateEnd, err = parseOptionalDate("date_end", *in.DateEnd); err != nil {
			return nil, err
		}
	}
	if err := uc.conditions.Update(ctx, c); err != nil {
		return nil, err
	}
	return toConditionResponse(c), nil
}

// Delete elimina una condición.
func (uc *ConditionUseCase) Delete(ctx context.Context, id int64) error {
	return uc.conditions.Delete(ctx, id)
}
