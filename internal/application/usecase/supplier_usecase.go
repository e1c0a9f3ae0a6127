package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/entity"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
)

// SupplierUseCase casos de uso CRUD para proveedores.
type SupplierUseCase struct {
	repo   repository.SupplierRepository
	locker repository.AggregateLocker
}

// NewSupplierUseCase construye el caso de uso.
func NewSupplierUseCase(repo repository.SupplierRepository, locker repository.AggregateLocker) *SupplierUseCase {
	return &SupplierUseCase{repo: repo, locker: locker}
}

// Create crea un proveedor. Devuelve domain.ErrDuplicate si el nombre ya existe.
func (uc *SupplierUseCase) Create(ctx context.Context, in dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	kind, err := parseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	s := &entity.Supplier{
		Name:                    in.Name,
		Kind:                    kind,
		BaseDiscountRate:        in.BaseDiscountRate,
		CooperativeRate:         in.CooperativeRate,
		CashDiscountRate:        in.CashDiscountRate,
		FrancoThreshold:         in.FrancoThreshold,
		RangeDiscountEnabled:    in.RangeDiscountEnabled,
		QuantityDiscountEnabled: in.QuantityDiscountEnabled,
		YearEndRebateEnabled:    in.YearEndRebateEnabled,
		Active:                  active,
		Notes:                   in.Notes,
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

// GetByID obtiene un proveedor con sus condiciones vigentes.
func (uc *SupplierUseCase) GetByID(ctx context.Context, id int64) (*dto.SupplierResponse, error) {
	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.NotFound("supplier", id)
	}
	return toSupplierResponse(s), nil
}

// FindByName busca un proveedor por nombre (sin distinguir mayúsculas). nil si no existe.
func (uc *SupplierUseCase) FindByName(ctx context.Context, name string) (*entity.Supplier, error) {
	list, err := uc.repo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range list {
		if strings.ToLower(s.Name) == n {
			return s, nil
		}
	}
	return nil, nil
}

// Update aplica una actualización parcial.
func (uc *SupplierUseCase) Update(ctx context.Context, id int64, in dto.UpdateSupplierRequest) (*dto.SupplierResponse, error) {
	unlock := uc.locker.LockSupplier(id)
	defer unlock()

	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.NotFound("supplier", id)
	}
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Kind != nil {
		kind, err := parseKind(*in.Kind)
		if err != nil {
			return nil, err
		}
		s.Kind = kind
	}
	if in.BaseDiscountRate != nil {
		s.BaseDiscountRate = *in.BaseDiscountRate
	}
	if in.CooperativeRate != nil {
		s.CooperativeRate = *in.CooperativeRate
	}
	if in.CashDiscountRate != nil {
		s.CashDiscountRate = *in.CashDiscountRate
	}
	if in.FrancoThreshold != nil {
		s.FrancoThreshold = *in.FrancoThreshold
	}
	if in.RangeDiscountEnabled != nil {
		s.RangeDiscountEnabled = *in.RangeDiscountEnabled
	}
	if in.QuantityDiscountEnabled != nil {
		s.QuantityDiscountEnabled = *in.QuantityDiscountEnabled
	}
	if in.YearEndRebateEnabled != nil {
		s.YearEndRebateEnabled = *in.YearEndRebateEnabled
	}
	if in.Active != nil {
		s.Active = *in.Active
	}
	if in.Notes != nil {
		s.Notes = *in.Notes
	}
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

// List lista proveedores, opcionalmente filtrados por tipo, con paginación.
func (uc *SupplierUseCase) List(ctx context.Context, kind string, page dto.PageRequest) (*dto.SupplierListResponse, error) {
	var filter *entity.SupplierKind
	if kind != "" {
		k, err := parseKind(kind)
		if err != nil {
			return nil, err
		}
		filter = &k
	}
	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page.DefaultPage()
	from, to := page.Window(len(list))
	items := make([]dto.SupplierResponse, 0, to-from)
	for _, s := range list[from:to] {
		items = append(items, *toSupplierResponse(s))
	}
	return &dto.SupplierListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(list)},
	}, nil
}

// Delete elimina el proveedor y en cascada sus condiciones.
func (uc *SupplierUseCase) Delete(ctx context.Context, id int64) error {
	unlock := uc.locker.LockSupplier(id)
	defer unlock()
	return uc.repo.Delete(ctx, id)
}

func parseKind(s string) (entity.SupplierKind, error) {
	k := entity.SupplierKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case "grossiste":
		k = entity.SupplierKindWholesaler
	case "laboratoire":
		k = entity.SupplierKindLaboratory
	}
	if !k.Valid() {
		return "", domain.Invalid("kind", fmt.Sprintf("tipo de proveedor desconocido %q", s))
	}
	return k, nil
}
