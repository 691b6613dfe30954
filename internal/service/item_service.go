package service

import (
	"context"
	"errors"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemService manages the repuesto and componente catalogues.
type ItemService interface {
	CrearRepuesto(ctx context.Context, req dto.CrearRepuestoRequest) (*dto.RepuestoResponse, error)
	ObtenerRepuesto(ctx context.Context, id uuid.UUID) (*dto.RepuestoResponse, error)
	ListarRepuestos(ctx context.Context, incluirInactivos bool) ([]dto.RepuestoResponse, error)
	ActualizarRepuesto(ctx context.Context, id uuid.UUID, req dto.ActualizarRepuestoRequest) (*dto.RepuestoResponse, error)

	CrearComponente(ctx context.Context, req dto.CrearComponenteRequest) (*dto.ComponenteResponse, error)
	ListarComponentes(ctx context.Context, incluirInactivos bool) ([]dto.ComponenteResponse, error)
	ActualizarComponente(ctx context.Context, id uuid.UUID, req dto.ActualizarComponenteRequest) (*dto.ComponenteResponse, error)
}

type itemService struct {
	repo  repository.ItemRepository
	stock StockService
}

func NewItemService(repo repository.ItemRepository, stock StockService) ItemService {
	return &itemService{repo: repo, stock: stock}
}

func (s *itemService) CrearRepuesto(ctx context.Context, req dto.CrearRepuestoRequest) (*dto.RepuestoResponse, error) {
	r := &model.Repuesto{
		ID:          uuid.New(),
		Codigo:      req.Codigo,
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		StockMinimo: req.StockMinimo,
		Activo:      true,
	}
	if err := s.repo.CrearRepuesto(ctx, r); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ValidacionError{Campo: "codigo", Motivo: "ya existe un repuesto con el codigo " + req.Codigo}
		}
		return nil, err
	}
	resp := repuestoToResponse(r)
	return &resp, nil
}

func (s *itemService) ObtenerRepuesto(ctx context.Context, id uuid.UUID) (*dto.RepuestoResponse, error) {
	r, err := s.repo.ObtenerRepuesto(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, noEncontrado("repuesto", id)
		}
		return nil, err
	}
	resp := repuestoToResponse(r)
	return &resp, nil
}

func (s *itemService) ListarRepuestos(ctx context.Context, incluirInactivos bool) ([]dto.RepuestoResponse, error) {
	list, err := s.repo.ListarRepuestos(ctx, incluirInactivos)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RepuestoResponse, len(list))
	for i := range list {
		out[i] = repuestoToResponse(&list[i])
	}
	return out, nil
}

func (s *itemService) ActualizarRepuesto(ctx context.Context, id uuid.UUID, req dto.ActualizarRepuestoRequest) (*dto.RepuestoResponse, error) {
	r, err := s.repo.ObtenerRepuesto(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, noEncontrado("repuesto", id)
		}
		return nil, err
	}
	if req.Nombre != nil {
		r.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		r.Descripcion = req.Descripcion
	}
	if req.StockMinimo != nil {
		r.StockMinimo = *req.StockMinimo
	}
	if req.Activo != nil {
		r.Activo = *req.Activo
	}
	if err := s.repo.ActualizarRepuesto(ctx, r); err != nil {
		return nil, err
	}
	// Minimum and active flag are part of the cached stock result.
	s.stock.Invalidar(ctx, model.ItemRepuesto, id)
	resp := repuestoToResponse(r)
	return &resp, nil
}

func (s *itemService) CrearComponente(ctx context.Context, req dto.CrearComponenteRequest) (*dto.ComponenteResponse, error) {
	c := &model.Componente{
		ID:          uuid.New(),
		Categoria:   model.CategoriaComponente(req.Categoria),
		Descripcion: req.Descripcion,
		StockMinimo: req.StockMinimo,
		Activo:      true,
	}
	if err := s.repo.CrearComponente(ctx, c); err != nil {
		return nil, err
	}
	resp := componenteToResponse(c)
	return &resp, nil
}

func (s *itemService) ListarComponentes(ctx context.Context, incluirInactivos bool) ([]dto.ComponenteResponse, error) {
	list, err := s.repo.ListarComponentes(ctx, incluirInactivos)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ComponenteResponse, len(list))
	for i := range list {
		out[i] = componenteToResponse(&list[i])
	}
	return out, nil
}

func (s *itemService) ActualizarComponente(ctx context.Context, id uuid.UUID, req dto.ActualizarComponenteRequest) (*dto.ComponenteResponse, error) {
	c, err := s.repo.ObtenerComponente(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, noEncontrado("componente", id)
		}
		return nil, err
	}
	if req.Descripcion != nil {
		c.Descripcion = *req.Descripcion
	}
	if req.StockMinimo != nil {
		c.StockMinimo = *req.StockMinimo
	}
	if req.Activo != nil {
		c.Activo = *req.Activo
	}
	if err := s.repo.ActualizarComponente(ctx, c); err != nil {
		return nil, err
	}
	s.stock.Invalidar(ctx, model.ItemComponente, id)
	resp := componenteToResponse(c)
	return &resp, nil
}

func repuestoToResponse(r *model.Repuesto) dto.RepuestoResponse {
	return dto.RepuestoResponse{
		ID:          r.ID.String(),
		Codigo:      r.Codigo,
		Nombre:      r.Nombre,
		Descripcion: r.Descripcion,
		StockMinimo: r.StockMinimo,
		Activo:      r.Activo,
	}
}

func componenteToResponse(c *model.Componente) dto.ComponenteResponse {
	return dto.ComponenteResponse{
		ID:          c.ID.String(),
		Categoria:   string(c.Categoria),
		Descripcion: c.Descripcion,
		StockMinimo: c.StockMinimo,
		Activo:      c.Activo,
	}
}
