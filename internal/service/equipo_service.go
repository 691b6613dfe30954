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

// EquipoService manages equipment and which repuestos fit it. Links carry no
// quantity and never affect stock.
type EquipoService interface {
	Crear(ctx context.Context, req dto.CrearEquipoRequest) (*dto.EquipoResponse, error)
	Listar(ctx context.Context) ([]dto.EquipoResponse, error)
	Vincular(ctx context.Context, equipoID, repuestoID uuid.UUID) error
	Desvincular(ctx context.Context, equipoID, repuestoID uuid.UUID) error
	RepuestosCompatibles(ctx context.Context, equipoID uuid.UUID) ([]dto.RepuestoResponse, error)
}

type equipoService struct {
	repo  repository.EquipoRepository
	items repository.ItemRepository
}

func NewEquipoService(repo repository.EquipoRepository, items repository.ItemRepository) EquipoService {
	return &equipoService{repo: repo, items: items}
}

func (s *equipoService) Crear(ctx context.Context, req dto.CrearEquipoRequest) (*dto.EquipoResponse, error) {
	e := &model.Equipo{ID: uuid.New(), Codigo: req.Codigo, Nombre: req.Nombre, Activo: true}
	if err := s.repo.Crear(ctx, e); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ValidacionError{Campo: "codigo", Motivo: "ya existe un equipo con el codigo " + req.Codigo}
		}
		return nil, err
	}
	resp := equipoToResponse(e)
	return &resp, nil
}

func (s *equipoService) Listar(ctx context.Context) ([]dto.EquipoResponse, error) {
	list, err := s.repo.Listar(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EquipoResponse, len(list))
	for i := range list {
		out[i] = equipoToResponse(&list[i])
	}
	return out, nil
}

func (s *equipoService) Vincular(ctx context.Context, equipoID, repuestoID uuid.UUID) error {
	if err := s.existen(ctx, equipoID, repuestoID); err != nil {
		return err
	}
	return s.repo.Vincular(ctx, equipoID, repuestoID)
}

func (s *equipoService) Desvincular(ctx context.Context, equipoID, repuestoID uuid.UUID) error {
	err := s.repo.Desvincular(ctx, equipoID, repuestoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NoEncontradoError{Recurso: "vinculo", ID: equipoID.String() + "/" + repuestoID.String()}
	}
	return err
}

func (s *equipoService) RepuestosCompatibles(ctx context.Context, equipoID uuid.UUID) ([]dto.RepuestoResponse, error) {
	if _, err := s.repo.ObtenerPorID(ctx, equipoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, noEncontrado("equipo", equipoID)
		}
		return nil, err
	}
	list, err := s.repo.RepuestosCompatibles(ctx, equipoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RepuestoResponse, len(list))
	for i := range list {
		out[i] = repuestoToResponse(&list[i])
	}
	return out, nil
}

func (s *equipoService) existen(ctx context.Context, equipoID, repuestoID uuid.UUID) error {
	if _, err := s.repo.ObtenerPorID(ctx, equipoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return noEncontrado("equipo", equipoID)
		}
		return err
	}
	if _, err := s.items.ObtenerRepuesto(ctx, repuestoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return noEncontrado("repuesto", repuestoID)
		}
		return err
	}
	return nil
}

func equipoToResponse(e *model.Equipo) dto.EquipoResponse {
	return dto.EquipoResponse{ID: e.ID.String(), Codigo: e.Codigo, Nombre: e.Nombre, Activo: e.Activo}
}
