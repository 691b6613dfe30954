package service

import (
	"context"
	"time"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"

	"github.com/google/uuid"
)

const formatoFecha = "2006-01-02"

// MovimientoService reads the stock audit trail.
type MovimientoService interface {
	Listar(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
}

type movimientoService struct {
	repo repository.MovimientoStockRepository
}

func NewMovimientoService(repo repository.MovimientoStockRepository) MovimientoService {
	return &movimientoService{repo: repo}
}

func (s *movimientoService) Listar(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	f, err := filtroMovimientos(filter)
	if err != nil {
		return nil, err
	}
	list, total, err := s.repo.Listar(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoResponse, len(list))
	for i := range list {
		out[i] = movimientoToResponse(&list[i])
	}
	return &dto.MovimientoListResponse{Data: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func filtroMovimientos(filter dto.MovimientoFilter) (repository.MovimientoStockFilter, error) {
	f := repository.MovimientoStockFilter{
		ItemTipo: model.TipoItem(filter.ItemTipo),
		Tipo:     filter.Tipo,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	var err error
	if f.ItemID, err = uuidOpcional("item_id", filter.ItemID); err != nil {
		return f, err
	}
	if f.AsignacionID, err = uuidOpcional("asignacion_id", filter.AsignacionID); err != nil {
		return f, err
	}
	if filter.Desde != "" {
		d, err := time.Parse(formatoFecha, filter.Desde)
		if err != nil {
			return f, &ValidacionError{Campo: "desde", Motivo: "fecha invalida"}
		}
		f.Desde = &d
	}
	if filter.Hasta != "" {
		h, err := time.Parse(formatoFecha, filter.Hasta)
		if err != nil {
			return f, &ValidacionError{Campo: "hasta", Motivo: "fecha invalida"}
		}
		h = h.AddDate(0, 0, 1)
		f.Hasta = &h
	}
	if f.Desde != nil && f.Hasta != nil && !f.Desde.Before(*f.Hasta) {
		return f, &ValidacionError{Campo: "hasta", Motivo: "anterior a desde"}
	}
	return f, nil
}

func uuidOpcional(campo, valor string) (*uuid.UUID, error) {
	if valor == "" {
		return nil, nil
	}
	id, err := uuid.Parse(valor)
	if err != nil {
		return nil, &ValidacionError{Campo: campo, Motivo: "uuid invalido"}
	}
	return &id, nil
}

func movimientoToResponse(m *model.MovimientoStock) dto.MovimientoResponse {
	r := dto.MovimientoResponse{
		ID:            m.ID.String(),
		ItemTipo:      string(m.ItemTipo),
		ItemID:        m.ItemID.String(),
		AsignacionID:  m.AsignacionID.String(),
		Tipo:          m.Tipo,
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		Ubicacion:     m.Ubicacion,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.UsuarioID != nil {
		u := m.UsuarioID.String()
		r.UsuarioID = &u
	}
	return r
}
