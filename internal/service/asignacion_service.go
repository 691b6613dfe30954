package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AlertaDispatcher queues a low-stock notification. Implemented by the
// worker dispatcher; nil disables alerts.
type AlertaDispatcher interface {
	EnqueueAlertaStock(ctx context.Context, payload dto.AlertaStockPayload) error
}

// AsignacionService places, adjusts and removes item quantities in containers.
// Every mutation writes a MovimientoStock in the same transaction and
// invalidates the cached stock of the item.
type AsignacionService interface {
	Asignar(ctx context.Context, tipo model.TipoItem, itemID uuid.UUID, req dto.AsignarUbicacionRequest, usuarioID *uuid.UUID) (*dto.AsignacionResponse, error)
	ActualizarCantidad(ctx context.Context, tipo model.TipoItem, asignacionID uuid.UUID, req dto.ActualizarCantidadRequest, usuarioID *uuid.UUID) (*dto.AsignacionResponse, error)
	Retirar(ctx context.Context, tipo model.TipoItem, asignacionID uuid.UUID, usuarioID *uuid.UUID) error
	Listar(ctx context.Context, tipo model.TipoItem, itemID uuid.UUID) ([]dto.AsignacionResponse, error)
	// ValidarAsignacion checks the shape of a location reference: exactly one
	// container, of a kind that accepts the item, that exists.
	ValidarAsignacion(ctx context.Context, tipo model.TipoItem, req dto.AsignarUbicacionRequest) (model.ContenedorRef, error)
}

type asignacionService struct {
	items     repository.ItemRepository
	jerarquia JerarquiaService
	stock     StockService
	alertas   AlertaDispatcher
}

func NewAsignacionService(items repository.ItemRepository, jerarquia JerarquiaService, stock StockService, alertas AlertaDispatcher) AsignacionService {
	return &asignacionService{items: items, jerarquia: jerarquia, stock: stock, alertas: alertas}
}

// refsDesde collects every populated location field of the request.
func refsDesde(req dto.AsignarUbicacionRequest) ([]model.ContenedorRef, error) {
	campos := []struct {
		tipo  model.TipoContenedor
		valor *string
	}{
		{model.TipoArmario, req.ArmarioID},
		{model.TipoEstanteria, req.EstanteriaID},
		{model.TipoEstante, req.EstanteID},
		{model.TipoCajon, req.CajonID},
		{model.TipoDivision, req.DivisionID},
		{model.TipoCajoncito, req.CajoncitoID},
	}
	var refs []model.ContenedorRef
	for _, f := range campos {
		if f.valor == nil || strings.TrimSpace(*f.valor) == "" {
			continue
		}
		id, err := uuid.Parse(*f.valor)
		if err != nil {
			return nil, &ValidacionError{Campo: f.tipo.ColumnaRef(), Motivo: "uuid invalido"}
		}
		refs = append(refs, model.ContenedorRef{Tipo: f.tipo, ID: id})
	}
	return refs, nil
}

func (s *asignacionService) ValidarAsignacion(ctx context.Context, tipo model.TipoItem, req dto.AsignarUbicacionRequest) (model.ContenedorRef, error) {
	if req.Cantidad < 1 {
		return model.ContenedorRef{}, &ValidacionError{Campo: "cantidad", Motivo: "debe ser un entero positivo"}
	}
	refs, err := refsDesde(req)
	if err != nil {
		return model.ContenedorRef{}, err
	}
	a := model.Asignacion{ItemTipo: tipo, Refs: refs}
	ref, err := a.Ubicacion()
	if err != nil {
		return model.ContenedorRef{}, &ValidacionError{Campo: "ubicacion", Motivo: err.Error()}
	}
	if _, err := s.jerarquia.Ruta(ctx, ref); err != nil {
		return model.ContenedorRef{}, err
	}
	return ref, nil
}

func (s *asignacionService) Asignar(ctx context.Context, tipo model.TipoItem, itemID uuid.UUID, req dto.AsignarUbicacionRequest, usuarioID *uuid.UUID) (*dto.AsignacionResponse, error) {
	antes, err := s.stockActual(ctx, tipo, itemID)
	if err != nil {
		return nil, err
	}
	if !antes.Activo {
		return nil, &ValidacionError{Campo: "item_id", Motivo: "el item esta inactivo"}
	}
	ref, err := s.ValidarAsignacion(ctx, tipo, req)
	if err != nil {
		return nil, err
	}
	ruta, _ := s.jerarquia.Ruta(ctx, ref)

	a := model.Asignacion{ID: uuid.New(), ItemTipo: tipo, ItemID: itemID, Cantidad: req.Cantidad, Refs: []model.ContenedorRef{ref}}
	mov := &model.MovimientoStock{
		ItemTipo: tipo, ItemID: itemID, AsignacionID: a.ID,
		Tipo: model.MovimientoAsignacion, Cantidad: req.Cantidad,
		StockAnterior: antes.StockActual, StockNuevo: antes.StockActual + req.Cantidad,
		Ubicacion: ruta, UsuarioID: usuarioID,
	}
	if err := s.items.CrearAsignacion(ctx, a, mov); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			// Container removed between validation and insert.
			return nil, noEncontrado(string(ref.Tipo), ref.ID)
		}
		return nil, fmt.Errorf("crear asignacion: %w", err)
	}
	s.stock.Invalidar(ctx, tipo, itemID)

	log.Info().
		Str("item_tipo", string(tipo)).
		Str("item_id", itemID.String()).
		Str("ubicacion", ruta).
		Int("cantidad", req.Cantidad).
		Msg("asignacion creada")

	resp := asignacionToResponse(a, ref)
	resp.StockActual = mov.StockNuevo
	return &resp, nil
}

func (s *asignacionService) ActualizarCantidad(ctx context.Context, tipo model.TipoItem, asignacionID uuid.UUID, req dto.ActualizarCantidadRequest, usuarioID *uuid.UUID) (*dto.AsignacionResponse, error) {
	if req.Cantidad < 1 {
		return nil, &ValidacionError{Campo: "cantidad", Motivo: "debe ser un entero positivo"}
	}
	a, ref, err := s.cargarAsignacion(ctx, tipo, asignacionID)
	if err != nil {
		return nil, err
	}
	antes, err := s.stockActual(ctx, tipo, a.ItemID)
	if err != nil {
		return nil, err
	}
	ruta, _ := s.jerarquia.Ruta(ctx, ref)
	delta := req.Cantidad - a.Cantidad
	mov := &model.MovimientoStock{
		ItemTipo: tipo, ItemID: a.ItemID, AsignacionID: a.ID,
		Tipo: model.MovimientoAjuste, Cantidad: delta,
		StockAnterior: antes.StockActual, StockNuevo: antes.StockActual + delta,
		Ubicacion: ruta, UsuarioID: usuarioID,
	}
	if err := s.items.ActualizarCantidad(ctx, tipo, a.ID, req.Cantidad, mov); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, noEncontrado("asignacion", asignacionID)
		}
		return nil, fmt.Errorf("actualizar cantidad: %w", err)
	}
	s.stock.Invalidar(ctx, tipo, a.ItemID)
	s.revisarUmbral(ctx, antes, mov.StockNuevo, ruta)

	a.Cantidad = req.Cantidad
	resp := asignacionToResponse(*a, ref)
	resp.StockActual = mov.StockNuevo
	return &resp, nil
}

func (s *asignacionService) Retirar(ctx context.Context, tipo model.TipoItem, asignacionID uuid.UUID, usuarioID *uuid.UUID) error {
	a, ref, err := s.cargarAsignacion(ctx, tipo, asignacionID)
	if err != nil {
		return err
	}
	antes, err := s.stockActual(ctx, tipo, a.ItemID)
	if err != nil {
		return err
	}
	ruta, _ := s.jerarquia.Ruta(ctx, ref)
	mov := &model.MovimientoStock{
		ItemTipo: tipo, ItemID: a.ItemID, AsignacionID: a.ID,
		Tipo: model.MovimientoRetiro, Cantidad: -a.Cantidad,
		StockAnterior: antes.StockActual, StockNuevo: antes.StockActual - a.Cantidad,
		Ubicacion: ruta, UsuarioID: usuarioID,
	}
	if err := s.items.EliminarAsignacion(ctx, tipo, a.ID, mov); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return noEncontrado("asignacion", asignacionID)
		}
		return fmt.Errorf("eliminar asignacion: %w", err)
	}
	s.stock.Invalidar(ctx, tipo, a.ItemID)
	s.revisarUmbral(ctx, antes, mov.StockNuevo, ruta)
	return nil
}

func (s *asignacionService) Listar(ctx context.Context, tipo model.TipoItem, itemID uuid.UUID) ([]dto.AsignacionResponse, error) {
	actual, err := s.stockActual(ctx, tipo, itemID)
	if err != nil {
		return nil, err
	}
	list, err := s.items.Asignaciones(ctx, tipo, itemID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AsignacionResponse, 0, len(list))
	for _, a := range list {
		ref, err := ubicacionTolerante(a)
		resp := asignacionToResponse(a, ref)
		if err != nil {
			// Listed so it can still be fixed or removed; excluded from the total.
			resp.Advertencia = advertencia(a, err).Motivo
		}
		resp.StockActual = actual.StockActual
		out = append(out, resp)
	}
	return out, nil
}

func (s *asignacionService) cargarAsignacion(ctx context.Context, tipo model.TipoItem, id uuid.UUID) (*model.Asignacion, model.ContenedorRef, error) {
	a, err := s.items.ObtenerAsignacion(ctx, tipo, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ContenedorRef{}, noEncontrado("asignacion", id)
		}
		return nil, model.ContenedorRef{}, err
	}
	// Legacy malformed rows can still be adjusted or removed.
	ref, _ := ubicacionTolerante(*a)
	return a, ref, nil
}

// ubicacionTolerante resolves the location of a row. For a malformed row it
// logs the problem and falls back to the first populated reference, if any.
func ubicacionTolerante(a model.Asignacion) (model.ContenedorRef, error) {
	ref, err := a.Ubicacion()
	if err == nil {
		return ref, nil
	}
	log.Warn().Err(err).Str("asignacion_id", a.ID.String()).Msg("asignacion malformada")
	if len(a.Refs) > 0 {
		ref = a.Refs[0]
	}
	return ref, err
}

// stockActual sums the stored associations, inactive items included and the
// cache bypassed, so movements and alerts never work from a stale total.
func (s *asignacionService) stockActual(ctx context.Context, tipo model.TipoItem, itemID uuid.UUID) (*dto.StockResponse, error) {
	return s.stock.Calcular(ctx, tipo, itemID, dto.StockOptions{IncluirInactivos: true, SinCache: true})
}

// revisarUmbral queues an alert when a change moves the item below its minimum.
func (s *asignacionService) revisarUmbral(ctx context.Context, antes *dto.StockResponse, nuevo int, ruta string) {
	if s.alertas == nil || !antes.Activo {
		return
	}
	if !(antes.StockActual >= antes.StockMinimo && nuevo < antes.StockMinimo) {
		return
	}
	payload := dto.AlertaStockPayload{
		ItemTipo:    antes.ItemTipo,
		ItemID:      antes.ItemID,
		Codigo:      antes.Codigo,
		Nombre:      antes.Nombre,
		StockActual: nuevo,
		StockMinimo: antes.StockMinimo,
		Ubicacion:   ruta,
	}
	if err := s.alertas.EnqueueAlertaStock(ctx, payload); err != nil {
		log.Error().Err(err).Str("item_id", antes.ItemID).Msg("no se pudo encolar alerta de stock")
	}
}

func asignacionToResponse(a model.Asignacion, ref model.ContenedorRef) dto.AsignacionResponse {
	return dto.AsignacionResponse{
		ID:        a.ID.String(),
		ItemTipo:  string(a.ItemTipo),
		ItemID:    a.ItemID.String(),
		Cantidad:  a.Cantidad,
		Ubicacion: dto.RefResponse{Tipo: string(ref.Tipo), ID: ref.ID.String()},
	}
}
