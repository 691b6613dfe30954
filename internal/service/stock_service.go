package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockService derives on-hand quantities from the item-location
// associations. Nothing here writes stock: it is always recomputed.
type StockService interface {
	Calcular(ctx context.Context, tipo model.TipoItem, id uuid.UUID, opts dto.StockOptions) (*dto.StockResponse, error)
	// RecalcularTodo runs Calcular for every item of the kind ("" = all kinds).
	// A failing item is reported in Errores and never aborts the batch.
	RecalcularTodo(ctx context.Context, tipo string, opts dto.StockOptions) (*dto.RecalculoResponse, error)
	StockBajo(ctx context.Context, opts dto.StockOptions) ([]dto.StockBajoResponse, error)
	// Invalidar drops every cached result of an item after one of its
	// associations changed.
	Invalidar(ctx context.Context, tipo model.TipoItem, id uuid.UUID)
}

type stockService struct {
	items     repository.ItemRepository
	jerarquia repository.JerarquiaRepository
	rdb       *redis.Client
	ttl       time.Duration
	// incluirInactivos is the configured default, OR-ed with the request flag.
	incluirInactivos bool
}

// NewStockService builds the calculator. A nil rdb disables result caching.
func NewStockService(items repository.ItemRepository, jerarquia repository.JerarquiaRepository, rdb *redis.Client, ttl time.Duration, incluirInactivos bool) StockService {
	return &stockService{items: items, jerarquia: jerarquia, rdb: rdb, ttl: ttl, incluirInactivos: incluirInactivos}
}

// itemStock is the kind-agnostic slice of an item the calculator needs.
type itemStock struct {
	tipo   model.TipoItem
	id     uuid.UUID
	codigo string
	nombre string
	activo bool
	minimo int
}

func repuestoStock(r *model.Repuesto) itemStock {
	return itemStock{tipo: model.ItemRepuesto, id: r.ID, codigo: r.Codigo, nombre: r.Nombre, activo: r.Activo, minimo: r.StockMinimo}
}

func componenteStock(c *model.Componente) itemStock {
	return itemStock{tipo: model.ItemComponente, id: c.ID, codigo: c.Codigo(), nombre: c.Descripcion, activo: c.Activo, minimo: c.StockMinimo}
}

func (s *stockService) opciones(opts dto.StockOptions) dto.StockOptions {
	opts.IncluirInactivos = opts.IncluirInactivos || s.incluirInactivos
	return opts
}

func (s *stockService) cargarItem(ctx context.Context, tipo model.TipoItem, id uuid.UUID) (itemStock, error) {
	switch tipo {
	case model.ItemRepuesto:
		r, err := s.items.ObtenerRepuesto(ctx, id)
		if err != nil {
			return itemStock{}, err
		}
		return repuestoStock(r), nil
	case model.ItemComponente:
		c, err := s.items.ObtenerComponente(ctx, id)
		if err != nil {
			return itemStock{}, err
		}
		return componenteStock(c), nil
	}
	return itemStock{}, &ValidacionError{Campo: "tipo", Motivo: fmt.Sprintf("tipo de item desconocido %q", tipo)}
}

func (s *stockService) Calcular(ctx context.Context, tipo model.TipoItem, id uuid.UUID, opts dto.StockOptions) (*dto.StockResponse, error) {
	opts = s.opciones(opts)
	item, err := s.cargarItem(ctx, tipo, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, noEncontrado(string(tipo), id)
	}
	if err != nil {
		return nil, err
	}
	if !item.activo && !opts.IncluirInactivos {
		return nil, noEncontrado(string(tipo), id)
	}

	if opts.SinCache {
		return s.calcular(ctx, item, opts, newResolvedorRutas(s.jerarquia))
	}
	key := claveStock(tipo, id, opts)
	if cached, ok := s.leerCache(ctx, key); ok {
		return cached, nil
	}

	resp, err := s.calcular(ctx, item, opts, newResolvedorRutas(s.jerarquia))
	if err != nil {
		return nil, err
	}
	s.escribirCache(ctx, key, resp)
	return resp, nil
}

// calcular reduces the associations of one item to its total. Malformed rows
// (no location, several locations, a location kind the item may not use, a
// dangling or orphaned container) are skipped with a warning.
func (s *stockService) calcular(ctx context.Context, item itemStock, opts dto.StockOptions, rutas *resolvedorRutas) (*dto.StockResponse, error) {
	asignaciones, err := s.items.Asignaciones(ctx, item.tipo, item.id)
	if err != nil {
		return nil, fmt.Errorf("leer asignaciones de %s %s: %w", item.tipo, item.id, err)
	}

	resp := &dto.StockResponse{
		ItemTipo:    string(item.tipo),
		ItemID:      item.id.String(),
		Codigo:      item.codigo,
		Nombre:      item.nombre,
		Activo:      item.activo,
		StockMinimo: item.minimo,
		Desglose:    []dto.UbicacionStock{},
	}
	for _, a := range asignaciones {
		ref, err := a.Ubicacion()
		if err != nil {
			resp.Advertencias = append(resp.Advertencias, advertencia(a, err))
			continue
		}
		if a.Cantidad <= 0 && !opts.IncluirCeros {
			continue
		}
		ruta, err := rutas.ruta(ctx, ref)
		if err != nil {
			if errors.Is(err, ErrNoEncontrado) || errors.Is(err, model.ErrPadreAmbiguo) {
				resp.Advertencias = append(resp.Advertencias, advertencia(a, err))
				continue
			}
			return nil, err
		}
		nodo, _ := rutas.nodo(ctx, ref)
		resp.StockActual += a.Cantidad
		resp.Desglose = append(resp.Desglose, dto.UbicacionStock{
			AsignacionID: a.ID.String(),
			Tipo:         string(ref.Tipo),
			UbicacionID:  ref.ID.String(),
			Codigo:       nodo.Codigo,
			Ruta:         ruta,
			Cantidad:     a.Cantidad,
		})
	}
	// Stable output regardless of the order rows came back in.
	sort.Slice(resp.Desglose, func(i, j int) bool {
		if resp.Desglose[i].Ruta != resp.Desglose[j].Ruta {
			return resp.Desglose[i].Ruta < resp.Desglose[j].Ruta
		}
		return resp.Desglose[i].AsignacionID < resp.Desglose[j].AsignacionID
	})
	sort.Slice(resp.Advertencias, func(i, j int) bool {
		return resp.Advertencias[i].AsignacionID < resp.Advertencias[j].AsignacionID
	})
	resp.StockBajo = resp.StockActual < resp.StockMinimo

	for _, w := range resp.Advertencias {
		log.Warn().
			Str("item_tipo", resp.ItemTipo).
			Str("item_id", resp.ItemID).
			Str("asignacion_id", w.AsignacionID).
			Msg(w.Motivo)
	}
	return resp, nil
}

func advertencia(a model.Asignacion, err error) dto.AdvertenciaStock {
	return dto.AdvertenciaStock{AsignacionID: a.ID.String(), Motivo: fmt.Errorf("%w: %w", ErrAsignacionMalformada, err).Error()}
}

func (s *stockService) RecalcularTodo(ctx context.Context, tipo string, opts dto.StockOptions) (*dto.RecalculoResponse, error) {
	opts = s.opciones(opts)
	tipos := []model.TipoItem{model.ItemRepuesto, model.ItemComponente}
	if tipo != "" {
		t, ok := model.ParseTipoItem(tipo)
		if !ok {
			return nil, &ValidacionError{Campo: "tipo", Motivo: fmt.Sprintf("tipo de item desconocido %q", tipo)}
		}
		tipos = []model.TipoItem{t}
	}

	out := &dto.RecalculoResponse{Items: []dto.StockResponse{}, Resumen: make(map[string]dto.ResumenTipo)}
	rutas := newResolvedorRutas(s.jerarquia)
	for _, t := range tipos {
		items, err := s.listarItems(ctx, t, opts.IncluirInactivos)
		if err != nil {
			return nil, err
		}
		resumen := dto.ResumenTipo{}
		for _, it := range items {
			r, err := s.calcular(ctx, it, opts, rutas)
			if err != nil {
				log.Error().Err(err).Str("item_tipo", string(t)).Str("item_id", it.id.String()).Msg("stock: error calculando item")
				out.Errores = append(out.Errores, dto.ErrorItem{ItemTipo: string(t), ItemID: it.id.String(), Detalle: err.Error()})
				continue
			}
			resumen.Total++
			if r.StockBajo {
				resumen.StockBajo++
			}
			out.Items = append(out.Items, *r)
		}
		out.Resumen[string(t)] = resumen
	}
	return out, nil
}

func (s *stockService) listarItems(ctx context.Context, tipo model.TipoItem, incluirInactivos bool) ([]itemStock, error) {
	var out []itemStock
	switch tipo {
	case model.ItemRepuesto:
		list, err := s.items.ListarRepuestos(ctx, incluirInactivos)
		if err != nil {
			return nil, err
		}
		for i := range list {
			out = append(out, repuestoStock(&list[i]))
		}
	case model.ItemComponente:
		list, err := s.items.ListarComponentes(ctx, incluirInactivos)
		if err != nil {
			return nil, err
		}
		for i := range list {
			out = append(out, componenteStock(&list[i]))
		}
	}
	return out, nil
}

// StockBajo lists items below their minimum, most critical first
// (stock_actual ascending, then code, then id).
func (s *stockService) StockBajo(ctx context.Context, opts dto.StockOptions) ([]dto.StockBajoResponse, error) {
	todo, err := s.RecalcularTodo(ctx, "", opts)
	if err != nil {
		return nil, err
	}
	out := []dto.StockBajoResponse{}
	for _, r := range todo.Items {
		if !r.StockBajo {
			continue
		}
		out = append(out, dto.StockBajoResponse{
			StockResponse: r,
			Faltante:      r.StockMinimo - r.StockActual,
			Cobertura:     Cobertura(r.StockActual, r.StockMinimo),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.StockActual != b.StockActual {
			return a.StockActual < b.StockActual
		}
		if a.Codigo != b.Codigo {
			return a.Codigo < b.Codigo
		}
		return a.ItemID < b.ItemID
	})
	return out, nil
}

// Cobertura is actual/minimo as a percentage rounded to two places.
func Cobertura(actual, minimo int) decimal.Decimal {
	if minimo <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(actual)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(minimo))).
		Round(2)
}

// ── Cache ────────────────────────────────────────────────────────────────────

func claveStock(tipo model.TipoItem, id uuid.UUID, opts dto.StockOptions) string {
	return fmt.Sprintf("stock:%s:%s:%t:%t", tipo, id, opts.IncluirInactivos, opts.IncluirCeros)
}

func (s *stockService) leerCache(ctx context.Context, key string) (*dto.StockResponse, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("stock: cache no disponible")
		}
		return nil, false
	}
	var resp dto.StockResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (s *stockService) escribirCache(ctx context.Context, key string, resp *dto.StockResponse) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("stock: no se pudo cachear")
	}
}

func (s *stockService) Invalidar(ctx context.Context, tipo model.TipoItem, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	var keys []string
	for _, inactivos := range []bool{false, true} {
		for _, ceros := range []bool{false, true} {
			keys = append(keys, claveStock(tipo, id, dto.StockOptions{IncluirInactivos: inactivos, IncluirCeros: ceros}))
		}
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("item_id", id.String()).Msg("stock: no se pudo invalidar cache")
	}
}
