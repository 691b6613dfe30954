package repository

import (
	"context"
	"time"

	"github.com/cinsua/masirep-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	movimientosPorPagina    = 50
	maxMovimientosPorPagina = 500
)

// MovimientoStockFilter narrows the audit trail. Zero values mean "any".
type MovimientoStockFilter struct {
	ItemTipo     model.TipoItem
	ItemID       *uuid.UUID
	AsignacionID *uuid.UUID
	Tipo         string
	Desde        *time.Time
	Hasta        *time.Time
	Page         int
	Limit        int
}

// MovimientoStockRepository reads movements. They are written by
// ItemRepository inside the same transaction as the association change.
type MovimientoStockRepository interface {
	Listar(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) Listar(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoStock{}).Scopes(filtrarMovimientos(filter))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.MovimientoStock{}, 0, nil
	}

	var movimientos []model.MovimientoStock
	err := q.Scopes(paginar(filter.Page, filter.Limit)).
		Order("created_at DESC, id").
		Find(&movimientos).Error
	return movimientos, total, err
}

func filtrarMovimientos(f MovimientoStockFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.ItemTipo != "" {
			q = q.Where("item_tipo = ?", f.ItemTipo)
		}
		if f.ItemID != nil {
			q = q.Where("item_id = ?", *f.ItemID)
		}
		if f.AsignacionID != nil {
			q = q.Where("asignacion_id = ?", *f.AsignacionID)
		}
		if f.Tipo != "" {
			q = q.Where("tipo = ?", f.Tipo)
		}
		if f.Desde != nil {
			q = q.Where("created_at >= ?", *f.Desde)
		}
		if f.Hasta != nil {
			q = q.Where("created_at < ?", *f.Hasta)
		}
		return q
	}
}

// paginar clamps page/limit and applies offset pagination.
func paginar(page, limit int) func(*gorm.DB) *gorm.DB {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = movimientosPorPagina
	}
	if limit > maxMovimientosPorPagina {
		limit = maxMovimientosPorPagina
	}
	return func(q *gorm.DB) *gorm.DB {
		return q.Offset((page - 1) * limit).Limit(limit)
	}
}
