package repository

import (
	"context"
	"fmt"

	"github.com/cinsua/masirep-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository defines data access for repuestos, componentes and their
// location associations. Association mutations persist the audit movement in
// the same transaction.
type ItemRepository interface {
	CrearRepuesto(ctx context.Context, r *model.Repuesto) error
	ObtenerRepuesto(ctx context.Context, id uuid.UUID) (*model.Repuesto, error)
	ListarRepuestos(ctx context.Context, incluirInactivos bool) ([]model.Repuesto, error)
	ActualizarRepuesto(ctx context.Context, r *model.Repuesto) error

	CrearComponente(ctx context.Context, c *model.Componente) error
	ObtenerComponente(ctx context.Context, id uuid.UUID) (*model.Componente, error)
	ListarComponentes(ctx context.Context, incluirInactivos bool) ([]model.Componente, error)
	ActualizarComponente(ctx context.Context, c *model.Componente) error

	// Asignaciones loads every association row of an item, well formed or not.
	Asignaciones(ctx context.Context, tipo model.TipoItem, itemID uuid.UUID) ([]model.Asignacion, error)
	ObtenerAsignacion(ctx context.Context, tipo model.TipoItem, id uuid.UUID) (*model.Asignacion, error)
	CrearAsignacion(ctx context.Context, a model.Asignacion, mov *model.MovimientoStock) error
	ActualizarCantidad(ctx context.Context, tipo model.TipoItem, id uuid.UUID, cantidad int, mov *model.MovimientoStock) error
	EliminarAsignacion(ctx context.Context, tipo model.TipoItem, id uuid.UUID, mov *model.MovimientoStock) error
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) CrearRepuesto(ctx context.Context, rep *model.Repuesto) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *itemRepo) ObtenerRepuesto(ctx context.Context, id uuid.UUID) (*model.Repuesto, error) {
	var rep model.Repuesto
	if err := r.db.WithContext(ctx).First(&rep, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *itemRepo) ListarRepuestos(ctx context.Context, incluirInactivos bool) ([]model.Repuesto, error) {
	var list []model.Repuesto
	q := r.db.WithContext(ctx).Order("codigo ASC")
	if !incluirInactivos {
		q = q.Where("activo = true")
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *itemRepo) ActualizarRepuesto(ctx context.Context, rep *model.Repuesto) error {
	return r.db.WithContext(ctx).Save(rep).Error
}

func (r *itemRepo) CrearComponente(ctx context.Context, c *model.Componente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *itemRepo) ObtenerComponente(ctx context.Context, id uuid.UUID) (*model.Componente, error) {
	var c model.Componente
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *itemRepo) ListarComponentes(ctx context.Context, incluirInactivos bool) ([]model.Componente, error) {
	var list []model.Componente
	q := r.db.WithContext(ctx).Order("categoria ASC, descripcion ASC")
	if !incluirInactivos {
		q = q.Where("activo = true")
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *itemRepo) ActualizarComponente(ctx context.Context, c *model.Componente) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *itemRepo) Asignaciones(ctx context.Context, tipo model.TipoItem, itemID uuid.UUID) ([]model.Asignacion, error) {
	db := r.db.WithContext(ctx)
	switch tipo {
	case model.ItemRepuesto:
		var rows []model.RepuestoUbicacion
		if err := db.Where("repuesto_id = ?", itemID).Order("created_at ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		out := make([]model.Asignacion, 0, len(rows))
		for i := range rows {
			out = append(out, rows[i].Asignacion())
		}
		return out, nil
	case model.ItemComponente:
		var rows []model.ComponenteUbicacion
		if err := db.Where("componente_id = ?", itemID).Order("created_at ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		out := make([]model.Asignacion, 0, len(rows))
		for i := range rows {
			out = append(out, rows[i].Asignacion())
		}
		return out, nil
	}
	return nil, fmt.Errorf("tipo de item desconocido %q", tipo)
}

func (r *itemRepo) ObtenerAsignacion(ctx context.Context, tipo model.TipoItem, id uuid.UUID) (*model.Asignacion, error) {
	db := r.db.WithContext(ctx)
	var a model.Asignacion
	switch tipo {
	case model.ItemRepuesto:
		var row model.RepuestoUbicacion
		if err := db.First(&row, "id = ?", id).Error; err != nil {
			return nil, err
		}
		a = row.Asignacion()
	case model.ItemComponente:
		var row model.ComponenteUbicacion
		if err := db.First(&row, "id = ?", id).Error; err != nil {
			return nil, err
		}
		a = row.Asignacion()
	default:
		return nil, fmt.Errorf("tipo de item desconocido %q", tipo)
	}
	return &a, nil
}

func (r *itemRepo) CrearAsignacion(ctx context.Context, a model.Asignacion, mov *model.MovimientoStock) error {
	ref, err := a.Ubicacion()
	if err != nil {
		return err
	}
	var row interface{}
	switch a.ItemTipo {
	case model.ItemRepuesto:
		ru, err := model.NuevaRepuestoUbicacion(a.ItemID, ref, a.Cantidad)
		if err != nil {
			return err
		}
		ru.ID = a.ID
		row = ru
	case model.ItemComponente:
		cu, err := model.NuevaComponenteUbicacion(a.ItemID, ref, a.Cantidad)
		if err != nil {
			return err
		}
		cu.ID = a.ID
		row = cu
	default:
		return fmt.Errorf("tipo de item desconocido %q", a.ItemTipo)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return crearMovimiento(tx, mov)
	})
}

func (r *itemRepo) ActualizarCantidad(ctx context.Context, tipo model.TipoItem, id uuid.UUID, cantidad int, mov *model.MovimientoStock) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(tipo.TablaAsignaciones()).Where("id = ?", id).
			Updates(map[string]interface{}{"cantidad": cantidad, "updated_at": gorm.Expr("NOW()")})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return crearMovimiento(tx, mov)
	})
}

func (r *itemRepo) EliminarAsignacion(ctx context.Context, tipo model.TipoItem, id uuid.UUID, mov *model.MovimientoStock) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec("DELETE FROM "+tipo.TablaAsignaciones()+" WHERE id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return crearMovimiento(tx, mov)
	})
}

func crearMovimiento(tx *gorm.DB, mov *model.MovimientoStock) error {
	if mov == nil {
		return nil
	}
	return tx.Create(mov).Error
}
