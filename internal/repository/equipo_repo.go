package repository

import (
	"context"

	"github.com/cinsua/masirep-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EquipoRepository handles equipment and its repuesto compatibility links.
type EquipoRepository interface {
	Crear(ctx context.Context, e *model.Equipo) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Equipo, error)
	Listar(ctx context.Context) ([]model.Equipo, error)
	Vincular(ctx context.Context, equipoID, repuestoID uuid.UUID) error
	Desvincular(ctx context.Context, equipoID, repuestoID uuid.UUID) error
	RepuestosCompatibles(ctx context.Context, equipoID uuid.UUID) ([]model.Repuesto, error)
}

type equipoRepo struct{ db *gorm.DB }

func NewEquipoRepository(db *gorm.DB) EquipoRepository { return &equipoRepo{db: db} }

func (r *equipoRepo) Crear(ctx context.Context, e *model.Equipo) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *equipoRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Equipo, error) {
	var e model.Equipo
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *equipoRepo) Listar(ctx context.Context) ([]model.Equipo, error) {
	var list []model.Equipo
	err := r.db.WithContext(ctx).Where("activo = true").Order("codigo ASC").Find(&list).Error
	return list, err
}

// Vincular is idempotent: linking an already linked pair is a no-op.
func (r *equipoRepo) Vincular(ctx context.Context, equipoID, repuestoID uuid.UUID) error {
	link := model.RepuestoEquipo{RepuestoID: repuestoID, EquipoID: equipoID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

func (r *equipoRepo) Desvincular(ctx context.Context, equipoID, repuestoID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("equipo_id = ? AND repuesto_id = ?", equipoID, repuestoID).
		Delete(&model.RepuestoEquipo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *equipoRepo) RepuestosCompatibles(ctx context.Context, equipoID uuid.UUID) ([]model.Repuesto, error) {
	var list []model.Repuesto
	err := r.db.WithContext(ctx).
		Joins("JOIN repuesto_equipos re ON re.repuesto_id = repuestos.id").
		Where("re.equipo_id = ?", equipoID).
		Order("repuestos.codigo ASC").
		Find(&list).Error
	return list, err
}
