package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de movimiento de stock.
const (
	MovimientoAsignacion = "asignacion"
	MovimientoAjuste     = "ajuste"
	MovimientoRetiro     = "retiro"
)

// MovimientoStock records each change made to an item-location association.
// StockAnterior/StockNuevo are snapshots of the computed total; they are an
// audit trail, never a source for the current stock.
type MovimientoStock struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemTipo      TipoItem   `gorm:"type:varchar(20);not null;index:idx_movimiento_item"`
	ItemID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_movimiento_item"`
	AsignacionID  uuid.UUID  `gorm:"type:uuid;not null"`
	Tipo          string     `gorm:"not null"` // "asignacion" | "ajuste" | "retiro"
	Cantidad      int        `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int        `gorm:"not null"`
	StockNuevo    int        `gorm:"not null"`
	Ubicacion     string     `gorm:"not null"`
	UsuarioID     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
