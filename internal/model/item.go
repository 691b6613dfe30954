package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repuesto is a spare part. Its on-hand quantity is never stored: it is the
// sum of its RepuestoUbicacion rows.
type Repuesto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"uniqueIndex;not null"`
	Nombre      string    `gorm:"index;not null"`
	Descripcion *string
	StockMinimo int  `gorm:"not null;default:0"`
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Ubicaciones []RepuestoUbicacion `gorm:"foreignKey:RepuestoID;constraint:OnDelete:RESTRICT"`
}

func (Repuesto) TableName() string { return "repuestos" }

// CategoriaComponente classifies electronic components.
type CategoriaComponente string

const (
	CategoriaResistencia CategoriaComponente = "RESISTENCIA"
	CategoriaCapacitor   CategoriaComponente = "CAPACITOR"
	CategoriaIntegrado   CategoriaComponente = "INTEGRADO"
	CategoriaVentilador  CategoriaComponente = "VENTILADOR"
	CategoriaOtros       CategoriaComponente = "OTROS"
)

// Componente is an electronic component, stored only in Cajoncitos.
type Componente struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Categoria   CategoriaComponente `gorm:"type:varchar(20);not null;index"`
	Descripcion string              `gorm:"not null"`
	StockMinimo int                 `gorm:"not null;default:0"`
	Activo      bool                `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Ubicaciones []ComponenteUbicacion `gorm:"foreignKey:ComponenteID;constraint:OnDelete:RESTRICT"`
}

func (Componente) TableName() string { return "componentes" }

// Codigo is the display code of a component; components carry no stored code.
func (c *Componente) Codigo() string {
	return fmt.Sprintf("%s %s", c.Categoria, c.Descripcion)
}

// Equipo is a piece of equipment linked to the repuestos compatible with it.
type Equipo struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo    string    `gorm:"uniqueIndex;not null"`
	Nombre    string    `gorm:"not null"`
	Activo    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Equipo) TableName() string { return "equipos" }

// RepuestoEquipo is the compatibility link. It carries no quantity.
type RepuestoEquipo struct {
	RepuestoID uuid.UUID `gorm:"type:uuid;primaryKey"`
	EquipoID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time

	Repuesto *Repuesto `gorm:"foreignKey:RepuestoID;constraint:OnDelete:CASCADE"`
	Equipo   *Equipo   `gorm:"foreignKey:EquipoID;constraint:OnDelete:CASCADE"`
}

func (RepuestoEquipo) TableName() string { return "repuesto_equipos" }

// ── Item ↔ location associations ──────────────────────────────────────────────

// RepuestoUbicacion places a quantity of a repuesto in exactly one container.
// Six nullable columns back the reference; a CHECK constraint keeps exactly
// one of them populated.
type RepuestoUbicacion struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RepuestoID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Cantidad     int        `gorm:"not null"`
	ArmarioID    *uuid.UUID `gorm:"type:uuid;index"`
	EstanteriaID *uuid.UUID `gorm:"type:uuid;index"`
	EstanteID    *uuid.UUID `gorm:"type:uuid;index"`
	CajonID      *uuid.UUID `gorm:"type:uuid;index"`
	DivisionID   *uuid.UUID `gorm:"type:uuid;index"`
	CajoncitoID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (RepuestoUbicacion) TableName() string { return "repuesto_ubicaciones" }

func (r *RepuestoUbicacion) columnas() map[TipoContenedor]**uuid.UUID {
	return map[TipoContenedor]**uuid.UUID{
		TipoArmario:    &r.ArmarioID,
		TipoEstanteria: &r.EstanteriaID,
		TipoEstante:    &r.EstanteID,
		TipoCajon:      &r.CajonID,
		TipoDivision:   &r.DivisionID,
		TipoCajoncito:  &r.CajoncitoID,
	}
}

// Refs lists every populated location column, in hierarchy order.
func (r *RepuestoUbicacion) Refs() []ContenedorRef {
	cols := r.columnas()
	var refs []ContenedorRef
	for _, t := range TiposContenedor {
		if p, ok := cols[t]; ok && *p != nil {
			refs = append(refs, ContenedorRef{Tipo: t, ID: **p})
		}
	}
	return refs
}

// SetUbicacion clears every location column and populates the one for ref.
func (r *RepuestoUbicacion) SetUbicacion(ref ContenedorRef) error {
	cols := r.columnas()
	dst, ok := cols[ref.Tipo]
	if !ok {
		return fmt.Errorf("un repuesto no puede ubicarse en %s", ref.Tipo)
	}
	for _, p := range cols {
		*p = nil
	}
	id := ref.ID
	*dst = &id
	return nil
}

// Asignacion normalizes the row into the kind-agnostic association view.
func (r *RepuestoUbicacion) Asignacion() Asignacion {
	return Asignacion{
		ID: r.ID, ItemTipo: ItemRepuesto, ItemID: r.RepuestoID,
		Cantidad: r.Cantidad, Refs: r.Refs(),
	}
}

// ComponenteUbicacion places a quantity of a componente in one Cajoncito.
type ComponenteUbicacion struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComponenteID uuid.UUID `gorm:"type:uuid;not null;index"`
	Cantidad     int       `gorm:"not null"`
	CajoncitoID  uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Cajoncito *Cajoncito `gorm:"foreignKey:CajoncitoID;constraint:OnDelete:RESTRICT"`
}

func (ComponenteUbicacion) TableName() string { return "componente_ubicaciones" }

func (c *ComponenteUbicacion) Asignacion() Asignacion {
	a := Asignacion{ID: c.ID, ItemTipo: ItemComponente, ItemID: c.ComponenteID, Cantidad: c.Cantidad}
	if c.CajoncitoID != uuid.Nil {
		a.Refs = []ContenedorRef{{Tipo: TipoCajoncito, ID: c.CajoncitoID}}
	}
	return a
}

// Asignacion is the kind-agnostic view of an item-location association row.
type Asignacion struct {
	ID       uuid.UUID
	ItemTipo TipoItem
	ItemID   uuid.UUID
	Cantidad int
	// Refs holds every populated location column; a well-formed row has one.
	Refs []ContenedorRef
}

var (
	ErrSinUbicacion      = errors.New("la asignacion no referencia ninguna ubicacion")
	ErrUbicacionMultiple = errors.New("la asignacion referencia mas de una ubicacion")
	ErrUbicacionInvalida = errors.New("tipo de ubicacion no admitido para el item")
)

// Ubicacion returns the single location the association points at.
func (a Asignacion) Ubicacion() (ContenedorRef, error) {
	switch len(a.Refs) {
	case 0:
		return ContenedorRef{}, ErrSinUbicacion
	case 1:
		if !a.Refs[0].Tipo.AceptaItem(a.ItemTipo) {
			return ContenedorRef{}, ErrUbicacionInvalida
		}
		return a.Refs[0], nil
	}
	return ContenedorRef{}, ErrUbicacionMultiple
}

// NuevaRepuestoUbicacion builds the persisted row for a repuesto association.
func NuevaRepuestoUbicacion(repuestoID uuid.UUID, ref ContenedorRef, cantidad int) (*RepuestoUbicacion, error) {
	r := &RepuestoUbicacion{ID: uuid.New(), RepuestoID: repuestoID, Cantidad: cantidad}
	if err := r.SetUbicacion(ref); err != nil {
		return nil, err
	}
	return r, nil
}

// NuevaComponenteUbicacion builds the persisted row for a componente association.
func NuevaComponenteUbicacion(componenteID uuid.UUID, ref ContenedorRef, cantidad int) (*ComponenteUbicacion, error) {
	if ref.Tipo != TipoCajoncito {
		return nil, fmt.Errorf("un componente solo puede ubicarse en un cajoncito, no en %s", ref.Tipo)
	}
	return &ComponenteUbicacion{ID: uuid.New(), ComponenteID: componenteID, CajoncitoID: ref.ID, Cantidad: cantidad}, nil
}
