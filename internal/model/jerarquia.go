package model

import (
	"time"

	"github.com/google/uuid"
)

// Ubicacion is a top-level physical site. Its code never changes after creation.
type Ubicacion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"uniqueIndex;not null"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Ubicacion) TableName() string { return "ubicaciones" }

func (u *Ubicacion) Nodo() Nodo {
	return Nodo{Ref: ContenedorRef{Tipo: TipoUbicacion, ID: u.ID}, Codigo: u.Codigo, Nombre: u.Nombre}
}

// Armario is a cabinet inside an Ubicacion.
type Armario struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"uniqueIndex;not null"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	UbicacionID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Ubicacion *Ubicacion `gorm:"foreignKey:UbicacionID;constraint:OnDelete:RESTRICT"`
}

func (Armario) TableName() string { return "armarios" }

func (a *Armario) Nodo() Nodo {
	return Nodo{
		Ref:    ContenedorRef{Tipo: TipoArmario, ID: a.ID},
		Codigo: a.Codigo, Nombre: a.Nombre,
		Padre: &ContenedorRef{Tipo: TipoUbicacion, ID: a.UbicacionID},
	}
}

// Estanteria is a shelving unit inside an Ubicacion.
type Estanteria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"uniqueIndex;not null"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	UbicacionID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Ubicacion *Ubicacion `gorm:"foreignKey:UbicacionID;constraint:OnDelete:RESTRICT"`
}

func (Estanteria) TableName() string { return "estanterias" }

func (e *Estanteria) Nodo() Nodo {
	return Nodo{
		Ref:    ContenedorRef{Tipo: TipoEstanteria, ID: e.ID},
		Codigo: e.Codigo, Nombre: e.Nombre,
		Padre: &ContenedorRef{Tipo: TipoUbicacion, ID: e.UbicacionID},
	}
}

// Estante is a single shelf of an Estanteria.
type Estante struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo       string    `gorm:"not null;uniqueIndex:idx_estante_codigo"`
	Nombre       string    `gorm:"not null"`
	Descripcion  *string
	EstanteriaID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_estante_codigo"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Estanteria *Estanteria `gorm:"foreignKey:EstanteriaID;constraint:OnDelete:RESTRICT"`
}

func (Estante) TableName() string { return "estantes" }

func (e *Estante) Nodo() Nodo {
	return Nodo{
		Ref:    ContenedorRef{Tipo: TipoEstante, ID: e.ID},
		Codigo: e.Codigo, Nombre: e.Nombre,
		Padre: &ContenedorRef{Tipo: TipoEstanteria, ID: e.EstanteriaID},
	}
}

// Cajon is a drawer hanging from exactly one Armario or Estanteria.
// The per-parent unique indexes on codigo are created by schema patches.
type Cajon struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"not null"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	ColumnasMueble
	CreatedAt time.Time
	UpdatedAt time.Time

	Armario    *Armario    `gorm:"foreignKey:ArmarioID;constraint:OnDelete:RESTRICT"`
	Estanteria *Estanteria `gorm:"foreignKey:EstanteriaID;constraint:OnDelete:RESTRICT"`
}

func (Cajon) TableName() string { return "cajones" }

// NuevoCajon builds a drawer; the tagged parent makes an orphan or doubly
// owned drawer impossible to construct.
func NuevoCajon(padre PadreMueble, codigo, nombre string, descripcion *string) *Cajon {
	c := &Cajon{ID: uuid.New(), Codigo: codigo, Nombre: nombre, Descripcion: descripcion}
	c.set(padre)
	return c
}

// Padre returns the owning mueble, or ErrPadreAmbiguo for corrupt rows.
func (c *Cajon) Padre() (PadreMueble, error) { return c.padre() }

func (c *Cajon) Nodo() Nodo {
	return Nodo{
		Ref:    ContenedorRef{Tipo: TipoCajon, ID: c.ID},
		Codigo: c.Codigo, Nombre: c.Nombre,
		Padre: c.ref(),
	}
}

// Division is a drawer subdivision. Holds repuesto stock.
type Division struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"not null;uniqueIndex:idx_division_codigo"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	CajonID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_division_codigo;<-:create"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Cajon *Cajon `gorm:"foreignKey:CajonID;constraint:OnDelete:RESTRICT"`
}

func (Division) TableName() string { return "divisiones" }

func (d *Division) Nodo() Nodo {
	return Nodo{
		Ref:    ContenedorRef{Tipo: TipoDivision, ID: d.ID},
		Codigo: d.Codigo, Nombre: d.Nombre,
		Padre: &ContenedorRef{Tipo: TipoCajon, ID: d.CajonID},
	}
}

// Organizador is a bin organizer hanging from exactly one Armario or Estanteria.
type Organizador struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"not null"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	ColumnasMueble
	CreatedAt time.Time
	UpdatedAt time.Time

	Armario    *Armario    `gorm:"foreignKey:ArmarioID;constraint:OnDelete:RESTRICT"`
	Estanteria *Estanteria `gorm:"foreignKey:EstanteriaID;constraint:OnDelete:RESTRICT"`
}

func (Organizador) TableName() string { return "organizadores" }

func NuevoOrganizador(padre PadreMueble, codigo, nombre string, descripcion *string) *Organizador {
	o := &Organizador{ID: uuid.New(), Codigo: codigo, Nombre: nombre, Descripcion: descripcion}
	o.set(padre)
	return o
}

func (o *Organizador) Padre() (PadreMueble, error) { return o.padre() }

func (o *Organizador) Nodo() Nodo {
	return Nodo{
		Ref:    ContenedorRef{Tipo: TipoOrganizador, ID: o.ID},
		Codigo: o.Codigo, Nombre: o.Nombre,
		Padre: o.ref(),
	}
}

// Cajoncito is a small compartment of an Organizador. Holds componente stock.
type Cajoncito struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo        string    `gorm:"not null;uniqueIndex:idx_cajoncito_codigo"`
	Nombre        string    `gorm:"not null"`
	Descripcion   *string
	OrganizadorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cajoncito_codigo;<-:create"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Organizador *Organizador `gorm:"foreignKey:OrganizadorID;constraint:OnDelete:RESTRICT"`
}

func (Cajoncito) TableName() string { return "cajoncitos" }

func (c *Cajoncito) Nodo() Nodo {
	return Nodo{
		Ref:    ContenedorRef{Tipo: TipoCajoncito, ID: c.ID},
		Codigo: c.Codigo, Nombre: c.Nombre,
		Padre: &ContenedorRef{Tipo: TipoOrganizador, ID: c.OrganizadorID},
	}
}

// NuevoContenedor builds the model for a validated placement. padre must be
// of a kind accepted by tipo; the Ubicacion root takes no parent.
func NuevoContenedor(tipo TipoContenedor, padre *ContenedorRef, codigo, nombre string, descripcion *string) (Contenedor, error) {
	id := uuid.New()
	if tipo == TipoUbicacion {
		return &Ubicacion{ID: id, Codigo: codigo, Nombre: nombre, Descripcion: descripcion, Activo: true}, nil
	}
	if padre == nil || !tipo.AceptaPadre(padre.Tipo) {
		return nil, ErrPadreAmbiguo
	}
	switch tipo {
	case TipoArmario:
		return &Armario{ID: id, Codigo: codigo, Nombre: nombre, Descripcion: descripcion, UbicacionID: padre.ID}, nil
	case TipoEstanteria:
		return &Estanteria{ID: id, Codigo: codigo, Nombre: nombre, Descripcion: descripcion, UbicacionID: padre.ID}, nil
	case TipoEstante:
		return &Estante{ID: id, Codigo: codigo, Nombre: nombre, Descripcion: descripcion, EstanteriaID: padre.ID}, nil
	case TipoCajon, TipoOrganizador:
		pm, err := NuevoPadreMueble(*padre)
		if err != nil {
			return nil, err
		}
		if tipo == TipoCajon {
			c := NuevoCajon(pm, codigo, nombre, descripcion)
			c.ID = id
			return c, nil
		}
		o := NuevoOrganizador(pm, codigo, nombre, descripcion)
		o.ID = id
		return o, nil
	case TipoDivision:
		return &Division{ID: id, Codigo: codigo, Nombre: nombre, Descripcion: descripcion, CajonID: padre.ID}, nil
	case TipoCajoncito:
		return &Cajoncito{ID: id, Codigo: codigo, Nombre: nombre, Descripcion: descripcion, OrganizadorID: padre.ID}, nil
	}
	return nil, ErrPadreAmbiguo
}
