package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// TipoContenedor identifies one of the physical container kinds of the
// location hierarchy.
type TipoContenedor string

const (
	TipoUbicacion   TipoContenedor = "ubicacion"
	TipoArmario     TipoContenedor = "armario"
	TipoEstanteria  TipoContenedor = "estanteria"
	TipoEstante     TipoContenedor = "estante"
	TipoCajon       TipoContenedor = "cajon"
	TipoDivision    TipoContenedor = "division"
	TipoOrganizador TipoContenedor = "organizador"
	TipoCajoncito   TipoContenedor = "cajoncito"
)

// TipoItem identifies an inventory item kind that can be stored in containers.
type TipoItem string

const (
	ItemRepuesto   TipoItem = "repuesto"
	ItemComponente TipoItem = "componente"
)

// infoTipo is the static description of a container kind.
type infoTipo struct {
	tabla   string
	plural  string
	prefijo string
	// global: codes are unique system-wide instead of per parent.
	global bool
	padres []TipoContenedor
	hijos  []TipoContenedor
	items  []TipoItem
}

var registro = map[TipoContenedor]infoTipo{
	TipoUbicacion: {
		tabla: "ubicaciones", plural: "ubicaciones", prefijo: "UBI", global: true,
		hijos: []TipoContenedor{TipoArmario, TipoEstanteria},
	},
	TipoArmario: {
		tabla: "armarios", plural: "armarios", prefijo: "ARM", global: true,
		padres: []TipoContenedor{TipoUbicacion},
		hijos:  []TipoContenedor{TipoCajon, TipoOrganizador},
		items:  []TipoItem{ItemRepuesto},
	},
	TipoEstanteria: {
		tabla: "estanterias", plural: "estanterias", prefijo: "EST", global: true,
		padres: []TipoContenedor{TipoUbicacion},
		hijos:  []TipoContenedor{TipoCajon, TipoOrganizador, TipoEstante},
		items:  []TipoItem{ItemRepuesto},
	},
	TipoEstante: {
		tabla: "estantes", plural: "estantes", prefijo: "NIV",
		padres: []TipoContenedor{TipoEstanteria},
		items:  []TipoItem{ItemRepuesto},
	},
	TipoCajon: {
		tabla: "cajones", plural: "cajones", prefijo: "CAJ",
		padres: []TipoContenedor{TipoArmario, TipoEstanteria},
		hijos:  []TipoContenedor{TipoDivision},
		items:  []TipoItem{ItemRepuesto},
	},
	TipoDivision: {
		tabla: "divisiones", plural: "divisiones", prefijo: "DIV",
		padres: []TipoContenedor{TipoCajon},
		items:  []TipoItem{ItemRepuesto},
	},
	TipoOrganizador: {
		tabla: "organizadores", plural: "organizadores", prefijo: "ORG",
		padres: []TipoContenedor{TipoArmario, TipoEstanteria},
		hijos:  []TipoContenedor{TipoCajoncito},
	},
	TipoCajoncito: {
		tabla: "cajoncitos", plural: "cajoncitos", prefijo: "CJT",
		padres: []TipoContenedor{TipoOrganizador},
		items:  []TipoItem{ItemRepuesto, ItemComponente},
	},
}

// TiposContenedor lists every kind from the root of the hierarchy down.
var TiposContenedor = []TipoContenedor{
	TipoUbicacion, TipoArmario, TipoEstanteria, TipoEstante,
	TipoCajon, TipoDivision, TipoOrganizador, TipoCajoncito,
}

// ParseTipoContenedor validates a kind received from the outside.
func ParseTipoContenedor(s string) (TipoContenedor, bool) {
	t := TipoContenedor(s)
	_, ok := registro[t]
	return t, ok
}

func (t TipoContenedor) info() infoTipo {
	i, ok := registro[t]
	if !ok {
		panic(fmt.Sprintf("model: tipo de contenedor desconocido %q", string(t)))
	}
	return i
}

// Tabla is the SQL table holding containers of this kind.
func (t TipoContenedor) Tabla() string { return t.info().tabla }

// Plural is the key used when reporting per-kind tallies.
func (t TipoContenedor) Plural() string { return t.info().plural }

// Prefijo is the fixed prefix of auto-generated codes.
func (t TipoContenedor) Prefijo() string { return t.info().prefijo }

// ColumnaRef is the column name other tables use to reference this kind.
func (t TipoContenedor) ColumnaRef() string { return string(t) + "_id" }

// CodigoGlobal reports whether codes of this kind are unique system-wide.
func (t TipoContenedor) CodigoGlobal() bool { return t.info().global }

func (t TipoContenedor) Padres() []TipoContenedor { return t.info().padres }
func (t TipoContenedor) Hijos() []TipoContenedor  { return t.info().hijos }

// Items lists the item kinds whose associations may reference this kind.
func (t TipoContenedor) Items() []TipoItem { return t.info().items }

// AceptaPadre reports whether p is a legal parent kind for t.
func (t TipoContenedor) AceptaPadre(p TipoContenedor) bool {
	for _, x := range t.Padres() {
		if x == p {
			return true
		}
	}
	return false
}

// AceptaItem reports whether associations of item kind i may reference t.
func (t TipoContenedor) AceptaItem(i TipoItem) bool {
	for _, x := range t.Items() {
		if x == i {
			return true
		}
	}
	return false
}

// ParseTipoItem validates an item kind received from the outside.
func ParseTipoItem(s string) (TipoItem, bool) {
	switch TipoItem(s) {
	case ItemRepuesto, ItemComponente:
		return TipoItem(s), true
	}
	return "", false
}

// Plural is the key used when reporting per-kind tallies.
func (i TipoItem) Plural() string { return string(i) + "s" }

// TablaAsignaciones is the association table for the item kind.
func (i TipoItem) TablaAsignaciones() string { return string(i) + "_ubicaciones" }

// ContenedorRef points at a single container of any kind.
type ContenedorRef struct {
	Tipo TipoContenedor `json:"tipo"`
	ID   uuid.UUID      `json:"id"`
}

func (r ContenedorRef) String() string { return string(r.Tipo) + ":" + r.ID.String() }

// Alcance is the uniqueness scope of a generated code: a container kind and,
// for kinds whose codes are not global, the parent that owns the sequence.
type Alcance struct {
	Tipo  TipoContenedor
	Padre *ContenedorRef
}

// Nodo is the kind-agnostic view of a container used to walk the hierarchy.
type Nodo struct {
	Ref    ContenedorRef
	Codigo string
	Nombre string
	Padre  *ContenedorRef
}

// Contenedor is implemented by every persisted container model.
type Contenedor interface {
	Nodo() Nodo
}

// ── Exclusive parent of Cajón / Organizador ───────────────────────────────────

// ErrPadreAmbiguo is returned when a row has zero or both mueble parent columns set.
var ErrPadreAmbiguo = errors.New("el contenedor debe tener exactamente un padre")

// PadreMueble is the parent of a Cajón or Organizador: either an Armario or an
// Estantería, never both and never neither.
type PadreMueble interface {
	Ref() ContenedorRef
	isPadreMueble()
}

type EnArmario struct{ ID uuid.UUID }
type EnEstanteria struct{ ID uuid.UUID }

func (p EnArmario) Ref() ContenedorRef    { return ContenedorRef{Tipo: TipoArmario, ID: p.ID} }
func (p EnEstanteria) Ref() ContenedorRef { return ContenedorRef{Tipo: TipoEstanteria, ID: p.ID} }
func (EnArmario) isPadreMueble()          {}
func (EnEstanteria) isPadreMueble()       {}

// NuevoPadreMueble converts a generic reference into the tagged variant.
func NuevoPadreMueble(ref ContenedorRef) (PadreMueble, error) {
	switch ref.Tipo {
	case TipoArmario:
		return EnArmario{ID: ref.ID}, nil
	case TipoEstanteria:
		return EnEstanteria{ID: ref.ID}, nil
	}
	return nil, fmt.Errorf("%s no puede contener cajones ni organizadores", ref.Tipo)
}

// ColumnasMueble is the nullable column pair backing a PadreMueble. It is
// embedded (and exported) so gorm maps both columns onto the owning table.
type ColumnasMueble struct {
	ArmarioID    *uuid.UUID `gorm:"type:uuid;index"`
	EstanteriaID *uuid.UUID `gorm:"type:uuid;index"`
}

func (c ColumnasMueble) padre() (PadreMueble, error) {
	switch {
	case c.ArmarioID != nil && c.EstanteriaID == nil:
		return EnArmario{ID: *c.ArmarioID}, nil
	case c.EstanteriaID != nil && c.ArmarioID == nil:
		return EnEstanteria{ID: *c.EstanteriaID}, nil
	}
	return nil, ErrPadreAmbiguo
}

func (c *ColumnasMueble) set(p PadreMueble) {
	c.ArmarioID, c.EstanteriaID = nil, nil
	id := p.Ref().ID
	switch p.(type) {
	case EnArmario:
		c.ArmarioID = &id
	case EnEstanteria:
		c.EstanteriaID = &id
	}
}

func (c ColumnasMueble) ref() *ContenedorRef {
	p, err := c.padre()
	if err != nil {
		return nil
	}
	r := p.Ref()
	return &r
}
