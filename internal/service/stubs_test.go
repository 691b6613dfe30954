package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory hierarchy ───────────────────────────────────────────────────────

type memJerarquia struct {
	mu           sync.Mutex
	tx           sync.Mutex
	nodos        map[model.ContenedorRef]model.Nodo
	asignaciones map[model.ContenedorRef]map[model.TipoItem]int64
	// antesDeCrear, when set, runs inside CrearVerificado before the recount
	// and may veto the insert.
	antesDeCrear func(n model.Nodo) error
	inserts      int
}

func newMemJerarquia() *memJerarquia {
	return &memJerarquia{
		nodos:        make(map[model.ContenedorRef]model.Nodo),
		asignaciones: make(map[model.ContenedorRef]map[model.TipoItem]int64),
	}
}

func (m *memJerarquia) agregar(tipo model.TipoContenedor, codigo, nombre string, padre *model.ContenedorRef) model.ContenedorRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := model.ContenedorRef{Tipo: tipo, ID: uuid.New()}
	m.nodos[ref] = model.Nodo{Ref: ref, Codigo: codigo, Nombre: nombre, Padre: padre}
	return ref
}

func (m *memJerarquia) marcarAsignaciones(ref model.ContenedorRef, item model.TipoItem, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.asignaciones[ref] == nil {
		m.asignaciones[ref] = make(map[model.TipoItem]int64)
	}
	m.asignaciones[ref][item] = n
}

func (m *memJerarquia) ContarHijos(_ context.Context, padre model.ContenedorRef, hijo model.TipoContenedor) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, nodo := range m.nodos {
		if nodo.Ref.Tipo == hijo && nodo.Padre != nil && *nodo.Padre == padre {
			n++
		}
	}
	return n, nil
}

func (m *memJerarquia) ContarAsignaciones(_ context.Context, ref model.ContenedorRef, item model.TipoItem) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.asignaciones[ref][item], nil
}

func (m *memJerarquia) ObtenerNodo(_ context.Context, ref model.ContenedorRef) (*model.Nodo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodos[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &n, nil
}

func (m *memJerarquia) Listar(_ context.Context, tipo model.TipoContenedor, padre *model.ContenedorRef) ([]model.Nodo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Nodo
	for _, n := range m.nodos {
		if n.Ref.Tipo != tipo {
			continue
		}
		if padre != nil && (n.Padre == nil || *n.Padre != *padre) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	return out, nil
}

func enAlcance(n model.Nodo, a model.Alcance) bool {
	if n.Ref.Tipo != a.Tipo {
		return false
	}
	if a.Tipo.CodigoGlobal() || a.Padre == nil {
		return true
	}
	return n.Padre != nil && *n.Padre == *a.Padre
}

func (m *memJerarquia) Codigos(_ context.Context, a model.Alcance) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, n := range m.nodos {
		if enAlcance(n, a) && strings.HasPrefix(n.Codigo, a.Tipo.Prefijo()+"-") {
			out = append(out, n.Codigo)
		}
	}
	return out, nil
}

func (m *memJerarquia) CodigoExiste(_ context.Context, a model.Alcance, codigo string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodos {
		if enAlcance(n, a) && n.Codigo == codigo {
			return true, nil
		}
	}
	return false, nil
}

// CrearVerificado serializes creations through tx, standing in for the
// parent row lock.
func (m *memJerarquia) CrearVerificado(_ context.Context, c model.Contenedor, verificar func(repository.Conteador) error) error {
	m.tx.Lock()
	defer m.tx.Unlock()
	n := c.Nodo()
	m.mu.Lock()
	m.inserts++
	hook := m.antesDeCrear
	_, padreOK := m.nodos[derefPadre(n.Padre)]
	m.mu.Unlock()
	if n.Padre != nil && !padreOK {
		return gorm.ErrRecordNotFound
	}
	if hook != nil {
		if err := hook(n); err != nil {
			return err
		}
	}
	if verificar != nil {
		if err := verificar(m); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodos[n.Ref] = n
	return nil
}

func derefPadre(p *model.ContenedorRef) model.ContenedorRef {
	if p == nil {
		return model.ContenedorRef{}
	}
	return *p
}

func (m *memJerarquia) EliminarVerificado(_ context.Context, ref model.ContenedorRef, verificar func(repository.Conteador) error) error {
	m.mu.Lock()
	_, ok := m.nodos[ref]
	m.mu.Unlock()
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := verificar(m); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodos, ref)
	return nil
}

// ── In-memory items ───────────────────────────────────────────────────────────

type memItems struct {
	mu           sync.Mutex
	repuestos    map[uuid.UUID]*model.Repuesto
	componentes  map[uuid.UUID]*model.Componente
	asignaciones map[uuid.UUID]model.Asignacion
	movimientos  []model.MovimientoStock
	// errAsignaciones makes Asignaciones fail for one item.
	errAsignaciones map[uuid.UUID]error
	errCrear        error
}

func newMemItems() *memItems {
	return &memItems{
		repuestos:       make(map[uuid.UUID]*model.Repuesto),
		componentes:     make(map[uuid.UUID]*model.Componente),
		asignaciones:    make(map[uuid.UUID]model.Asignacion),
		errAsignaciones: make(map[uuid.UUID]error),
	}
}

func (m *memItems) repuesto(codigo string, minimo int, activo bool) *model.Repuesto {
	r := &model.Repuesto{ID: uuid.New(), Codigo: codigo, Nombre: "Repuesto " + codigo, StockMinimo: minimo, Activo: activo}
	m.repuestos[r.ID] = r
	return r
}

func (m *memItems) componente(cat model.CategoriaComponente, desc string, minimo int) *model.Componente {
	c := &model.Componente{ID: uuid.New(), Categoria: cat, Descripcion: desc, StockMinimo: minimo, Activo: true}
	m.componentes[c.ID] = c
	return c
}

// asignar stores a raw association row, malformed ones included.
func (m *memItems) asignar(tipo model.TipoItem, itemID uuid.UUID, cantidad int, refs ...model.ContenedorRef) uuid.UUID {
	a := model.Asignacion{ID: uuid.New(), ItemTipo: tipo, ItemID: itemID, Cantidad: cantidad, Refs: refs}
	m.asignaciones[a.ID] = a
	return a.ID
}

func (m *memItems) CrearRepuesto(_ context.Context, r *model.Repuesto) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.repuestos {
		if x.Codigo == r.Codigo {
			return gorm.ErrDuplicatedKey
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.repuestos[r.ID] = r
	return nil
}

func (m *memItems) ObtenerRepuesto(_ context.Context, id uuid.UUID) (*model.Repuesto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.repuestos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memItems) ListarRepuestos(_ context.Context, incluirInactivos bool) ([]model.Repuesto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Repuesto
	for _, r := range m.repuestos {
		if r.Activo || incluirInactivos {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	return out, nil
}

func (m *memItems) ActualizarRepuesto(_ context.Context, r *model.Repuesto) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repuestos[r.ID] = r
	return nil
}

func (m *memItems) CrearComponente(_ context.Context, c *model.Componente) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.componentes[c.ID] = c
	return nil
}

func (m *memItems) ObtenerComponente(_ context.Context, id uuid.UUID) (*model.Componente, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.componentes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memItems) ListarComponentes(_ context.Context, incluirInactivos bool) ([]model.Componente, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Componente
	for _, c := range m.componentes {
		if c.Activo || incluirInactivos {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Descripcion < out[j].Descripcion })
	return out, nil
}

func (m *memItems) ActualizarComponente(_ context.Context, c *model.Componente) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.componentes[c.ID] = c
	return nil
}

// Asignaciones returns rows in map order, so callers never see a stable order.
func (m *memItems) Asignaciones(_ context.Context, tipo model.TipoItem, itemID uuid.UUID) ([]model.Asignacion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errAsignaciones[itemID]; err != nil {
		return nil, err
	}
	var out []model.Asignacion
	for _, a := range m.asignaciones {
		if a.ItemTipo == tipo && a.ItemID == itemID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memItems) ObtenerAsignacion(_ context.Context, tipo model.TipoItem, id uuid.UUID) (*model.Asignacion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.asignaciones[id]
	if !ok || a.ItemTipo != tipo {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (m *memItems) CrearAsignacion(_ context.Context, a model.Asignacion, mov *model.MovimientoStock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errCrear != nil {
		return m.errCrear
	}
	m.asignaciones[a.ID] = a
	m.movimientos = append(m.movimientos, *mov)
	return nil
}

func (m *memItems) ActualizarCantidad(_ context.Context, tipo model.TipoItem, id uuid.UUID, cantidad int, mov *model.MovimientoStock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.asignaciones[id]
	if !ok || a.ItemTipo != tipo {
		return gorm.ErrRecordNotFound
	}
	a.Cantidad = cantidad
	m.asignaciones[id] = a
	m.movimientos = append(m.movimientos, *mov)
	return nil
}

func (m *memItems) EliminarAsignacion(_ context.Context, tipo model.TipoItem, id uuid.UUID, mov *model.MovimientoStock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.asignaciones[id]
	if !ok || a.ItemTipo != tipo {
		return gorm.ErrRecordNotFound
	}
	delete(m.asignaciones, id)
	m.movimientos = append(m.movimientos, *mov)
	return nil
}

// ── Alert dispatcher spy ──────────────────────────────────────────────────────

type spyAlertas struct {
	mu       sync.Mutex
	enviadas []dto.AlertaStockPayload
}

func (s *spyAlertas) EnqueueAlertaStock(_ context.Context, p dto.AlertaStockPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enviadas = append(s.enviadas, p)
	return nil
}

// ── Fixture: a small warehouse ────────────────────────────────────────────────

// deposito is "Taller" > ARM-001 > CAJ-001 > DIV-001, plus an organizer with
// one cajoncito hanging from the same armario.
type deposito struct {
	ubicacion, armario, cajon, division, organizador, cajoncito model.ContenedorRef
}

func nuevoDeposito(j *memJerarquia) deposito {
	var d deposito
	d.ubicacion = j.agregar(model.TipoUbicacion, "UBI-001", "Taller", nil)
	d.armario = j.agregar(model.TipoArmario, "ARM-001", "Armario A", &d.ubicacion)
	d.cajon = j.agregar(model.TipoCajon, "CAJ-001", "Cajon 1", &d.armario)
	d.division = j.agregar(model.TipoDivision, "DIV-001", "Division 1", &d.cajon)
	d.organizador = j.agregar(model.TipoOrganizador, "ORG-001", "Organizador", &d.armario)
	d.cajoncito = j.agregar(model.TipoCajoncito, "CJT-001", "Cajoncito 1", &d.organizador)
	return d
}
