package repository

import (
	"context"
	"fmt"

	"github.com/cinsua/masirep-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Conteador answers the independent per-kind tallies the deletion guard needs.
type Conteador interface {
	// ContarHijos counts direct children of kind hijo owned by padre.
	ContarHijos(ctx context.Context, padre model.ContenedorRef, hijo model.TipoContenedor) (int64, error)
	// ContarAsignaciones counts item-location rows of kind item pointing at ref.
	ContarAsignaciones(ctx context.Context, ref model.ContenedorRef, item model.TipoItem) (int64, error)
}

// JerarquiaRepository is the data access contract for the six-level location
// hierarchy. Every container kind goes through the same methods; the kind
// table in model decides tables and columns.
type JerarquiaRepository interface {
	Conteador

	ObtenerNodo(ctx context.Context, ref model.ContenedorRef) (*model.Nodo, error)
	Listar(ctx context.Context, tipo model.TipoContenedor, padre *model.ContenedorRef) ([]model.Nodo, error)

	// Codigos returns the codes already used in the scope that start with the
	// scope kind's prefix.
	Codigos(ctx context.Context, alcance model.Alcance) ([]string, error)
	CodigoExiste(ctx context.Context, alcance model.Alcance, codigo string) (bool, error)

	// CrearVerificado locks the parent row, runs verificar against the same
	// transaction and inserts c only when it returns nil. A missing parent is
	// gorm.ErrRecordNotFound; a unique violation on codigo surfaces as
	// gorm.ErrDuplicatedKey.
	CrearVerificado(ctx context.Context, c model.Contenedor, verificar func(Conteador) error) error

	// EliminarVerificado locks the container row, runs verificar against the
	// same transaction and deletes the single row only when it returns nil.
	EliminarVerificado(ctx context.Context, ref model.ContenedorRef, verificar func(Conteador) error) error
}

type jerarquiaRepo struct{ db *gorm.DB }

func NewJerarquiaRepository(db *gorm.DB) JerarquiaRepository { return &jerarquiaRepo{db: db} }

func (r *jerarquiaRepo) ContarHijos(ctx context.Context, padre model.ContenedorRef, hijo model.TipoContenedor) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(hijo.Tabla()).
		Where(padre.Tipo.ColumnaRef()+" = ?", padre.ID).
		Count(&n).Error
	return n, err
}

func (r *jerarquiaRepo) ContarAsignaciones(ctx context.Context, ref model.ContenedorRef, item model.TipoItem) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(item.TablaAsignaciones()).
		Where(ref.Tipo.ColumnaRef()+" = ?", ref.ID).
		Count(&n).Error
	return n, err
}

func (r *jerarquiaRepo) ObtenerNodo(ctx context.Context, ref model.ContenedorRef) (*model.Nodo, error) {
	db := r.db.WithContext(ctx)
	switch ref.Tipo {
	case model.TipoUbicacion:
		return obtener[model.Ubicacion](db, ref.ID)
	case model.TipoArmario:
		return obtener[model.Armario](db, ref.ID)
	case model.TipoEstanteria:
		return obtener[model.Estanteria](db, ref.ID)
	case model.TipoEstante:
		return obtener[model.Estante](db, ref.ID)
	case model.TipoCajon:
		return obtener[model.Cajon](db, ref.ID)
	case model.TipoDivision:
		return obtener[model.Division](db, ref.ID)
	case model.TipoOrganizador:
		return obtener[model.Organizador](db, ref.ID)
	case model.TipoCajoncito:
		return obtener[model.Cajoncito](db, ref.ID)
	}
	return nil, fmt.Errorf("tipo de contenedor desconocido %q", ref.Tipo)
}

func (r *jerarquiaRepo) Listar(ctx context.Context, tipo model.TipoContenedor, padre *model.ContenedorRef) ([]model.Nodo, error) {
	q := r.db.WithContext(ctx).Order("codigo ASC")
	if padre != nil {
		q = q.Where(padre.Tipo.ColumnaRef()+" = ?", padre.ID)
	}
	switch tipo {
	case model.TipoUbicacion:
		return listar[model.Ubicacion](q)
	case model.TipoArmario:
		return listar[model.Armario](q)
	case model.TipoEstanteria:
		return listar[model.Estanteria](q)
	case model.TipoEstante:
		return listar[model.Estante](q)
	case model.TipoCajon:
		return listar[model.Cajon](q)
	case model.TipoDivision:
		return listar[model.Division](q)
	case model.TipoOrganizador:
		return listar[model.Organizador](q)
	case model.TipoCajoncito:
		return listar[model.Cajoncito](q)
	}
	return nil, fmt.Errorf("tipo de contenedor desconocido %q", tipo)
}

func (r *jerarquiaRepo) alcance(ctx context.Context, a model.Alcance) *gorm.DB {
	q := r.db.WithContext(ctx).Table(a.Tipo.Tabla())
	if !a.Tipo.CodigoGlobal() && a.Padre != nil {
		q = q.Where(a.Padre.Tipo.ColumnaRef()+" = ?", a.Padre.ID)
	}
	return q
}

func (r *jerarquiaRepo) Codigos(ctx context.Context, a model.Alcance) ([]string, error) {
	var codigos []string
	err := r.alcance(ctx, a).
		Where("codigo LIKE ?", a.Tipo.Prefijo()+"-%").
		Pluck("codigo", &codigos).Error
	return codigos, err
}

func (r *jerarquiaRepo) CodigoExiste(ctx context.Context, a model.Alcance, codigo string) (bool, error) {
	var n int64
	err := r.alcance(ctx, a).Where("codigo = ?", codigo).Count(&n).Error
	return n > 0, err
}

func (r *jerarquiaRepo) CrearVerificado(ctx context.Context, c model.Contenedor, verificar func(Conteador) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Concurrent creations under the same parent queue on this lock, so
		// the sibling tally below cannot go stale before the insert.
		if padre := c.Nodo().Padre; padre != nil {
			if err := bloquear(tx, *padre); err != nil {
				return err
			}
		}
		if verificar != nil {
			if err := verificar(&jerarquiaRepo{db: tx}); err != nil {
				return err
			}
		}
		return tx.Create(c).Error
	})
}

// bloquear takes a FOR UPDATE lock on the container row.
func bloquear(tx *gorm.DB, ref model.ContenedorRef) error {
	var ids []uuid.UUID
	if err := tx.Table(ref.Tipo.Tabla()).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", ref.ID).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *jerarquiaRepo) EliminarVerificado(ctx context.Context, ref model.ContenedorRef, verificar func(Conteador) error) error {
	tabla := ref.Tipo.Tabla()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// FOR UPDATE conflicts with the KEY SHARE lock a concurrent child
		// insert takes through its foreign key, so no placement can slip in
		// between the tallies and the delete.
		if err := bloquear(tx, ref); err != nil {
			return err
		}
		if err := verificar(&jerarquiaRepo{db: tx}); err != nil {
			return err
		}
		return tx.Exec("DELETE FROM "+tabla+" WHERE id = ?", ref.ID).Error
	})
}

// contenedorPtr constrains T so that *T is a container model.
type contenedorPtr[T any] interface {
	*T
	model.Contenedor
}

func obtener[T any, P contenedorPtr[T]](db *gorm.DB, id uuid.UUID) (*model.Nodo, error) {
	var v T
	if err := db.First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	n := P(&v).Nodo()
	return &n, nil
}

func listar[T any, P contenedorPtr[T]](db *gorm.DB) ([]model.Nodo, error) {
	var rows []T
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	nodos := make([]model.Nodo, 0, len(rows))
	for i := range rows {
		nodos = append(nodos, P(&rows[i]).Nodo())
	}
	return nodos, nil
}
