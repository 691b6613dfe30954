package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"

	"gorm.io/gorm"
)

// maxProfundidad bounds the walk up the hierarchy (it has five levels).
const maxProfundidad = 8

// resolvedorRutas walks containers up to their Ubicacion, memoizing every node
// it loads. One instance serves a single request.
type resolvedorRutas struct {
	repo  repository.JerarquiaRepository
	nodos map[model.ContenedorRef]*model.Nodo
}

func newResolvedorRutas(repo repository.JerarquiaRepository) *resolvedorRutas {
	return &resolvedorRutas{repo: repo, nodos: make(map[model.ContenedorRef]*model.Nodo)}
}

func (r *resolvedorRutas) nodo(ctx context.Context, ref model.ContenedorRef) (*model.Nodo, error) {
	if n, ok := r.nodos[ref]; ok {
		return n, nil
	}
	n, err := r.repo.ObtenerNodo(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, noEncontrado(string(ref.Tipo), ref.ID)
		}
		return nil, err
	}
	r.nodos[ref] = n
	return n, nil
}

// cadena returns the nodes from ref up to the root, leaf first.
func (r *resolvedorRutas) cadena(ctx context.Context, ref model.ContenedorRef) ([]*model.Nodo, error) {
	var out []*model.Nodo
	actual := &ref
	for actual != nil {
		if len(out) >= maxProfundidad {
			return nil, fmt.Errorf("jerarquia demasiado profunda desde %s", ref)
		}
		n, err := r.nodo(ctx, *actual)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if n.Ref.Tipo != model.TipoUbicacion && n.Padre == nil {
			return nil, fmt.Errorf("%s %s: %w", n.Ref.Tipo, n.Codigo, model.ErrPadreAmbiguo)
		}
		actual = n.Padre
	}
	return out, nil
}

// ruta renders the chain top-down, e.g. "Taller > ARM-001 > CAJ-002 > DIV-001".
// The Ubicacion is shown by name, every other container by code.
func (r *resolvedorRutas) ruta(ctx context.Context, ref model.ContenedorRef) (string, error) {
	cadena, err := r.cadena(ctx, ref)
	if err != nil {
		return "", err
	}
	partes := make([]string, 0, len(cadena))
	for i := len(cadena) - 1; i >= 0; i-- {
		n := cadena[i]
		if n.Ref.Tipo == model.TipoUbicacion {
			partes = append(partes, n.Nombre)
			continue
		}
		partes = append(partes, n.Codigo)
	}
	return strings.Join(partes, " > "), nil
}
