package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cinsua/masirep-sub002/internal/model"
)

// Error kinds returned by the inventory core. Handlers match them with
// errors.Is; the typed errors below carry the structured detail.
var (
	ErrNoEncontrado         = errors.New("no encontrado")
	ErrValidacion           = errors.New("error de validacion")
	ErrCodigoDuplicado      = errors.New("codigo duplicado")
	ErrCapacidadExcedida    = errors.New("capacidad excedida")
	ErrEliminacionBloqueada = errors.New("eliminacion bloqueada")
	ErrAsignacionMalformada = errors.New("asignacion malformada")
)

// NoEncontradoError reports a missing (or filtered out) item or container.
type NoEncontradoError struct {
	Recurso string
	ID      string
}

func (e *NoEncontradoError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Recurso, e.ID)
}

func (e *NoEncontradoError) Is(target error) bool { return target == ErrNoEncontrado }

// ValidacionError reports a shape violation on a single field.
type ValidacionError struct {
	Campo  string
	Motivo string
}

func (e *ValidacionError) Error() string { return e.Campo + ": " + e.Motivo }

func (e *ValidacionError) Is(target error) bool { return target == ErrValidacion }

// CodigoDuplicadoError reports a code collision inside its uniqueness scope.
type CodigoDuplicadoError struct {
	Codigo string
	Tipo   model.TipoContenedor
}

func (e *CodigoDuplicadoError) Error() string {
	return fmt.Sprintf("ya existe un %s con el codigo %s", e.Tipo, e.Codigo)
}

func (e *CodigoDuplicadoError) Is(target error) bool { return target == ErrCodigoDuplicado }

// CapacidadError reports that a parent already holds its maximum of children.
type CapacidadError struct {
	Padre  model.ContenedorRef
	Hijo   model.TipoContenedor
	Limite int
	Actual int64
}

func (e *CapacidadError) Error() string {
	return fmt.Sprintf("el %s ya tiene %d %s (maximo %d)", e.Padre.Tipo, e.Actual, e.Hijo.Plural(), e.Limite)
}

func (e *CapacidadError) Is(target error) bool { return target == ErrCapacidadExcedida }

// EliminacionBloqueadaError lists the non-zero child tallies that prevent a
// container from being deleted.
type EliminacionBloqueadaError struct {
	Ref     model.ContenedorRef
	Conteos map[string]int64
}

func (e *EliminacionBloqueadaError) Error() string {
	return fmt.Sprintf("no se puede eliminar el %s: %s", e.Ref.Tipo, e.Motivo())
}

// Motivo renders the blocking kinds in a stable order, e.g. "contiene 2 cajones, 1 repuestos".
func (e *EliminacionBloqueadaError) Motivo() string {
	claves := make([]string, 0, len(e.Conteos))
	for k := range e.Conteos {
		claves = append(claves, k)
	}
	sort.Strings(claves)
	partes := make([]string, 0, len(claves))
	for _, k := range claves {
		partes = append(partes, fmt.Sprintf("%d %s", e.Conteos[k], k))
	}
	return "contiene " + strings.Join(partes, ", ")
}

func (e *EliminacionBloqueadaError) Is(target error) bool { return target == ErrEliminacionBloqueada }

func noEncontrado(recurso string, id fmt.Stringer) error {
	return &NoEncontradoError{Recurso: recurso, ID: id.String()}
}
