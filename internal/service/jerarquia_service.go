package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// JerarquiaService owns the location hierarchy rules: code generation,
// placement validation and guarded deletion.
type JerarquiaService interface {
	SiguienteCodigo(ctx context.Context, tipo model.TipoContenedor, padre *model.ContenedorRef) (string, error)
	ValidarColocacion(ctx context.Context, c Candidato) (*ColocacionValidada, error)
	Crear(ctx context.Context, c Candidato) (*dto.ContenedorResponse, error)
	Listar(ctx context.Context, tipo model.TipoContenedor, padre *model.ContenedorRef) ([]dto.ContenedorResponse, error)
	Ruta(ctx context.Context, ref model.ContenedorRef) (string, error)
	// VerificarEliminacion returns nil when the container is empty, or an
	// *EliminacionBloqueadaError naming the blocking kinds.
	VerificarEliminacion(ctx context.Context, ref model.ContenedorRef) error
	Eliminar(ctx context.Context, ref model.ContenedorRef) error
}

// Candidato is a container placement request before validation. Padres holds
// every parent reference the caller populated; exactly one is legal for every
// kind but Ubicacion, which takes none.
type Candidato struct {
	Tipo        model.TipoContenedor
	Codigo      string
	Nombre      string
	Descripcion *string
	Padres      []model.ContenedorRef
}

// ColocacionValidada is a placement that passed every rule and can be persisted.
type ColocacionValidada struct {
	Tipo           model.TipoContenedor
	Padre          *model.ContenedorRef
	Codigo         string
	CodigoGenerado bool
	Nombre         string
	Descripcion    *string
}

// JerarquiaConfig holds the tunables of the placement rules.
type JerarquiaConfig struct {
	// MaxReintentos bounds the attempts made when a generated code collides.
	MaxReintentos int
	// LimiteHijos caps how many children of a kind one parent may own.
	LimiteHijos map[model.TipoContenedor]int
}

// DefaultJerarquiaConfig: three attempts, at most 20 Divisiones per Cajon.
func DefaultJerarquiaConfig() JerarquiaConfig {
	return JerarquiaConfig{
		MaxReintentos: 3,
		LimiteHijos:   map[model.TipoContenedor]int{model.TipoDivision: 20},
	}
}

type jerarquiaService struct {
	repo      repository.JerarquiaRepository
	generador *GeneradorCodigos
	cfg       JerarquiaConfig
}

func NewJerarquiaService(repo repository.JerarquiaRepository, cfg JerarquiaConfig) JerarquiaService {
	if cfg.MaxReintentos < 1 {
		cfg.MaxReintentos = 1
	}
	return &jerarquiaService{repo: repo, generador: NewGeneradorCodigos(repo), cfg: cfg}
}

func (s *jerarquiaService) SiguienteCodigo(ctx context.Context, tipo model.TipoContenedor, padre *model.ContenedorRef) (string, error) {
	if !tipo.CodigoGlobal() {
		if padre == nil {
			return "", &ValidacionError{Campo: "padre", Motivo: fmt.Sprintf("los codigos de %s se numeran por padre", tipo)}
		}
		if !tipo.AceptaPadre(padre.Tipo) {
			return "", &ValidacionError{Campo: "padre_tipo", Motivo: fmt.Sprintf("%s no puede contener %s", padre.Tipo, tipo.Plural())}
		}
	}
	return s.generador.Siguiente(ctx, model.Alcance{Tipo: tipo, Padre: padre})
}

// ValidarColocacion applies, in order: exactly one parent, parent exists,
// sibling cap, and code uniqueness (checked after generation).
func (s *jerarquiaService) ValidarColocacion(ctx context.Context, c Candidato) (*ColocacionValidada, error) {
	if strings.TrimSpace(c.Nombre) == "" {
		return nil, &ValidacionError{Campo: "nombre", Motivo: "es obligatorio"}
	}

	// 1. Exactly one parent
	padre, err := padreUnico(c)
	if err != nil {
		return nil, err
	}

	// 2. Parent exists and is of the expected kind
	if padre != nil {
		if _, err := s.repo.ObtenerNodo(ctx, *padre); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, noEncontrado(string(padre.Tipo), padre.ID)
			}
			return nil, err
		}
	}

	// 3. Sibling cap
	if err := s.verificarCapacidad(ctx, s.repo, c.Tipo, padre); err != nil {
		return nil, err
	}

	// 4. Code: generated or supplied, then checked against its scope
	alcance := model.Alcance{Tipo: c.Tipo, Padre: padre}
	v := &ColocacionValidada{
		Tipo: c.Tipo, Padre: padre, Codigo: strings.TrimSpace(c.Codigo),
		Nombre: strings.TrimSpace(c.Nombre), Descripcion: c.Descripcion,
	}
	if v.Codigo == "" {
		codigo, err := s.generador.Siguiente(ctx, alcance)
		if err != nil {
			return nil, err
		}
		v.Codigo, v.CodigoGenerado = codigo, true
	}
	existe, err := s.repo.CodigoExiste(ctx, alcance, v.Codigo)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, &CodigoDuplicadoError{Codigo: v.Codigo, Tipo: c.Tipo}
	}
	return v, nil
}

// verificarCapacidad counts the siblings of kind tipo under padre through c.
// Crear runs it a second time inside the insert transaction.
func (s *jerarquiaService) verificarCapacidad(ctx context.Context, c repository.Conteador, tipo model.TipoContenedor, padre *model.ContenedorRef) error {
	limite, ok := s.cfg.LimiteHijos[tipo]
	if !ok || padre == nil {
		return nil
	}
	n, err := c.ContarHijos(ctx, *padre, tipo)
	if err != nil {
		return err
	}
	if n >= int64(limite) {
		return &CapacidadError{Padre: *padre, Hijo: tipo, Limite: limite, Actual: n}
	}
	return nil
}

func padreUnico(c Candidato) (*model.ContenedorRef, error) {
	if c.Tipo == model.TipoUbicacion {
		if len(c.Padres) > 0 {
			return nil, &ValidacionError{Campo: "padre", Motivo: "una ubicacion no tiene padre"}
		}
		return nil, nil
	}
	if len(c.Padres) != 1 {
		return nil, &ValidacionError{
			Campo:  "padre",
			Motivo: fmt.Sprintf("se requiere exactamente un padre para %s, recibidos %d", c.Tipo, len(c.Padres)),
		}
	}
	p := c.Padres[0]
	if !c.Tipo.AceptaPadre(p.Tipo) {
		return nil, &ValidacionError{Campo: "padre", Motivo: fmt.Sprintf("%s no puede contener %s", p.Tipo, c.Tipo.Plural())}
	}
	return &p, nil
}

// Crear validates and persists a container. Code generation is optimistic:
// when a generated code collides (in validation or at write time through the
// unique index) the whole placement is retried up to MaxReintentos times.
// A collision on a user-supplied code is returned at once.
func (s *jerarquiaService) Crear(ctx context.Context, c Candidato) (*dto.ContenedorResponse, error) {
	for intento := 1; ; intento++ {
		v, err := s.ValidarColocacion(ctx, c)
		if err == nil {
			var cont model.Contenedor
			cont, err = model.NuevoContenedor(v.Tipo, v.Padre, v.Codigo, v.Nombre, v.Descripcion)
			if err != nil {
				return nil, &ValidacionError{Campo: "padre", Motivo: err.Error()}
			}
			err = s.repo.CrearVerificado(ctx, cont, func(tx repository.Conteador) error {
				return s.verificarCapacidad(ctx, tx, v.Tipo, v.Padre)
			})
			if err == nil {
				resp := contenedorToResponse(cont.Nodo(), v.Descripcion)
				resp.Ruta, _ = s.Ruta(ctx, cont.Nodo().Ref)
				return &resp, nil
			}
			switch {
			case errors.Is(err, gorm.ErrDuplicatedKey):
				err = &CodigoDuplicadoError{Codigo: v.Codigo, Tipo: v.Tipo}
			case errors.Is(err, gorm.ErrRecordNotFound) && v.Padre != nil:
				err = noEncontrado(string(v.Padre.Tipo), v.Padre.ID)
			}
		}
		if !errors.Is(err, ErrCodigoDuplicado) || c.Codigo != "" || intento >= s.cfg.MaxReintentos {
			return nil, err
		}
		log.Warn().
			Str("tipo", string(c.Tipo)).
			Int("intento", intento).
			Err(err).
			Msg("codigo generado en uso, reintentando")
	}
}

func (s *jerarquiaService) Listar(ctx context.Context, tipo model.TipoContenedor, padre *model.ContenedorRef) ([]dto.ContenedorResponse, error) {
	if padre != nil && !tipo.AceptaPadre(padre.Tipo) {
		return nil, &ValidacionError{Campo: "padre_tipo", Motivo: fmt.Sprintf("%s no puede contener %s", padre.Tipo, tipo.Plural())}
	}
	nodos, err := s.repo.Listar(ctx, tipo, padre)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ContenedorResponse, 0, len(nodos))
	for _, n := range nodos {
		out = append(out, contenedorToResponse(n, nil))
	}
	return out, nil
}

func (s *jerarquiaService) Ruta(ctx context.Context, ref model.ContenedorRef) (string, error) {
	return newResolvedorRutas(s.repo).ruta(ctx, ref)
}

// ── Deletion guard ───────────────────────────────────────────────────────────

func (s *jerarquiaService) VerificarEliminacion(ctx context.Context, ref model.ContenedorRef) error {
	if _, err := s.repo.ObtenerNodo(ctx, ref); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return noEncontrado(string(ref.Tipo), ref.ID)
		}
		return err
	}
	return verificarVacio(ctx, s.repo, ref)
}

// Eliminar removes a single container row. The emptiness check runs again
// inside the delete transaction; nothing ever cascades.
func (s *jerarquiaService) Eliminar(ctx context.Context, ref model.ContenedorRef) error {
	err := s.repo.EliminarVerificado(ctx, ref, func(c repository.Conteador) error {
		return verificarVacio(ctx, c, ref)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return noEncontrado(string(ref.Tipo), ref.ID)
	}
	if err != nil {
		return err
	}
	log.Info().Str("tipo", string(ref.Tipo)).Str("id", ref.ID.String()).Msg("contenedor eliminado")
	return nil
}

// verificarVacio tallies every child kind and every item association the
// container can own, one independent count each.
func verificarVacio(ctx context.Context, c repository.Conteador, ref model.ContenedorRef) error {
	conteos := make(map[string]int64)
	for _, hijo := range ref.Tipo.Hijos() {
		n, err := c.ContarHijos(ctx, ref, hijo)
		if err != nil {
			return fmt.Errorf("contar %s: %w", hijo.Plural(), err)
		}
		if n > 0 {
			conteos[hijo.Plural()] = n
		}
	}
	for _, item := range ref.Tipo.Items() {
		n, err := c.ContarAsignaciones(ctx, ref, item)
		if err != nil {
			return fmt.Errorf("contar %s: %w", item.Plural(), err)
		}
		if n > 0 {
			conteos[item.Plural()] = n
		}
	}
	if len(conteos) > 0 {
		return &EliminacionBloqueadaError{Ref: ref, Conteos: conteos}
	}
	return nil
}

func contenedorToResponse(n model.Nodo, descripcion *string) dto.ContenedorResponse {
	resp := dto.ContenedorResponse{
		ID:          n.Ref.ID.String(),
		Tipo:        string(n.Ref.Tipo),
		Codigo:      n.Codigo,
		Nombre:      n.Nombre,
		Descripcion: descripcion,
	}
	if n.Padre != nil {
		resp.Padre = &dto.RefResponse{Tipo: string(n.Padre.Tipo), ID: n.Padre.ID.String()}
	}
	return resp
}

// CandidatoDesde maps the shared creation request onto a Candidato, keeping
// every populated parent field so the validator can reject ambiguous input.
func CandidatoDesde(tipo model.TipoContenedor, req dto.CrearContenedorRequest) (Candidato, error) {
	c := Candidato{Tipo: tipo, Nombre: req.Nombre, Descripcion: req.Descripcion}
	if req.Codigo != nil {
		c.Codigo = *req.Codigo
	}
	campos := []struct {
		tipo  model.TipoContenedor
		valor *string
	}{
		{model.TipoUbicacion, req.UbicacionID},
		{model.TipoArmario, req.ArmarioID},
		{model.TipoEstanteria, req.EstanteriaID},
		{model.TipoCajon, req.CajonID},
		{model.TipoOrganizador, req.OrganizadorID},
	}
	for _, f := range campos {
		if f.valor == nil || strings.TrimSpace(*f.valor) == "" {
			continue
		}
		id, err := uuid.Parse(*f.valor)
		if err != nil {
			return Candidato{}, &ValidacionError{Campo: f.tipo.ColumnaRef(), Motivo: "uuid invalido"}
		}
		c.Padres = append(c.Padres, model.ContenedorRef{Tipo: f.tipo, ID: id})
	}
	return c, nil
}
