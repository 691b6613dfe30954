package handler

import (
	"errors"
	"net/http"

	"github.com/cinsua/masirep-sub002/internal/apierror"
	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type JerarquiaHandler struct{ svc service.JerarquiaService }

func NewJerarquiaHandler(svc service.JerarquiaService) *JerarquiaHandler {
	return &JerarquiaHandler{svc: svc}
}

// Crear returns the creation handler for one container kind; every kind
// shares the request shape.
//
// @Summary Crear contenedor
// @Tags jerarquia
// @Accept json
// @Produce json
// @Param body body dto.CrearContenedorRequest true "Contenedor"
// @Success 201 {object} dto.ContenedorResponse
// @Failure 400 {object} apierror.ValidationError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/{tipo} [post]
func (h *JerarquiaHandler) Crear(tipo model.TipoContenedor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CrearContenedorRequest
		if !bindAndValidate(c, &req) {
			return
		}
		cand, err := service.CandidatoDesde(tipo, req)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := h.svc.Crear(c.Request.Context(), cand)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// Listar lists the containers of a kind, optionally under one parent:
// GET /v1/contenedores/:tipo?padre_tipo=&padre_id=
func (h *JerarquiaHandler) Listar(c *gin.Context) {
	tipo, ok := model.ParseTipoContenedor(c.Param("tipo"))
	if !ok {
		c.JSON(http.StatusBadRequest, apierror.New("Tipo de contenedor invalido"))
		return
	}
	padre, ok := padreDesdeQuery(c, c.Query("padre_tipo"), c.Query("padre_id"))
	if !ok {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), tipo, padre)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SiguienteCodigo previews the next code of a scope without reserving it.
func (h *JerarquiaHandler) SiguienteCodigo(c *gin.Context) {
	var q dto.SiguienteCodigoQuery
	if !bindQuery(c, &q) {
		return
	}
	tipo, ok := model.ParseTipoContenedor(q.Tipo)
	if !ok {
		c.JSON(http.StatusBadRequest, apierror.New("Tipo de contenedor invalido"))
		return
	}
	padre, ok := padreDesdeQuery(c, q.PadreTipo, q.PadreID)
	if !ok {
		return
	}
	codigo, err := h.svc.SiguienteCodigo(c.Request.Context(), tipo, padre)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SiguienteCodigoResponse{Codigo: codigo})
}

// Eliminable reports whether a container is empty, with the blocking tallies.
func (h *JerarquiaHandler) Eliminable(c *gin.Context) {
	ref, ok := parseRef(c)
	if !ok {
		return
	}
	err := h.svc.VerificarEliminacion(c.Request.Context(), ref)
	var bloqueo *service.EliminacionBloqueadaError
	if errors.As(err, &bloqueo) {
		c.JSON(http.StatusOK, dto.EliminableResponse{Eliminable: false, Conteos: bloqueo.Conteos})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EliminableResponse{Eliminable: true, Conteos: map[string]int64{}})
}

func (h *JerarquiaHandler) Eliminar(c *gin.Context) {
	ref, ok := parseRef(c)
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), ref); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *JerarquiaHandler) Ruta(c *gin.Context) {
	ref, ok := parseRef(c)
	if !ok {
		return
	}
	ruta, err := h.svc.Ruta(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RutaResponse{Ruta: ruta})
}

func padreDesdeQuery(c *gin.Context, tipo, id string) (*model.ContenedorRef, bool) {
	if tipo == "" && id == "" {
		return nil, true
	}
	t, ok := model.ParseTipoContenedor(tipo)
	if !ok {
		c.JSON(http.StatusBadRequest, apierror.New("padre_tipo invalido"))
		return nil, false
	}
	pid, err := uuid.Parse(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("padre_id invalido"))
		return nil, false
	}
	return &model.ContenedorRef{Tipo: t, ID: pid}, true
}
