package handler

import (
	"net/http"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/middleware"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

type ItemsHandler struct {
	svc          service.ItemService
	asignaciones service.AsignacionService
}

func NewItemsHandler(svc service.ItemService, asignaciones service.AsignacionService) *ItemsHandler {
	return &ItemsHandler{svc: svc, asignaciones: asignaciones}
}

// ── Repuestos ────────────────────────────────────────────────────────────────

func (h *ItemsHandler) CrearRepuesto(c *gin.Context) {
	var req dto.CrearRepuestoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearRepuesto(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ItemsHandler) ListarRepuestos(c *gin.Context) {
	resp, err := h.svc.ListarRepuestos(c.Request.Context(), c.Query("incluir_inactivos") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemsHandler) ObtenerRepuesto(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerRepuesto(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemsHandler) ActualizarRepuesto(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarRepuestoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarRepuesto(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Componentes ──────────────────────────────────────────────────────────────

func (h *ItemsHandler) CrearComponente(c *gin.Context) {
	var req dto.CrearComponenteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearComponente(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ItemsHandler) ListarComponentes(c *gin.Context) {
	resp, err := h.svc.ListarComponentes(c.Request.Context(), c.Query("incluir_inactivos") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemsHandler) ActualizarComponente(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarComponenteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarComponente(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Ubicaciones de items ─────────────────────────────────────────────────────

// Asignar places a quantity of the item kind in one container:
// POST /v1/repuestos/:id/ubicaciones, POST /v1/componentes/:id/ubicaciones
func (h *ItemsHandler) Asignar(tipo model.TipoItem) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req dto.AsignarUbicacionRequest
		if !bindAndValidate(c, &req) {
			return
		}
		resp, err := h.asignaciones.Asignar(c.Request.Context(), tipo, id, req, middleware.UsuarioID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func (h *ItemsHandler) ListarAsignaciones(tipo model.TipoItem) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		resp, err := h.asignaciones.Listar(c.Request.Context(), tipo, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *ItemsHandler) ActualizarCantidad(tipo model.TipoItem) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "asignacion_id")
		if !ok {
			return
		}
		var req dto.ActualizarCantidadRequest
		if !bindAndValidate(c, &req) {
			return
		}
		resp, err := h.asignaciones.ActualizarCantidad(c.Request.Context(), tipo, id, req, middleware.UsuarioID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *ItemsHandler) Retirar(tipo model.TipoItem) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "asignacion_id")
		if !ok {
			return
		}
		if err := h.asignaciones.Retirar(c.Request.Context(), tipo, id, middleware.UsuarioID(c)); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ── Equipos ──────────────────────────────────────────────────────────────────

type EquiposHandler struct{ svc service.EquipoService }

func NewEquiposHandler(svc service.EquipoService) *EquiposHandler {
	return &EquiposHandler{svc: svc}
}

func (h *EquiposHandler) Crear(c *gin.Context) {
	var req dto.CrearEquipoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *EquiposHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EquiposHandler) Vincular(c *gin.Context) {
	equipoID, ok := parseID(c, "id")
	if !ok {
		return
	}
	repuestoID, ok := parseID(c, "repuesto_id")
	if !ok {
		return
	}
	if err := h.svc.Vincular(c.Request.Context(), equipoID, repuestoID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EquiposHandler) Desvincular(c *gin.Context) {
	equipoID, ok := parseID(c, "id")
	if !ok {
		return
	}
	repuestoID, ok := parseID(c, "repuesto_id")
	if !ok {
		return
	}
	if err := h.svc.Desvincular(c.Request.Context(), equipoID, repuestoID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EquiposHandler) Repuestos(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.RepuestosCompatibles(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
