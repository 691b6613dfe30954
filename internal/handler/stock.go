package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/cinsua/masirep-sub002/internal/apierror"
	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/infra"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type StockHandler struct {
	svc         service.StockService
	movimientos service.MovimientoService
}

func NewStockHandler(svc service.StockService, movimientos service.MovimientoService) *StockHandler {
	return &StockHandler{svc: svc, movimientos: movimientos}
}

// Obtener godoc
// @Summary Stock de un item
// @Tags stock
// @Produce json
// @Param tipo path string true "repuesto | componente"
// @Param id path string true "ID del item"
// @Param incluir_inactivos query bool false "Incluir items inactivos"
// @Param incluir_ceros query bool false "Incluir asignaciones sin cantidad"
// @Success 200 {object} dto.StockResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/stock/{tipo}/{id} [get]
func (h *StockHandler) Obtener(c *gin.Context) {
	tipo, ok := model.ParseTipoItem(c.Param("tipo"))
	if !ok {
		c.JSON(http.StatusBadRequest, apierror.New("Tipo de item invalido"))
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var opts dto.StockOptions
	if !bindQuery(c, &opts) {
		return
	}
	resp, err := h.svc.Calcular(c.Request.Context(), tipo, id, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) Recalcular(c *gin.Context) {
	var req dto.RecalcularStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecalcularTodo(c.Request.Context(), req.Tipo, req.StockOptions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) Bajo(c *gin.Context) {
	var opts dto.StockOptions
	if !bindQuery(c, &opts) {
		return
	}
	resp, err := h.svc.StockBajo(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BajoPDF streams the low-stock report as an attachment.
func (h *StockHandler) BajoPDF(c *gin.Context) {
	var opts dto.StockOptions
	if !bindQuery(c, &opts) {
		return
	}
	items, err := h.svc.StockBajo(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	ahora := time.Now()
	var buf bytes.Buffer
	if err := infra.GenerarReporteStockBajo(&buf, items, ahora); err != nil {
		log.Error().Err(err).Msg("pdf: reporte stock bajo")
		c.JSON(http.StatusInternalServerError, apierror.New("Error al generar el PDF"))
		return
	}
	nombre := fmt.Sprintf("stock_bajo_%s.pdf", ahora.Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+nombre+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *StockHandler) Movimientos(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.movimientos.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
