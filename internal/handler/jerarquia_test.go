package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/handler"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJerarquia answers every call with err, or a fixed container when err is nil.
type stubJerarquia struct {
	err      error
	recibido service.Candidato
}

func (s *stubJerarquia) SiguienteCodigo(_ context.Context, _ model.TipoContenedor, _ *model.ContenedorRef) (string, error) {
	return "CAJ-003", s.err
}

func (s *stubJerarquia) ValidarColocacion(_ context.Context, _ service.Candidato) (*service.ColocacionValidada, error) {
	return nil, s.err
}

func (s *stubJerarquia) Crear(_ context.Context, c service.Candidato) (*dto.ContenedorResponse, error) {
	s.recibido = c
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ContenedorResponse{ID: uuid.NewString(), Tipo: string(c.Tipo), Codigo: "UBI-001", Nombre: c.Nombre, Ruta: c.Nombre}, nil
}

func (s *stubJerarquia) Listar(_ context.Context, _ model.TipoContenedor, _ *model.ContenedorRef) ([]dto.ContenedorResponse, error) {
	return []dto.ContenedorResponse{}, s.err
}

func (s *stubJerarquia) Ruta(_ context.Context, _ model.ContenedorRef) (string, error) {
	return "Taller > ARM-001", s.err
}

func (s *stubJerarquia) VerificarEliminacion(_ context.Context, _ model.ContenedorRef) error {
	return s.err
}

func (s *stubJerarquia) Eliminar(_ context.Context, _ model.ContenedorRef) error {
	return s.err
}

func jerarquiaRouter(svc service.JerarquiaService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewJerarquiaHandler(svc)
	r.POST("/ubicaciones", h.Crear(model.TipoUbicacion))
	r.POST("/cajones", h.Crear(model.TipoCajon))
	r.GET("/codigos/siguiente", h.SiguienteCodigo)
	r.GET("/contenedores/:tipo/:id/eliminable", h.Eliminable)
	r.GET("/contenedores/:tipo/:id/ruta", h.Ruta)
	r.DELETE("/contenedores/:tipo/:id", h.Eliminar)
	return r
}

func TestCrear_MapeoDeErrores(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusCreated},
		{"padre inexistente", &service.NoEncontradoError{Recurso: "armario", ID: "x"}, http.StatusNotFound},
		{"validacion", &service.ValidacionError{Campo: "padre", Motivo: "requerido"}, http.StatusBadRequest},
		{"duplicado", &service.CodigoDuplicadoError{Codigo: "UBI-001", Tipo: model.TipoUbicacion}, http.StatusConflict},
		{"capacidad", &service.CapacidadError{Hijo: model.TipoDivision, Limite: 20, Actual: 20}, http.StatusConflict},
		{"inesperado", errors.New("db caida"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := jerarquiaRouter(&stubJerarquia{err: tc.err})
			w := doJSON(r, http.MethodPost, "/ubicaciones", dto.CrearContenedorRequest{Nombre: "Taller"}, "")
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCrear_SinNombre_422(t *testing.T) {
	r := jerarquiaRouter(&stubJerarquia{})

	w := doJSON(r, http.MethodPost, "/ubicaciones", dto.CrearContenedorRequest{}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCrear_PropagaPadres(t *testing.T) {
	stub := &stubJerarquia{}
	r := jerarquiaRouter(stub)
	armario := uuid.NewString()

	w := doJSON(r, http.MethodPost, "/cajones", dto.CrearContenedorRequest{Nombre: "Tornillos", ArmarioID: &armario}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, model.TipoCajon, stub.recibido.Tipo)
	require.Len(t, stub.recibido.Padres, 1)
	assert.Equal(t, model.TipoArmario, stub.recibido.Padres[0].Tipo)
	assert.Equal(t, armario, stub.recibido.Padres[0].ID.String())
}

func TestEliminar_Bloqueado_409ConConteos(t *testing.T) {
	bloqueo := &service.EliminacionBloqueadaError{
		Ref:     model.ContenedorRef{Tipo: model.TipoArmario, ID: uuid.New()},
		Conteos: map[string]int64{"cajones": 2, "repuestos": 1},
	}
	r := jerarquiaRouter(&stubJerarquia{err: bloqueo})

	w := doJSON(r, http.MethodDelete, "/contenedores/armario/"+uuid.NewString(), nil, "")
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Detail   string           `json:"detail"`
		Bloqueos map[string]int64 `json:"bloqueos"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]int64{"cajones": 2, "repuestos": 1}, body.Bloqueos)
	assert.Contains(t, body.Detail, "contiene 2 cajones, 1 repuestos")
}

func TestEliminar_Vacio_204(t *testing.T) {
	r := jerarquiaRouter(&stubJerarquia{})

	w := doJSON(r, http.MethodDelete, "/contenedores/cajon/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEliminar_TipoInvalido_400(t *testing.T) {
	r := jerarquiaRouter(&stubJerarquia{})

	w := doJSON(r, http.MethodDelete, "/contenedores/caja/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodDelete, "/contenedores/cajon/no-es-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEliminable_InformaConteos(t *testing.T) {
	bloqueo := &service.EliminacionBloqueadaError{Conteos: map[string]int64{"divisiones": 3}}
	r := jerarquiaRouter(&stubJerarquia{err: bloqueo})

	w := doJSON(r, http.MethodGet, "/contenedores/cajon/"+uuid.NewString()+"/eliminable", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.EliminableResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Eliminable)
	assert.Equal(t, int64(3), resp.Conteos["divisiones"])

	r = jerarquiaRouter(&stubJerarquia{})
	w = doJSON(r, http.MethodGet, "/contenedores/cajon/"+uuid.NewString()+"/eliminable", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Eliminable)
}

func TestSiguienteCodigo_Query(t *testing.T) {
	r := jerarquiaRouter(&stubJerarquia{})

	w := doJSON(r, http.MethodGet, "/codigos/siguiente?tipo=cajon&padre_tipo=armario&padre_id="+uuid.NewString(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.SiguienteCodigoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CAJ-003", resp.Codigo)

	w = doJSON(r, http.MethodGet, "/codigos/siguiente", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodGet, "/codigos/siguiente?tipo=cajon&padre_tipo=galpon&padre_id="+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuta_NoEncontrado(t *testing.T) {
	r := jerarquiaRouter(&stubJerarquia{err: &service.NoEncontradoError{Recurso: "division", ID: "x"}})

	w := doJSON(r, http.MethodGet, "/contenedores/division/"+uuid.NewString()+"/ruta", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
