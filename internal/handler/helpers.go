package handler

import (
	"errors"
	"net/http"

	"github.com/cinsua/masirep-sub002/internal/apierror"
	"github.com/cinsua/masirep-sub002/internal/middleware"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range ves {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// parseRef reads /:tipo/:id into a container reference.
func parseRef(c *gin.Context) (model.ContenedorRef, bool) {
	tipo, ok := model.ParseTipoContenedor(c.Param("tipo"))
	if !ok {
		c.JSON(http.StatusBadRequest, apierror.New("Tipo de contenedor invalido"))
		return model.ContenedorRef{}, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return model.ContenedorRef{}, false
	}
	return model.ContenedorRef{Tipo: tipo, ID: id}, true
}

// respondError maps the core error kinds to HTTP statuses:
// NotFound → 404, Validation → 400, DuplicateCode / CapacityExceeded /
// DeletionBlocked → 409. Anything else is logged and answered with a 500.
func respondError(c *gin.Context, err error) {
	var (
		bloqueo    *service.EliminacionBloqueadaError
		validacion *service.ValidacionError
	)
	switch {
	case errors.As(err, &bloqueo):
		c.JSON(http.StatusConflict, apierror.NewBloqueo(bloqueo.Error(), bloqueo.Conteos))
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.As(err, &validacion):
		c.JSON(http.StatusBadRequest, apierror.NewValidation(map[string]string{validacion.Campo: validacion.Motivo}))
	case errors.Is(err, service.ErrCodigoDuplicado), errors.Is(err, service.ErrCapacidadExcedida):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("unhandled service error")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
