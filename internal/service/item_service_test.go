package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrearRepuesto_CodigoDuplicado(t *testing.T) {
	items := newMemItems()
	items.repuesto("REP-001", 0, true)
	svc := service.NewItemService(items, newStock(items, newMemJerarquia()))

	_, err := svc.CrearRepuesto(context.Background(), dto.CrearRepuestoRequest{Codigo: "REP-001", Nombre: "Otro"})
	var verr *service.ValidacionError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "codigo", verr.Campo)
}

func TestActualizarRepuesto_CambiaMinimoYEstado(t *testing.T) {
	items := newMemItems()
	r := items.repuesto("REP-001", 2, true)
	svc := service.NewItemService(items, newStock(items, newMemJerarquia()))
	minimo, activo := 7, false

	resp, err := svc.ActualizarRepuesto(context.Background(), r.ID, dto.ActualizarRepuestoRequest{StockMinimo: &minimo, Activo: &activo})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.StockMinimo)
	assert.False(t, resp.Activo)

	lista, err := svc.ListarRepuestos(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, lista)
}

func TestActualizarComponente_Inexistente(t *testing.T) {
	items := newMemItems()
	svc := service.NewItemService(items, newStock(items, newMemJerarquia()))

	_, err := svc.ActualizarComponente(context.Background(), uuid.New(), dto.ActualizarComponenteRequest{})
	assert.True(t, errors.Is(err, service.ErrNoEncontrado))
}
