package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"
	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyMovimientos struct {
	recibido repository.MovimientoStockFilter
	filas    []model.MovimientoStock
}

func (s *spyMovimientos) Listar(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	s.recibido = f
	return s.filas, int64(len(s.filas)), nil
}

func TestMovimientos_FiltroPorFechas(t *testing.T) {
	repo := &spyMovimientos{}
	svc := service.NewMovimientoService(repo)
	item := uuid.New()

	_, err := svc.Listar(context.Background(), dto.MovimientoFilter{
		ItemTipo: "repuesto", ItemID: item.String(), Desde: "2024-03-01", Hasta: "2024-03-31", Page: 1, Limit: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ItemRepuesto, repo.recibido.ItemTipo)
	assert.Equal(t, &item, repo.recibido.ItemID)
	assert.Nil(t, repo.recibido.AsignacionID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *repo.recibido.Desde)
	// Hasta is inclusive: the repository gets the exclusive upper bound.
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *repo.recibido.Hasta)
}

func TestMovimientos_RangoInvertido(t *testing.T) {
	svc := service.NewMovimientoService(&spyMovimientos{})

	_, err := svc.Listar(context.Background(), dto.MovimientoFilter{Desde: "2024-03-10", Hasta: "2024-03-01", Page: 1, Limit: 50})
	assert.True(t, errors.Is(err, service.ErrValidacion))
}

func TestMovimientos_Respuesta(t *testing.T) {
	usuario := uuid.New()
	repo := &spyMovimientos{filas: []model.MovimientoStock{{
		ID: uuid.New(), ItemTipo: model.ItemRepuesto, ItemID: uuid.New(), AsignacionID: uuid.New(),
		Tipo: model.MovimientoRetiro, Cantidad: -4, StockAnterior: 9, StockNuevo: 5,
		Ubicacion: "Taller > ARM-001", UsuarioID: &usuario,
		CreatedAt: time.Date(2024, 3, 2, 15, 4, 5, 0, time.UTC),
	}}}
	svc := service.NewMovimientoService(repo)

	resp, err := svc.Listar(context.Background(), dto.MovimientoFilter{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 2, resp.Page)
	require.Len(t, resp.Data, 1)
	m := resp.Data[0]
	assert.Equal(t, -4, m.Cantidad)
	assert.Equal(t, "2024-03-02T15:04:05Z", m.CreatedAt)
	require.NotNil(t, m.UsuarioID)
	assert.Equal(t, usuario.String(), *m.UsuarioID)
}
