package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/stretchr/testify/assert"
)

// stockBajoFijo answers StockBajo; the embedded interface covers the rest.
type stockBajoFijo struct {
	service.StockService
	items []dto.StockBajoResponse
	err   error
}

func (s stockBajoFijo) StockBajo(context.Context, dto.StockOptions) ([]dto.StockBajoResponse, error) {
	return s.items, s.err
}

type encoladorSpy struct{ reportes [][]dto.StockBajoResponse }

func (e *encoladorSpy) EnqueueReporteStock(_ context.Context, items []dto.StockBajoResponse) error {
	e.reportes = append(e.reportes, items)
	return nil
}

func TestGenerarReporte_EncolaSoloConItems(t *testing.T) {
	spy := &encoladorSpy{}
	items := []dto.StockBajoResponse{{StockResponse: dto.StockResponse{Codigo: "REP-001"}}}

	err := generarReporte(context.Background(), ReporteCronConfig{Stock: stockBajoFijo{items: items}, Dispatcher: spy})
	assert.NoError(t, err)
	assert.Equal(t, [][]dto.StockBajoResponse{items}, spy.reportes)

	err = generarReporte(context.Background(), ReporteCronConfig{Stock: stockBajoFijo{}, Dispatcher: spy})
	assert.NoError(t, err)
	assert.Len(t, spy.reportes, 1)
}

func TestGenerarReporte_PropagaError(t *testing.T) {
	spy := &encoladorSpy{}
	boom := errors.New("db caida")

	err := generarReporte(context.Background(), ReporteCronConfig{Stock: stockBajoFijo{err: boom}, Dispatcher: spy})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, spy.reportes)
}
