package infra

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cinsua/masirep-sub002/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerarReporteStockBajo(t *testing.T) {
	items := []dto.StockBajoResponse{
		{
			StockResponse: dto.StockResponse{ItemTipo: "repuesto", Codigo: "REP-001", Nombre: "Rodamiento 6204", StockActual: 1, StockMinimo: 4},
			Faltante:      3,
			Cobertura:     decimal.NewFromInt(25),
		},
		{
			StockResponse: dto.StockResponse{ItemTipo: "componente", Codigo: "CAPACITOR 100uF", Nombre: "Electrolitico de 100 µF", StockActual: 0, StockMinimo: 10},
			Faltante:      10,
			Cobertura:     decimal.Zero,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, GenerarReporteStockBajo(&buf, items, time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestGenerarReporteStockBajo_Vacio(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerarReporteStockBajo(&buf, nil, time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRecortar(t *testing.T) {
	assert.Equal(t, "corto", recortar("corto", 10))
	largo := strings.Repeat("x", 30)
	assert.Equal(t, strings.Repeat("x", 9)+"...", recortar(largo, 10))
}
