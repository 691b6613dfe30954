package service_test

import (
	"testing"

	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestSiguienteCodigo(t *testing.T) {
	cases := []struct {
		name       string
		existentes []string
		want       string
	}{
		{"alcance vacio", nil, "CAJ-001"},
		{"siguiente al maximo", []string{"CAJ-001", "CAJ-004", "CAJ-002"}, "CAJ-005"},
		{"huecos no se reutilizan", []string{"CAJ-001", "CAJ-010"}, "CAJ-011"},
		{"pasa de 999 a 1000", []string{"CAJ-999"}, "CAJ-1000"},
		{"mas de tres digitos", []string{"CAJ-1000", "CAJ-999"}, "CAJ-1001"},
		{"codigos legacy se ignoran", []string{"CAJON-A", "CAJ-7", "caj-050", "CAJ-01X"}, "CAJ-001"},
		{"otro prefijo no cuenta", []string{"DIV-040"}, "CAJ-001"},
		{"sufijo al limite de int", []string{"CAJ-9223372036854775807", "CAJ-004"}, "CAJ-005"},
		{"sufijo fuera de rango", []string{"CAJ-99999999999999999999"}, "CAJ-001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.SiguienteCodigo("CAJ", tc.existentes))
		})
	}
}

func TestFormatearCodigo(t *testing.T) {
	assert.Equal(t, "ARM-001", service.FormatearCodigo("ARM", 1))
	assert.Equal(t, "ARM-042", service.FormatearCodigo("ARM", 42))
	assert.Equal(t, "ARM-12345", service.FormatearCodigo("ARM", 12345))
}
