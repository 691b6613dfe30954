package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"sync"

	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"
)

var (
	patronesMu sync.Mutex
	patrones   = map[string]*regexp.Regexp{}
)

func patronCodigo(prefijo string) *regexp.Regexp {
	patronesMu.Lock()
	defer patronesMu.Unlock()
	re, ok := patrones[prefijo]
	if !ok {
		re = regexp.MustCompile(`^` + regexp.QuoteMeta(prefijo) + `-(\d{3,})$`)
		patrones[prefijo] = re
	}
	return re
}

// FormatearCodigo renders <PREFIJO>-<n> padded to at least three digits.
// Past 999 the width grows (CAJ-1000) instead of wrapping.
func FormatearCodigo(prefijo string, n int) string {
	return fmt.Sprintf("%s-%03d", prefijo, n)
}

// SiguienteCodigo returns the next sequential code after the greatest code in
// existentes that matches <PREFIJO>-\d{3,}. Codes that do not match (legacy
// data) are ignored, so a scope holding only legacy codes yields <PREFIJO>-001
// and any resulting collision is caught by the duplicate check. The same goes
// for suffixes too large to increment.
func SiguienteCodigo(prefijo string, existentes []string) string {
	re := patronCodigo(prefijo)
	max := 0
	for _, c := range existentes {
		m := re.FindStringSubmatch(c)
		if m == nil {
			continue
		}
		// A suffix that cannot be incremented is treated like legacy data.
		n, err := strconv.Atoi(m[1])
		if err != nil || n == math.MaxInt {
			continue
		}
		if n > max {
			max = n
		}
	}
	return FormatearCodigo(prefijo, max+1)
}

// GeneradorCodigos reads the codes of a scope and computes the next one.
// Generation is optimistic: the unique index on codigo is the final guard.
type GeneradorCodigos struct {
	repo repository.JerarquiaRepository
}

func NewGeneradorCodigos(repo repository.JerarquiaRepository) *GeneradorCodigos {
	return &GeneradorCodigos{repo: repo}
}

// Siguiente implements nextCode(scope, prefix) for the scope's container kind.
func (g *GeneradorCodigos) Siguiente(ctx context.Context, alcance model.Alcance) (string, error) {
	codigos, err := g.repo.Codigos(ctx, alcance)
	if err != nil {
		return "", fmt.Errorf("leer codigos de %s: %w", alcance.Tipo.Tabla(), err)
	}
	return SiguienteCodigo(alcance.Tipo.Prefijo(), codigos), nil
}
