//go:build integration

package router_test

// End-to-end tests over real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cinsua/masirep-sub002/internal/config"
	"github.com/cinsua/masirep-sub002/internal/infra"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

type creado struct {
	ID     string `json:"id"`
	Codigo string `json:"codigo"`
	Ruta   string `json:"ruta"`
}

// crear POSTs a container or item and returns the decoded response.
func (e *testEnv) crear(t *testing.T, path string, body map[string]any) creado {
	t.Helper()
	resp := do(t, e.server, http.MethodPost, path, jsonBody(t, body), e.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "POST %s", path)
	var c creado
	decodeJSON(t, resp, &c)
	return c
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("masirep_test"),
		tcPostgres.WithUsername("masirep"),
		tcPostgres.WithPassword("masirep"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                8000,
		Env:                 "test",
		RateLimit:           "1000-M",
		LoginRateLimit:      "100-M",
		CORSOrigins:         "*",
		JWTSecret:           "test-secret-key",
		JWTExpirationHours:  8,
		JWTRefreshHours:     24,
		DatabaseURL:         pgURL,
		RedisURL:            rdURL,
		WorkerPoolSize:      1,
		CodigoMaxReintentos: 3,
		CajonMaxDivisiones:  20,
		StockCacheTTL:       time.Minute,
		PDFStoragePath:      t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	hash, err := bcrypt.GenerateFromPassword([]byte("masirep2024"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Usuario{
		Username: "admin", Nombre: "Admin E2E", PasswordHash: string(hash),
		Rol: model.RolAdministrador, Activo: true,
	}).Error)

	r, err := router.New(cfg, db, rdb, nil, infra.NewCircuitBreaker("smtp", infra.DefaultCBConfig()))
	require.NoError(t, err)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, http.MethodPost, "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": "masirep2024"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Builds Taller > ARM-001 > CAJ-001 > DIV-001, places a part in two
// containers and checks stock, path and the deletion guard.
func TestE2E_JerarquiaStockYEliminacion(t *testing.T) {
	env := setupTestEnv(t)

	ubi := env.crear(t, "/v1/ubicaciones", map[string]any{"nombre": "Taller"})
	assert.Equal(t, "UBI-001", ubi.Codigo)
	arm := env.crear(t, "/v1/armarios", map[string]any{"nombre": "Armario principal", "ubicacion_id": ubi.ID})
	assert.Equal(t, "ARM-001", arm.Codigo)
	caj := env.crear(t, "/v1/cajones", map[string]any{"nombre": "Rodamientos", "armario_id": arm.ID})
	assert.Equal(t, "CAJ-001", caj.Codigo)
	div := env.crear(t, "/v1/divisiones", map[string]any{"nombre": "Chicos", "cajon_id": caj.ID})
	assert.Equal(t, "Taller > ARM-001 > CAJ-001 > DIV-001", div.Ruta)

	// Two parents at once is a placement error.
	resp := do(t, env.server, http.MethodPost, "/v1/cajones",
		jsonBody(t, map[string]any{"nombre": "X", "armario_id": arm.ID, "estanteria_id": arm.ID}), env.token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	rep := env.crear(t, "/v1/repuestos", map[string]any{"codigo": "REP-6204", "nombre": "Rodamiento 6204", "stock_minimo": 10})
	env.crear(t, "/v1/repuestos/"+rep.ID+"/ubicaciones", map[string]any{"cantidad": 5, "armario_id": arm.ID})
	env.crear(t, "/v1/repuestos/"+rep.ID+"/ubicaciones", map[string]any{"cantidad": 3, "division_id": div.ID})

	resp = do(t, env.server, http.MethodGet, "/v1/stock/repuesto/"+rep.ID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stock struct {
		StockActual int  `json:"stock_actual"`
		StockBajo   bool `json:"stock_bajo"`
		Desglose    []struct {
			Ruta     string `json:"ruta"`
			Cantidad int    `json:"cantidad"`
		} `json:"desglose"`
	}
	decodeJSON(t, resp, &stock)
	assert.Equal(t, 8, stock.StockActual)
	assert.True(t, stock.StockBajo)
	assert.Len(t, stock.Desglose, 2)

	// The armario holds a cajon and a repuesto: deletion is refused.
	resp = do(t, env.server, http.MethodDelete, "/v1/contenedores/armario/"+arm.ID, nil, env.token)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var bloqueo struct {
		Bloqueos map[string]int64 `json:"bloqueos"`
	}
	decodeJSON(t, resp, &bloqueo)
	assert.Equal(t, map[string]int64{"cajones": 1, "repuestos": 1}, bloqueo.Bloqueos)

	// An empty leaf goes away.
	vacia := env.crear(t, "/v1/divisiones", map[string]any{"nombre": "Vacia", "cajon_id": caj.ID})
	assert.Equal(t, "DIV-002", vacia.Codigo)
	resp = do(t, env.server, http.MethodDelete, "/v1/contenedores/division/"+vacia.ID, nil, env.token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodGet, "/v1/stock/bajo", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bajo []struct {
		Codigo   string `json:"codigo"`
		Faltante int    `json:"faltante"`
	}
	decodeJSON(t, resp, &bajo)
	require.Len(t, bajo, 1)
	assert.Equal(t, "REP-6204", bajo[0].Codigo)
	assert.Equal(t, 2, bajo[0].Faltante)
}

// Per-parent codes restart under each cajon; global codes do not.
func TestE2E_CodigosPorAlcance(t *testing.T) {
	env := setupTestEnv(t)

	ubiA := env.crear(t, "/v1/ubicaciones", map[string]any{"nombre": "Taller"})
	ubiB := env.crear(t, "/v1/ubicaciones", map[string]any{"nombre": "Deposito"})
	assert.Equal(t, "UBI-002", ubiB.Codigo)
	armA := env.crear(t, "/v1/armarios", map[string]any{"nombre": "A", "ubicacion_id": ubiA.ID})
	armB := env.crear(t, "/v1/armarios", map[string]any{"nombre": "B", "ubicacion_id": ubiB.ID})
	assert.Equal(t, "ARM-001", armA.Codigo)
	assert.Equal(t, "ARM-002", armB.Codigo)

	cajA := env.crear(t, "/v1/cajones", map[string]any{"nombre": "A1", "armario_id": armA.ID})
	cajB := env.crear(t, "/v1/cajones", map[string]any{"nombre": "B1", "armario_id": armB.ID})
	assert.Equal(t, "CAJ-001", cajA.Codigo)
	assert.Equal(t, "CAJ-001", cajB.Codigo)

	resp := do(t, env.server, http.MethodGet,
		fmt.Sprintf("/v1/codigos/siguiente?tipo=cajon&padre_tipo=armario&padre_id=%s", armA.ID), nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sig struct {
		Codigo string `json:"codigo"`
	}
	decodeJSON(t, resp, &sig)
	assert.Equal(t, "CAJ-002", sig.Codigo)

	// A manual duplicate inside the same scope is a conflict.
	resp = do(t, env.server, http.MethodPost, "/v1/cajones",
		jsonBody(t, map[string]any{"nombre": "Otro", "codigo": "CAJ-001", "armario_id": armA.ID}), env.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

// Concurrent creations under one armario all land, each with its own code:
// losers of the unique index regenerate and retry.
func TestE2E_CreacionConcurrenteSinCodigosRepetidos(t *testing.T) {
	env := setupTestEnv(t)

	ubi := env.crear(t, "/v1/ubicaciones", map[string]any{"nombre": "Taller"})
	arm := env.crear(t, "/v1/armarios", map[string]any{"nombre": "A", "ubicacion_id": ubi.ID})

	const n = 3
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		codigos []string
		fallos  []int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{"nombre": fmt.Sprintf("Cajon %d", i), "armario_id": arm.ID})
			req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/v1/cajones", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+env.token)
			resp, err := env.server.Client().Do(req)
			if err != nil {
				mu.Lock()
				fallos = append(fallos, 0)
				mu.Unlock()
				return
			}
			defer resp.Body.Close()
			var c creado
			_ = json.NewDecoder(resp.Body).Decode(&c)
			mu.Lock()
			defer mu.Unlock()
			if resp.StatusCode != http.StatusCreated {
				fallos = append(fallos, resp.StatusCode)
				return
			}
			codigos = append(codigos, c.Codigo)
		}(i)
	}
	wg.Wait()

	require.Empty(t, fallos)
	sort.Strings(codigos)
	assert.Equal(t, []string{"CAJ-001", "CAJ-002", "CAJ-003"}, codigos)
}

func TestE2E_DivisionesConcurrentesRespetanElLimite(t *testing.T) {
	env := setupTestEnv(t)

	ubi := env.crear(t, "/v1/ubicaciones", map[string]any{"nombre": "Taller"})
	arm := env.crear(t, "/v1/armarios", map[string]any{"nombre": "A", "ubicacion_id": ubi.ID})
	caj := env.crear(t, "/v1/cajones", map[string]any{"nombre": "Casi lleno", "armario_id": arm.ID})
	for i := 1; i <= 19; i++ {
		env.crear(t, "/v1/divisiones", map[string]any{"nombre": fmt.Sprintf("Div %d", i), "cajon_id": caj.ID})
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		estados []int
	)
	inicio := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{"nombre": fmt.Sprintf("Ultima %d", i), "cajon_id": caj.ID})
			req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/v1/divisiones", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+env.token)
			<-inicio
			resp, err := env.server.Client().Do(req)
			estado := 0
			if err == nil {
				estado = resp.StatusCode
				resp.Body.Close()
			}
			mu.Lock()
			estados = append(estados, estado)
			mu.Unlock()
		}(i)
	}
	close(inicio)
	wg.Wait()

	sort.Ints(estados)
	assert.Equal(t, []int{http.StatusCreated, http.StatusConflict}, estados)

	resp := do(t, env.server, http.MethodGet, "/v1/contenedores/division?padre_tipo=cajon&padre_id="+caj.ID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var divisiones []creado
	decodeJSON(t, resp, &divisiones)
	assert.Len(t, divisiones, 20)
}

func TestE2E_ComponenteSoloEnCajoncito(t *testing.T) {
	env := setupTestEnv(t)

	ubi := env.crear(t, "/v1/ubicaciones", map[string]any{"nombre": "Laboratorio"})
	arm := env.crear(t, "/v1/armarios", map[string]any{"nombre": "Electronica", "ubicacion_id": ubi.ID})
	org := env.crear(t, "/v1/organizadores", map[string]any{"nombre": "SMD", "armario_id": arm.ID})
	cjt := env.crear(t, "/v1/cajoncitos", map[string]any{"nombre": "0805", "organizador_id": org.ID})
	assert.Equal(t, "Laboratorio > ARM-001 > ORG-001 > CJT-001", cjt.Ruta)

	comp := env.crear(t, "/v1/componentes", map[string]any{"categoria": "RESISTENCIA", "descripcion": "10k 0805", "stock_minimo": 0})

	resp := do(t, env.server, http.MethodPost, "/v1/componentes/"+comp.ID+"/ubicaciones",
		jsonBody(t, map[string]any{"cantidad": 100, "armario_id": arm.ID}), env.token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	env.crear(t, "/v1/componentes/"+comp.ID+"/ubicaciones", map[string]any{"cantidad": 100, "cajoncito_id": cjt.ID})

	resp = do(t, env.server, http.MethodGet, "/v1/movimientos?item_id="+comp.ID, nil, env.token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_Health(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "closed", body["smtp"])
}
