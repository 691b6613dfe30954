package router

import (
	"github.com/cinsua/masirep-sub002/internal/config"
	"github.com/cinsua/masirep-sub002/internal/handler"
	"github.com/cinsua/masirep-sub002/internal/infra"
	"github.com/cinsua/masirep-sub002/internal/middleware"
	"github.com/cinsua/masirep-sub002/internal/model"
	"github.com/cinsua/masirep-sub002/internal/repository"
	"github.com/cinsua/masirep-sub002/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb and alertas may be nil: the stock cache, the shared rate limiter store
// and the low-stock alerts are then disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, alertas service.AlertaDispatcher, smtpCB *infra.CircuitBreaker) (*gin.Engine, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := middleware.NewLimiterStore(rdb, "limiter")
	if err != nil {
		return nil, err
	}
	globalLimiter, err := middleware.RateLimiter(store, cfg.RateLimit, "Demasiadas solicitudes")
	if err != nil {
		return nil, err
	}
	loginStore, err := middleware.NewLimiterStore(rdb, "limiter:login")
	if err != nil {
		return nil, err
	}
	loginLimiter, err := middleware.RateLimiter(loginStore, cfg.LoginRateLimit, "Demasiados intentos de login, espere un minuto")
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(globalLimiter)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	jerarquiaRepo := repository.NewJerarquiaRepository(db)
	itemRepo := repository.NewItemRepository(db)
	equipoRepo := repository.NewEquipoRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	jerarquiaSvc := service.NewJerarquiaService(jerarquiaRepo, JerarquiaConfig(cfg))
	stockSvc := service.NewStockService(itemRepo, jerarquiaRepo, rdb, cfg.StockCacheTTL, cfg.StockIncluirInactivos)
	itemSvc := service.NewItemService(itemRepo, stockSvc)
	asignacionSvc := service.NewAsignacionService(itemRepo, jerarquiaSvc, stockSvc, alertas)
	equipoSvc := service.NewEquipoService(equipoRepo, itemRepo)
	movimientoSvc := service.NewMovimientoService(movimientoRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	jerarquiaH := handler.NewJerarquiaHandler(jerarquiaSvc)
	itemsH := handler.NewItemsHandler(itemSvc, asignacionSvc)
	equiposH := handler.NewEquiposHandler(equipoSvc)
	stockH := handler.NewStockHandler(stockSvc, movimientoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimiter, authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes: every authenticated role reads, writes need a
	// tecnico or administrador, deletions and user management are admin only.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	escritura := middleware.RequireRole(model.RolTecnico, model.RolAdministrador)
	admin := middleware.RequireRole(model.RolAdministrador)
	{
		for _, t := range model.TiposContenedor {
			v1.POST("/"+t.Plural(), escritura, jerarquiaH.Crear(t))
		}
		v1.GET("/codigos/siguiente", jerarquiaH.SiguienteCodigo)
		v1.GET("/contenedores/:tipo", jerarquiaH.Listar)
		v1.GET("/contenedores/:tipo/:id/eliminable", jerarquiaH.Eliminable)
		v1.GET("/contenedores/:tipo/:id/ruta", jerarquiaH.Ruta)
		v1.DELETE("/contenedores/:tipo/:id", admin, jerarquiaH.Eliminar)

		rep := v1.Group("/repuestos")
		{
			rep.POST("", escritura, itemsH.CrearRepuesto)
			rep.GET("", itemsH.ListarRepuestos)
			rep.GET("/:id", itemsH.ObtenerRepuesto)
			rep.PATCH("/:id", escritura, itemsH.ActualizarRepuesto)
			rep.GET("/:id/ubicaciones", itemsH.ListarAsignaciones(model.ItemRepuesto))
			rep.POST("/:id/ubicaciones", escritura, itemsH.Asignar(model.ItemRepuesto))
			rep.PATCH("/ubicaciones/:asignacion_id", escritura, itemsH.ActualizarCantidad(model.ItemRepuesto))
			rep.DELETE("/ubicaciones/:asignacion_id", escritura, itemsH.Retirar(model.ItemRepuesto))
		}

		comp := v1.Group("/componentes")
		{
			comp.POST("", escritura, itemsH.CrearComponente)
			comp.GET("", itemsH.ListarComponentes)
			comp.PATCH("/:id", escritura, itemsH.ActualizarComponente)
			comp.GET("/:id/ubicaciones", itemsH.ListarAsignaciones(model.ItemComponente))
			comp.POST("/:id/ubicaciones", escritura, itemsH.Asignar(model.ItemComponente))
			comp.PATCH("/ubicaciones/:asignacion_id", escritura, itemsH.ActualizarCantidad(model.ItemComponente))
			comp.DELETE("/ubicaciones/:asignacion_id", escritura, itemsH.Retirar(model.ItemComponente))
		}

		eq := v1.Group("/equipos")
		{
			eq.POST("", escritura, equiposH.Crear)
			eq.GET("", equiposH.Listar)
			eq.GET("/:id/repuestos", equiposH.Repuestos)
			eq.POST("/:id/repuestos/:repuesto_id", escritura, equiposH.Vincular)
			eq.DELETE("/:id/repuestos/:repuesto_id", escritura, equiposH.Desvincular)
		}

		stock := v1.Group("/stock")
		{
			stock.GET("/bajo", stockH.Bajo)
			stock.GET("/bajo/pdf", stockH.BajoPDF)
			stock.POST("/recalcular", escritura, stockH.Recalcular)
			stock.GET("/:tipo/:id", stockH.Obtener)
		}
		v1.GET("/movimientos", stockH.Movimientos)

		if rdb != nil {
			alertasH := handler.NewAlertasHandler(rdb)
			v1.GET("/alertas/dlq", admin, alertasH.Pendientes)
			v1.POST("/alertas/dlq/reencolar", admin, alertasH.Reencolar)
		}

		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI outside production.
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}

// JerarquiaConfig derives the hierarchy rules from the runtime configuration.
func JerarquiaConfig(cfg *config.Config) service.JerarquiaConfig {
	jc := service.DefaultJerarquiaConfig()
	if cfg.CodigoMaxReintentos > 0 {
		jc.MaxReintentos = cfg.CodigoMaxReintentos
	}
	if cfg.CajonMaxDivisiones > 0 {
		jc.LimiteHijos[model.TipoDivision] = cfg.CajonMaxDivisiones
	}
	return jc
}
