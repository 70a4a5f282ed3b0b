package router

import (
	"time"

	"lojahub/internal/config"
	"lojahub/internal/handler"
	"lojahub/internal/infra"
	"lojahub/internal/middleware"
	"lojahub/internal/repository"
	"lojahub/internal/service"
	"lojahub/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, focusCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	focusClient := infra.NewFocusClient()
	if cfg.FocusHost != "" {
		focusClient = infra.NewFocusClientWithHost(cfg.FocusHost)
	}
	locker := &service.RedisLocker{Client: infra.NewLocker(rdb)}

	// ── Repositories ─────────────────────────────────────────────────────────
	empresaRepo := repository.NewEmpresaRepository(db)
	orgRepo := repository.NewOrganizacaoRepository(db)
	pedidoRepo := repository.NewPedidoRepository(db)
	produtoRepo := repository.NewProdutoRepository(db)
	notaRepo := repository.NewNotaFiscalRepository(db)
	cenarioRepo := repository.NewCenarioFiscalRepository(db)
	estoqueRepo := repository.NewEstoqueRepository(db)
	jobRepo := repository.NewInventoryJobRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	tributacaoSvc := service.NewTributacaoService(cenarioRepo, produtoRepo)
	estoqueSvc := service.NewEstoqueService(pedidoRepo, estoqueRepo)
	vinculoSvc := service.NewVinculoService(pedidoRepo, produtoRepo, jobRepo, estoqueSvc, dispatcher)
	emissaoSvc := service.NewEmissaoService(
		notaRepo, empresaRepo, pedidoRepo, orgRepo, jobRepo,
		tributacaoSvc, focusClient, focusCB, locker,
		service.EmissaoConfig{
			TokenGlobal:    cfg.FocusToken,
			AmbientePadrao: cfg.FocusAmbientePadrao,
			PollMax:        cfg.FocusPollMax,
			PollInterval:   time.Duration(cfg.FocusPollIntervalSec) * time.Second,
		},
	)

	estoqueWorker := worker.NewEstoqueWorker(jobRepo, estoqueSvc, rdb, cfg.JobMaxAttempts)

	// ── Handlers ─────────────────────────────────────────────────────────────
	emissaoH := handler.NewEmissaoHandler(emissaoSvc)
	vinculosH := handler.NewVinculosHandler(vinculoSvc)
	jobsH := handler.NewJobsHandler(estoqueWorker)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, focusCB))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: operador, gestor, administrador — declared per-endpoint
		nfe := v1.Group("/nfe")
		{
			nfe.POST("/emitir", middleware.RequireRole("gestor", "administrador"), emissaoH.EmitirLote)
			nfe.POST("/sincronizar", middleware.RequireRole("gestor", "administrador"), emissaoH.Sincronizar)
			nfe.POST("/cancelar", middleware.RequireRole("administrador"), emissaoH.Cancelar)
			nfe.GET("/pedido/:order_id", middleware.RequireRole("operador", "gestor", "administrador"), emissaoH.ListarPorPedido)
		}

		v1.POST("/vinculos", middleware.RequireRole("operador", "gestor", "administrador"), vinculosH.Vincular)

		// External scheduler entrypoint for the inventory job worker
		v1.POST("/jobs/run", middleware.RequireRole("gestor", "administrador"), jobsH.Run)
	}

	return r
}
