package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"mesa/internal/core/numerator"
	"mesa/internal/domain"
	"mesa/internal/domain/accounts"
	"mesa/internal/domain/auth"
	"mesa/internal/domain/catalogs/material"
	"mesa/internal/domain/catalogs/supplier"
	"mesa/internal/domain/catalogs/unit"
	"mesa/internal/domain/catalogs/warehouse"
	"mesa/internal/domain/documents/stockcount"
	"mesa/internal/domain/ledger/stock"
	"mesa/internal/domain/recipes"
	"mesa/internal/infrastructure/http/v1/dto"
	"mesa/internal/infrastructure/http/v1/handlers"
	"mesa/internal/infrastructure/http/v1/middleware"
	"mesa/internal/infrastructure/storage/postgres"
	"mesa/internal/infrastructure/storage/postgres/account_repo"
	"mesa/internal/infrastructure/storage/postgres/catalog_repo"
	"mesa/internal/infrastructure/storage/postgres/document_repo"
	"mesa/internal/infrastructure/storage/postgres/register_repo"
	"mesa/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Logger    *logger.Logger
	Audit     *postgres.AuditService

	Numerator numerator.Generator

	AuthService  *auth.Service
	JWTValidator middleware.JWTValidator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery outermost, error rendering innermost.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	healthHandler.RegisterRoutes(router.Group("/health"))

	api := router.Group("/api/v1")
	{
		registerAuthRoutes(api, cfg)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerCatalogRoutes(protected, cfg)
		registerLedgerRoutes(protected, cfg)
		registerDocumentRoutes(protected, cfg)
		registerAccountRoutes(protected, cfg)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)

	users := rg.Group("/users")
	users.Use(middleware.Auth(cfg.JWTValidator))
	users.Use(middleware.RequireRole("admin"))
	authHandler.RegisterUserAdminRoutes(users)
}

func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	materialRepo := catalog_repo.NewMaterialRepo(cfg.TxManager)
	unitRepo := catalog_repo.NewUnitRepo(cfg.TxManager)
	recipeRepo := catalog_repo.NewRecipeRepo(cfg.TxManager)
	recipeService := recipes.NewService(recipeRepo, materialRepo, unit.NewConverter(unitRepo), cfg.TxManager)

	// --- MATERIALS ---
	{
		service := domain.NewCatalogService(domain.CatalogServiceConfig[*material.Material]{
			Repo:       materialRepo,
			TxManager:  cfg.TxManager,
			EntityName: "material",
		})

		// Cost edits ripple into recipe rollups
		service.Hooks().On(domain.AfterUpdate, func(ctx context.Context, m *material.Material) error {
			return recipeService.PropagateMaterialCost(ctx, m.ID)
		})

		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*material.Material, dto.CreateMaterialRequest, dto.UpdateMaterialRequest]{
			Service:   service,
			MapCreate: func(req *dto.CreateMaterialRequest) (*material.Material, error) { return req.ToEntity() },
			ApplyTo: func(req *dto.UpdateMaterialRequest, m *material.Material) error {
				return req.ApplyTo(m)
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/materials"), handler)
	}

	// --- WAREHOUSES ---
	{
		service := domain.NewCatalogService(domain.CatalogServiceConfig[*warehouse.Warehouse]{
			Repo:       catalog_repo.NewWarehouseRepo(cfg.TxManager),
			TxManager:  cfg.TxManager,
			EntityName: "warehouse",
		})

		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*warehouse.Warehouse, dto.CreateWarehouseRequest, dto.UpdateWarehouseRequest]{
			Service:   service,
			MapCreate: func(req *dto.CreateWarehouseRequest) (*warehouse.Warehouse, error) { return req.ToEntity(), nil },
			ApplyTo: func(req *dto.UpdateWarehouseRequest, w *warehouse.Warehouse) error {
				return req.ApplyTo(w)
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/warehouses"), handler)
	}

	// --- UNITS ---
	{
		service := domain.NewCatalogService(domain.CatalogServiceConfig[*unit.Unit]{
			Repo:       unitRepo,
			TxManager:  cfg.TxManager,
			EntityName: "unit",
		})

		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*unit.Unit, dto.CreateUnitRequest, dto.UpdateUnitRequest]{
			Service:   service,
			MapCreate: func(req *dto.CreateUnitRequest) (*unit.Unit, error) { return req.ToEntity(), nil },
			ApplyTo: func(req *dto.UpdateUnitRequest, u *unit.Unit) error {
				return req.ApplyTo(u)
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/units"), handler)
	}

	// --- SUPPLIERS ---
	{
		service := domain.NewCatalogService(domain.CatalogServiceConfig[*supplier.Supplier]{
			Repo:       catalog_repo.NewSupplierRepo(cfg.TxManager),
			TxManager:  cfg.TxManager,
			EntityName: "supplier",
		})

		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]{
			Service:   service,
			MapCreate: func(req *dto.CreateSupplierRequest) (*supplier.Supplier, error) { return req.ToEntity(), nil },
			ApplyTo: func(req *dto.UpdateSupplierRequest, s *supplier.Supplier) error {
				return req.ApplyTo(s)
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/suppliers"), handler)
	}

	// --- RECIPES ---
	{
		handler := handlers.NewRecipeHandler(baseHandler, recipeService)
		recipesGroup := catalogs.Group("/recipes")
		recipesGroup.Use(middleware.RequireRole("admin", "manager"))
		handler.RegisterRoutes(recipesGroup)
	}
}

func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	stockRepo := register_repo.NewStockRepo(cfg.TxManager)
	stockService := stock.NewService(stockRepo, catalog_repo.NewWarehouseRepo(cfg.TxManager), cfg.TxManager)

	handler := handlers.NewStockHandler(baseHandler, stockService)

	group := rg.Group("/stock")
	handler.RegisterRoutes(group)
}

func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	stockRepo := register_repo.NewStockRepo(cfg.TxManager)
	stockService := stock.NewService(stockRepo, catalog_repo.NewWarehouseRepo(cfg.TxManager), cfg.TxManager)

	materialRepo := catalog_repo.NewMaterialRepo(cfg.TxManager)

	stockCountRepo := document_repo.NewStockCountRepo(cfg.TxManager)
	stockCountService := stockcount.NewService(stockCountRepo, stockService, materialRepo, cfg.Numerator, cfg.TxManager)

	if cfg.Audit != nil {
		stockCountService.Hooks().On(domain.AfterApprove, func(ctx context.Context, doc *stockcount.StockCount) error {
			return cfg.Audit.LogChange(ctx, stockcount.EntityName, doc.ID, postgres.AuditActionApprove, map[string]any{
				"number":        doc.Number,
				"status":        doc.Status,
				"totalSurplus":  doc.TotalSurplus,
				"totalShortage": doc.TotalShortage,
				"approvedBy":    doc.ApprovedBy,
			})
		})
	}

	handler := handlers.NewStockCountHandler(baseHandler, stockCountService, cfg.Audit)

	group := rg.Group("/stock-counts")
	handler.RegisterRoutes(group, middleware.RequireRole("admin", "manager"))
}

func registerAccountRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	service := accounts.NewService(
		account_repo.NewAccountRepo(cfg.TxManager),
		account_repo.NewTransactionRepo(cfg.TxManager),
		account_repo.NewPaymentRepo(cfg.TxManager),
		cfg.Numerator,
		cfg.TxManager,
	)

	handler := handlers.NewAccountHandler(baseHandler, service)
	handler.RegisterRoutes(rg)
}
