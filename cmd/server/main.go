package main

import (
	"log"
	"strings"

	"dukkan-backend/internal/admin"
	"dukkan-backend/internal/allocation"
	"dukkan-backend/internal/audit"
	"dukkan-backend/internal/auth"
	"dukkan-backend/internal/config"
	"dukkan-backend/internal/dashboard"
	"dukkan-backend/internal/database"
	"dukkan-backend/internal/events"
	"dukkan-backend/internal/investment"
	"dukkan-backend/internal/models"
	"dukkan-backend/internal/settlement"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	bus := events.NewBus()
	allocSvc := allocation.NewService(database.DB, bus)
	investSvc := investment.NewService(database.DB, bus)
	settleSvc := settlement.NewService(database.DB)
	dashAgg := dashboard.NewAggregator(database.DB, bus)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	adminRoutes.Post("/users", auth.CreateAdminHandler())

	// Dükkan yönetimi
	adminRoutes.Post("/shops", admin.CreateShopHandler())
	adminRoutes.Put("/shops/:id", admin.UpdateShopHandler())
	adminRoutes.Delete("/shops/:id", admin.DeleteShopHandler())

	// Yatırımcı yönetimi
	adminRoutes.Post("/investors", admin.CreateInvestorHandler())
	adminRoutes.Put("/investors/:id", admin.UpdateInvestorHandler())
	adminRoutes.Delete("/investors/:id", admin.DeleteInvestorHandler())

	// Ortak (auth gerektiren) route'lar

	// Dükkan ve yatırımcı listeleri
	protected.Get("/shops", admin.ListShopsHandler())
	protected.Get("/shops/:id", admin.GetShopHandler())
	protected.Get("/investors", admin.ListInvestorsHandler())
	protected.Get("/investors/:id", admin.GetInvestorHandler())

	// Pay dağıtımı
	protected.Post("/shops/:id/shares", allocation.AssignShareHandler(allocSvc))
	protected.Get("/shops/:id/shares", allocation.ListSharesHandler(allocSvc))
	protected.Put("/shares/:id", allocation.EditShareHandler(allocSvc))
	protected.Post("/shares/:id/deactivate", allocation.DeactivateShareHandler(allocSvc))
	protected.Post("/shares/:id/reactivate", allocation.ReactivateShareHandler(allocSvc))

	// Sermaye ödemeleri
	protected.Post("/shares/:id/transactions", investment.CreateTransactionHandler(investSvc))
	protected.Put("/transactions/:id", investment.UpdateTransactionHandler(investSvc))
	protected.Delete("/transactions/:id", investment.DeleteTransactionHandler(investSvc))
	protected.Get("/shops/:id/transactions", investment.ListTransactionsHandler(investSvc))
	protected.Get("/shops/:id/phases", investment.ListPhasesHandler(investSvc))

	// Mutabakat
	protected.Post("/shops/:id/settlements/preview", settlement.CalculateHandler(settleSvc))
	protected.Post("/shops/:id/settlements", settlement.ConfirmHandler(settleSvc))
	protected.Get("/shops/:id/settlements", settlement.ListSettlementsHandler(settleSvc))
	protected.Get("/settlements/:id", settlement.GetSettlementHandler(settleSvc))
	protected.Get("/settlements/:id/export", settlement.ExportSettlementHandler(settleSvc))
	protected.Put("/settlement-entries/:id/payout", settlement.RecordPayoutHandler(settleSvc))

	// Dashboard
	protected.Get("/shops/:id/dashboard", dashboard.ShopDashboardHandler(dashAgg))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
