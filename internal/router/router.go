package router

import (
	"time"

	"same-inventory/internal/alert"
	"same-inventory/internal/blob"
	"same-inventory/internal/config"
	"same-inventory/internal/handler"
	"same-inventory/internal/infra"
	"same-inventory/internal/middleware"
	"same-inventory/internal/model"
	"same-inventory/internal/repository"
	"same-inventory/internal/scan"
	"same-inventory/internal/service"
	"same-inventory/internal/session"
	"same-inventory/internal/ws"
	"same-inventory/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// scanLockTTL bounds how long a crashed instance can hold a device lock.
const scanLockTTL = 30 * time.Second

// New wires all dependencies and returns the configured Fiber app.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// rdb may be nil; the scan guard then stays in process. The hub must be
// running (hub.Run) for realtime delivery.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, hub *ws.Hub, mailer infra.Mailer) *fiber.App {
	// ── Infrastructure ───────────────────────────────────────────────────────
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.TokenTTL())
	blobs := blob.NewLocalStore(cfg.BlobDir, cfg.PublicBaseURL, cfg.MaxUploadBytes)
	broker := session.NewBroker()

	var guard scan.Guard = scan.NewMemoryGuard()
	if rdb != nil {
		guard = scan.NewRedisGuard(rdb, scanLockTTL)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepo(db)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	cashFlowRepo := repository.NewCashFlowRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(db, userRepo, settingsRepo, tokens, mailer, broker, service.AuthOptions{
		ResetTTL:      cfg.ResetTokenTTL(),
		PublicBaseURL: cfg.PublicBaseURL,
	})
	invSvc := service.NewInventoryService(productRepo, db, hub)
	salesSvc := service.NewSalesService(productRepo, saleRepo, db, hub)
	cashSvc := service.NewCashFlowService(cashFlowRepo, hub, cfg.Location())
	settingsSvc := service.NewSettingsService(settingsRepo, blobs, hub)
	dashSvc := service.NewDashboardService(productRepo, saleRepo, alert.Thresholds{
		LowStock:   cfg.LowStockThreshold,
		ExpiryDays: cfg.ExpiryDaysThreshold,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	invH := handler.NewInventoryHandler(invSvc)
	salesH := handler.NewSalesHandler(salesSvc, guard)
	cashH := handler.NewCashFlowHandler(cashSvc)
	settingsH := handler.NewSettingsHandler(settingsSvc)
	dashH := handler.NewDashboardHandler(dashSvc)
	realtimeH := handler.NewRealtimeHandler(authSvc, invSvc, salesSvc, cashSvc, settingsSvc, dashSvc, hub, guard)

	app := fiber.New(fiber.Config{
		AppName:   "SAME Inventory API",
		BodyLimit: int(cfg.MaxUploadBytes) + 1<<20,
	})

	// Middleware
	app.Use(recover.New()) // Panic recovery
	app.Use(middleware.RequestLogger())
	app.Use(cors.New())

	// Stored logos
	app.Static("/blobs", cfg.BlobDir)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", authH.Register)
	auth.Post("/login", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many login attempts, try again in a minute"})
		},
	}), authH.Login)
	auth.Post("/forgot-password", authH.ForgotPassword)
	auth.Post("/reset-password", authH.ResetPassword)
	auth.Post("/validate-token", authH.ValidateToken)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(authSvc)
	auth.Post("/change-password", requireAuth, authH.ChangePassword)
	auth.Post("/logout", requireAuth, authH.Logout)

	protected := api.Group("", requireAuth)

	protected.Get("/dashboard/stats", dashH.GetDashboardStats)
	protected.Get("/alerts", middleware.RequireModule(settingsSvc, model.ModuleNotifications), dashH.GetAlerts)

	protected.Get("/products", invH.GetProducts)
	protected.Post("/products", invH.CreateProduct)
	protected.Put("/products/:id", invH.UpdateProduct)
	protected.Post("/products/:id/restock", invH.Restock)

	sales := protected.Group("/sales", middleware.RequireModule(settingsSvc, model.ModuleSales))
	sales.Get("", salesH.GetSales)
	sales.Post("", salesH.CreateSale)
	sales.Get("/:id", salesH.GetSale)

	cash := protected.Group("/cashflow", middleware.RequireModule(settingsSvc, model.ModuleCashflow))
	cash.Get("", cashH.GetSummary)
	cash.Post("", cashH.CreateEntry)

	protected.Get("/settings", settingsH.GetSettings)
	protected.Put("/settings", settingsH.UpdateSettings)
	protected.Post("/settings/logo", settingsH.UploadLogo)

	// WebSocket Route
	app.Use("/ws", realtimeH.Upgrade)
	app.Get("/ws", websocket.New(realtimeH.Serve))

	return app
}
