package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mxe-wallet/mxe_wallet/internal/account"
	"github.com/mxe-wallet/mxe_wallet/internal/auth"
	"github.com/mxe-wallet/mxe_wallet/internal/config"
	"github.com/mxe-wallet/mxe_wallet/internal/kyc"
	"github.com/mxe-wallet/mxe_wallet/internal/middleware"
	"github.com/mxe-wallet/mxe_wallet/internal/otp"
	"github.com/mxe-wallet/mxe_wallet/internal/sms"
	"github.com/mxe-wallet/mxe_wallet/internal/storage"
	"github.com/mxe-wallet/mxe_wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Store  storage.Uploader
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var accountRepo account.Repository
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
	} else {
		accountRepo = account.NewMemoryRepository()
	}
	var walletRepo wallet.Repository
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
	} else {
		walletRepo = wallet.NewMemoryRepository()
	}
	store := d.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	var sender sms.Sender
	if d.Cfg.TwilioAccountSID != "" && d.Cfg.TwilioAuthToken != "" {
		sender = sms.NewTwilioSender(d.Cfg)
	} else {
		sender = sms.NewLogSender(d.Logger)
	}

	issuer := auth.NewIssuer(d.Cfg)
	authSvc := auth.NewService(d.Cfg, accountRepo, otp.NewRandomGenerator(), sender, issuer)
	authHandler := auth.NewHandler(authSvc)
	kycSvc := kyc.NewService(accountRepo, store)
	kycHandler := kyc.NewHandler(kycSvc)
	walletSvc := wallet.NewService(walletRepo, accountRepo)
	walletHandler := wallet.NewHandler(walletSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/register/resend", authHandler.Resend)
	authGroup.Patch("/verify-account", authHandler.Verify)
	authGroup.Post("/create-account", authHandler.CreateAccount)
	authGroup.Get("/tags/:tag", authHandler.TagCheck)
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	authGroup.Post("/login", rateLimiter, authHandler.Login)
	authGroup.Post("/federated", authHandler.Federated)

	// Protected routes
	jwtmw := middleware.JWTAuth(issuer)
	protected := api.Group("", jwtmw)
	protected.Patch("/auth/change-pin", authHandler.ChangePin)
	protected.Patch("/auth/account", authHandler.UpdateDetails)
	// TODO: add a role check so only ADMIN sessions reach the admin and
	// review endpoints; today any authenticated session can call them.
	protected.Patch("/auth/account/admin", authHandler.MakeAdmin)

	protected.Post("/verification", kycHandler.Request)
	protected.Patch("/verification", kycHandler.Approve)
	protected.Get("/verification", kycHandler.ListPending)

	protected.Post("/wallet", walletHandler.Create)
	protected.Get("/wallet/details", walletHandler.Details)
	protected.Get("/wallet/transactions", walletHandler.Transactions)
	protected.Get("/wallet/transactions/:id", walletHandler.Transaction)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
