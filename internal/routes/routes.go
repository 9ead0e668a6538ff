package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/atlas-bank/atlas_core/internal/accounts"
	"github.com/atlas-bank/atlas_core/internal/config"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/middleware"
	"github.com/atlas-bank/atlas_core/internal/notification"
	"github.com/atlas-bank/atlas_core/internal/scheduler"
	"github.com/atlas-bank/atlas_core/internal/transactions"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a
// database or cache (development only) the journal and repositories fall
// back to in-memory implementations.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	var journal ledger.Journal
	if d.DB != nil {
		journal = ledger.NewPostgresJournal(d.DB)
	} else {
		journal = ledger.NewInMemoryJournal()
	}

	var accountRepo accounts.Repository
	if d.DB != nil {
		accountRepo = accounts.NewPostgresRepository(d.DB)
	} else {
		accountRepo = accounts.NewMemoryRepository()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	sched := scheduler.New(d.Cache, d.Cfg.ScheduleLockTTL, notifier, d.Logger)
	accountSvc := accounts.NewService(accountRepo, journal, sched, d.Logger)
	sched.Bind(accountSvc)
	transactionSvc := transactions.NewService(accountSvc, journal, notifier, d.Logger)

	accountHandler := accounts.NewHandler(accountSvc)
	transactionHandler := transactions.NewHandler(transactionSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	api.Post("/accounts", accountHandler.Open)
	api.Get("/accounts/:accountId", accountHandler.Get)
	api.Get("/accounts/:accountId/balances", accountHandler.Balances)
	api.Get("/accounts/:accountId/parameters", accountHandler.Parameters)
	api.Get("/accounts/:accountId/parameters/derived", accountHandler.Derived)
	api.Post("/accounts/:accountId/postings", transactionHandler.Submit)

	api.Post("/plans", accountHandler.CreatePlan)
	api.Post("/plans/:planId/accounts", accountHandler.Attach)

	RegisterOperationRoutes(api, sched)

	return nil
}
