package http

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/spendsmart/spendsmart/internal/cache"
	"github.com/spendsmart/spendsmart/internal/chat"
	"github.com/spendsmart/spendsmart/internal/config"
	"github.com/spendsmart/spendsmart/internal/http/handlers"
	"github.com/spendsmart/spendsmart/internal/http/middlewares"
	"github.com/spendsmart/spendsmart/internal/observability"
	"github.com/spendsmart/spendsmart/internal/repo/postgres"
	"github.com/spendsmart/spendsmart/internal/session"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, bot chat.Replier, cfg config.Config, reg *prometheus.Registry) *gin.Engine {
	cfgEnv := os.Getenv("APP_ENV")

	if cfgEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("spendsmart"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	prom := observability.NewProm(reg)
	r.Use(prom.GinHandleMiddleware())

	// health + metrics
	pingDB := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	pingRedis := func() error {
		if rdb == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return session.PingRedis(ctx, rdb)
	}

	h := handlers.NewHealthHandler(pingDB, pingRedis)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories and stores
	usersRepo := postgres.NewUsersRepo(pool, prom)
	entriesRepo := postgres.NewEntriesRepo(pool, prom)
	sessions := session.NewStore(rdb, cfg.SessionTTL())
	summaries := cache.New(5 * time.Second)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, sessions, prom, cfg)
	ledgerHandler := handlers.NewLedgerHandler(entriesRepo, summaries)
	chatHandler := handlers.NewChatHandler(bot, prom)

	sessionAuth := middlewares.NewSessionAuth(sessions, prom)

	// public routes
	r.POST("/signup", authHandler.SignUp)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.POST("/chat", chatHandler.Chat)

	// ledger routes sit behind the session gate
	authed := r.Group("/", sessionAuth.RequireSession())

	authed.GET("/incomes", ledgerHandler.ListIncomes)
	authed.POST("/add-income", ledgerHandler.AddIncome)
	authed.GET("/incomes/summary", ledgerHandler.IncomeSummary)
	authed.GET("/expenses", ledgerHandler.ListExpenses)
	authed.POST("/add-expense", ledgerHandler.AddExpense)
	authed.GET("/expenses/summary", ledgerHandler.ExpenseSummary)

	return r
}
