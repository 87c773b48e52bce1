package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/shopkit/ticket-seller/internal/config"
	"github.com/shopkit/ticket-seller/internal/database"
	"github.com/shopkit/ticket-seller/internal/handler"
	"github.com/shopkit/ticket-seller/internal/inventory"
	"github.com/shopkit/ticket-seller/internal/middleware"
	"github.com/shopkit/ticket-seller/internal/queue"
	"github.com/shopkit/ticket-seller/internal/repository"
	"github.com/shopkit/ticket-seller/internal/router"
	"github.com/shopkit/ticket-seller/internal/scheduler"
)

func main() {
	// .env is optional; a containerized deployment injects the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// Repositories.
	events := repository.NewEventRepo(db)
	types := repository.NewTicketTypeRepo(db)
	charts := repository.NewChartRepo(db)
	seats := repository.NewSeatRepo(db)
	tickets := repository.NewTicketRepo(db)
	capHolds := repository.NewCapacityHoldRepo(db)
	checkIns := repository.NewCheckInRepo(db)
	users := repository.NewUserRepo(db)

	// Inventory engine.
	codes := inventory.NewCodeGenerator(cfg.CodeLength, cfg.CodeMaxRetries)
	ledger := inventory.NewSeatLedger(db, seats, cfg.HoldTTL)
	capacity := inventory.NewCapacityCounter(db, events, types, tickets, capHolds, cfg.HoldTTL)
	store := inventory.NewTicketStore(db, tickets, seats, codes)
	engine := inventory.NewEngine(db, ledger, capacity, store, events)
	checkins := inventory.NewCheckinCoordinator(db, tickets, checkIns)

	// Background sweep for expired holds.
	sweeper, err := scheduler.New(engine, cfg.SweepInterval)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	sweeper.Start()
	defer func() { _ = sweeper.Stop() }()

	// Ticket lifecycle consumer; runs its own reconnect loop.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	// Redis backs both the token-bucket rate limiter and the public
	// read cache.  When Redis is down both middlewares fail open.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}

	router.RegisterRoutes(e)
	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}
	router.RegisterPublic(e, handler.NewEventsHandler(engine, events, types, charts, seats), cacheMW)
	router.RegisterCheckout(e, handler.NewInventoryHandler(engine, events))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	ticketsHandler := handler.NewTicketsHandler(store)
	router.RegisterStaff(e, cfg.JWTSecret, handler.NewCheckinHandler(checkins, store, checkIns), ticketsHandler)
	router.RegisterAdmin(e, cfg.JWTSecret, handler.NewAdminHandler(&cfg, events, types, charts, seats, users), ticketsHandler)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM so in-flight finalizations
	// commit or roll back cleanly.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
