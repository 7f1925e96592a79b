package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/config"
	"github.com/iliyamo/cemetery-plot-registry/internal/database"
	"github.com/iliyamo/cemetery-plot-registry/internal/handler"
	"github.com/iliyamo/cemetery-plot-registry/internal/middleware"
	"github.com/iliyamo/cemetery-plot-registry/internal/queue"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
	"github.com/iliyamo/cemetery-plot-registry/internal/router"
	"github.com/iliyamo/cemetery-plot-registry/internal/workflow"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	plotRepo := repository.NewPlotRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	burialRepo := repository.NewBurialRecordRepo(db)
	requestRepo := repository.NewBurialRequestRepo(db)

	// Workflow stack: the coordinator serializes plot access, the facade
	// gates every operation on the caller's capabilities.
	coord := workflow.NewCoordinator(db, plotRepo, reservationRepo, burialRepo)
	flow := workflow.NewFacade(coord, plotRepo, reservationRepo, burialRepo, requestRepo)

	seedAdmin(ctx, cfg, userRepo)

	// Redis backs rate limiting and the public catalogue cache; a missing
	// Redis disables both instead of blocking startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Print("redis unavailable; rate limiting and caching disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	publicHandler := handler.NewPublicHandler(plotRepo, burialRepo)
	visitorHandler := handler.NewVisitorHandler(flow, reservationRepo)
	requestHandler := handler.NewRequestHandler(flow)
	adminPlotHandler := handler.NewAdminPlotHandler(flow)
	adminReservationHandler := handler.NewAdminReservationHandler(flow, reservationRepo, plotRepo)
	adminBurialHandler := handler.NewAdminBurialHandler(flow, burialRepo, plotRepo)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterVisitor(e, visitorHandler, requestHandler, cfg.JWTSecret)
	router.RegisterStaff(e, requestHandler, adminBurialHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminPlotHandler, adminReservationHandler, adminBurialHandler, cfg.JWTSecret)

	// The interment log consumer reconnects forever in the background.
	if cfg.RabbitURL == "" {
		log.Print("RABBITMQ_URL not set; interment consumer disabled")
	} else {
		go func() {
			if err := queue.StartIntermentConsumer(); err != nil {
				log.Printf("interment consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedAdmin creates the initial admin account when ADMIN_EMAIL is set.
// An existing account with that email is left untouched.
func seedAdmin(ctx context.Context, cfg config.Config, users *repository.UserRepo) {
	if cfg.AdminEmail == "" {
		return
	}
	_, err := users.Create(ctx, cfg.AdminEmail, cfg.AdminPassword, "ADMIN", cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return
		}
		log.Fatalf("seed admin: %v", err)
	}
	log.Printf("seeded admin account %s", cfg.AdminEmail)
}
