package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking-api/internal/config"
	"github.com/iliyamo/cinema-booking-api/internal/database"
	"github.com/iliyamo/cinema-booking-api/internal/handler"
	appmw "github.com/iliyamo/cinema-booking-api/internal/middleware"
	"github.com/iliyamo/cinema-booking-api/internal/queue"
	"github.com/iliyamo/cinema-booking-api/internal/repository"
	"github.com/iliyamo/cinema-booking-api/internal/router"
	"github.com/iliyamo/cinema-booking-api/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unreachable; cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	genres := repository.NewGenreRepo(db)
	actors := repository.NewActorRepo(db)
	halls := repository.NewHallRepo(db)
	movies := repository.NewMovieRepo(db)
	sessions := repository.NewSessionRepo(db)
	tickets := repository.NewTicketRepo(db)
	orders := repository.NewOrderRepo(db, tickets)

	orderSvc := service.NewOrderService(sessions, orders, tickets, queue.PublishOrderPlaced, log)
	images := service.NewImageService(cfg.MovieImageDir)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterCatalog(e, router.CatalogHandlers{
		Genres:   handler.NewGenreHandler(genres),
		Actors:   handler.NewActorHandler(actors),
		Halls:    handler.NewHallHandler(halls),
		Movies:   handler.NewMovieHandler(movies, images),
		Sessions: handler.NewSessionHandler(sessions, movies, halls, orderSvc),
	}, cfg.JWTSecret, appmw.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterOrders(e, handler.NewOrderHandler(orderSvc, orders, cfg.PageSize, cfg.MaxPageSize), cfg.JWTSecret)

	// Background consumer for order.placed events; reconnects on its own.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.WithError(err).Error("order consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
