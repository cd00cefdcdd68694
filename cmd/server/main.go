package main // Entry point package

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shoply/catalog-api/internal/config"
	"github.com/shoply/catalog-api/internal/database"
	"github.com/shoply/catalog-api/internal/handler"
	"github.com/shoply/catalog-api/internal/queue"
	"github.com/shoply/catalog-api/internal/repository"
	"github.com/shoply/catalog-api/internal/router"
	queue_publisher "github.com/shoply/catalog-api/internal/service"
	"github.com/shoply/catalog-api/internal/session"
)

func main() {
	cfg := config.Load() // fatal on missing required env vars, secrets included

	db, err := database.Open(database.Options{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMin) * time.Minute,
		PingTimeout:     time.Duration(cfg.DBPingTimeoutSec) * time.Second,
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Redis backs the live session contexts and the auth rate limiter.  A
	// nil client here means every login will fail with a session error, so
	// refuse to start instead.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis is unreachable; sessions cannot be established")
	}

	users := repository.NewUserRepo(db)
	resets := repository.NewResetTokenRepo(db)
	records := repository.NewSessionRecordRepo(db)
	products := repository.NewProductRepo(db)

	store := session.NewStore(rdb, time.Duration(cfg.SessionTTLMin)*time.Minute)
	orch := &session.Orchestrator{
		Store:   store,
		Records: records,
		Publish: queue_publisher.PublishSessionAudit,
	}

	// Consume session audit events into logs/session.log.  The consumer
	// reconnects on its own; a missing broker only costs the audit log.
	go func() {
		if err := queue.StartSessionAuditConsumer(); err != nil {
			log.Printf("session audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, resets, orch), store, rdb, cfg)
	router.RegisterUsers(e, handler.NewUserHandler(users), cfg)
	router.RegisterProducts(e, handler.NewProductHandler(products), cfg)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
