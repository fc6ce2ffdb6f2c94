package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	accounts "github.com/goliatone/go-accounts"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	cfg, err := accounts.NewEnvConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := accounts.OpenDB(cfg.GetDSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := accounts.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrations: %v", err)
	}
	cancel()

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	auther := accounts.NewAuthenticator(repo, cfg)
	register := accounts.NewRegisterUserHandler(repo, auther.TokenService())

	controller := accounts.NewAuthController(
		accounts.WithAuthenticator(auther),
		accounts.WithRegisterHandler(register),
	)

	app := fiber.New(fiber.Config{
		AppName:      "go-accounts",
		ErrorHandler: accounts.NewHTTPErrorHandler(nil),
	})

	accounts.RegisterAuthRoutes(app, controller, auther.TokenService())

	go func() {
		if err := app.Listen(cfg.GetListenAddr()); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
