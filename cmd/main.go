package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nilayjain12/clover-checkout-app/adapter"
	"github.com/nilayjain12/clover-checkout-app/handler"
	"github.com/nilayjain12/clover-checkout-app/internal/config"
	"github.com/nilayjain12/clover-checkout-app/internal/oauth"
	"github.com/nilayjain12/clover-checkout-app/internal/service"
	"github.com/nilayjain12/clover-checkout-app/internal/storage"
)

func main() {
	settings := config.LoadEnvironmentConfig()

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        64,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     120 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		Timeout: settings.RequestTimeout,
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: settings.RedisURL,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Error("redis failed", "err", err)
		os.Exit(1)
	}

	credentials := storage.NewRedisCredentialStore(rdb)
	transactions := storage.NewRedisTransactionLog(rdb)

	flow := oauth.NewFlow(client, credentials,
		settings.ClientID, settings.ClientSecret, settings.APIBaseURL, settings.RedirectURI)

	clover := adapter.NewCloverClient(client, settings.APIBaseURL, settings.RequestTimeout)
	orchestrator := service.NewOrchestrator(credentials, clover, transactions)

	checkout := handler.NewCheckoutHandler(flow, orchestrator, transactions)

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	app.Get("/auth/login", checkout.Login)
	app.Get("/auth/callback", checkout.Callback)
	app.Post("/auth/logout", checkout.Logout)
	app.Get("/auth/status", checkout.Status)
	app.Post("/payment", checkout.Payment)
	app.Get("/transactions", checkout.Transactions)
	app.Get("/health", checkout.Health)

	slog.Info("server running", "port", settings.ServerPort, "api_base_url", settings.APIBaseURL)
	if err := app.Listen(":" + settings.ServerPort); err != nil {
		slog.Error("server failed", "err", err)
	}
}
