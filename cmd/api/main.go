package main

import (
	"log"

	"dealdocs-backend/internal/bootstrap"
	"dealdocs-backend/internal/shared/config"
	"dealdocs-backend/internal/shared/server"
	"dealdocs-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	telemetry.Info("api.start", map[string]any{
		"addr":         addr,
		"env":          cfg.Env,
		"memory_store": app.DB == nil,
		"redis_lock":   app.Redis != nil,
	})

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
