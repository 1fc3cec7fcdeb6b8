// Command mapf-server plays a multi-agent plan and exposes the playback over
// HTTP. It takes the same file arguments as mapf-viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cxd309/mapf-player/internal/api"
	"github.com/cxd309/mapf-player/internal/config"
	"github.com/cxd309/mapf-player/internal/session"
	"github.com/cxd309/mapf-player/internal/solver"
	"github.com/cxd309/mapf-player/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a JSON config file")
	flag.Parse()
	if flag.NArg() < 1 || flag.NArg() > 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [-config file] <graph|plan> [plan|layout]\n", os.Args[0])
		os.Exit(2)
	}

	// Config: defaults, file, .env, environment
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in, err := session.LoadInput(ctx, solver.RouteSolver{}, flag.Args()...)
	if err != nil {
		log.Fatalf("loading input: %v", err)
	}

	deps := session.Deps{Source: in.Source}
	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			log.Printf("Warning: run history disabled: %v", err)
		} else {
			defer st.Close()
			deps.Store = st
		}
	}

	s, err := session.New(in.Graph, in.Plan, cfg, deps)
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	defer s.Close()
	go s.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "mapf-player",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: api.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	api.SetupRoutes(app, s)

	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := app.Listen(cfg.Addr); err != nil {
			log.Printf("Server error: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	cancel()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited gracefully")
}
