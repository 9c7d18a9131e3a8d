package web

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

const defaultPingTimeout = 2 * time.Second

// NewServer creates a Server from cfg
func NewServer(cfg Config) *Server {
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return &Server{store: cfg.Store, pingTimeout: timeout}
}

// App builds the fiber app with every route bound to s
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/healthz", s.HealthHandler)
	return app
}

// HealthHandler HTTP endpoint that reports whether the participant store is reachable
// Preconditions: HTTP server has been started
// Postconditions: Responds 200 {"status":"ok"} if the store answers a ping, otherwise 503. The store error is logged,
// not returned
func (s *Server) HealthHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), s.pingTimeout)
	defer cancel()

	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(healthResponse{Status: "unavailable", Error: "no store"})
	}
	if err := s.store.Ping(ctx); err != nil {
		log.Println("health check failed:", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(healthResponse{Status: "unavailable", Error: "store unreachable"})
	}
	return c.JSON(healthResponse{Status: "ok"})
}
