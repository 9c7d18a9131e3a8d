package web

import (
	"context"
	"time"
)

// Pinger is the part of the store the health check needs
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the configuration for the web server
type Config struct {
	Addr  string
	Store Pinger
	// PingTimeout bounds one health check, defaults to 2 seconds
	PingTimeout time.Duration
}

// Server serves the health endpoint
type Server struct {
	store       Pinger
	pingTimeout time.Duration
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
