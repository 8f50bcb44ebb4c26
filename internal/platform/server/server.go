package server

import (
	"net/http"
	"time"

	"user-management/internal/config"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 30 * time.Second
	readHeaderTimeout   = 5 * time.Second
)

// New builds the HTTP server for cfg. Zero timeouts fall back to defaults.
func New(cfg *config.Config, handler http.Handler) *http.Server {
	read, write, idle := defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout
	if cfg.Server != nil {
		read = orDefault(cfg.Server.ReadTimeout, read)
		write = orDefault(cfg.Server.WriteTimeout, write)
		idle = orDefault(cfg.Server.IdleTimeout, idle)
	}

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       read,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      write,
		IdleTimeout:       idle,
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
