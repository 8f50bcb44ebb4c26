package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"user-management/internal/config"
)

func TestNew(t *testing.T) {
	handler := http.NewServeMux()

	t.Run("uses configured address and timeouts", func(t *testing.T) {
		cfg := &config.Config{
			Host: "127.0.0.1",
			Port: "9090",
			Server: &config.ServerConfig{
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 4 * time.Second,
				IdleTimeout:  50 * time.Second,
			},
		}

		srv := New(cfg, handler)
		assert.Equal(t, "127.0.0.1:9090", srv.Addr)
		assert.Equal(t, 3*time.Second, srv.ReadTimeout)
		assert.Equal(t, 4*time.Second, srv.WriteTimeout)
		assert.Equal(t, 50*time.Second, srv.IdleTimeout)
		assert.Equal(t, readHeaderTimeout, srv.ReadHeaderTimeout)
		assert.Same(t, handler, srv.Handler)
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		srv := New(&config.Config{Host: "0.0.0.0", Port: "8080", Server: &config.ServerConfig{}}, handler)
		assert.Equal(t, defaultReadTimeout, srv.ReadTimeout)
		assert.Equal(t, defaultWriteTimeout, srv.WriteTimeout)
		assert.Equal(t, defaultIdleTimeout, srv.IdleTimeout)

		srv = New(&config.Config{Host: "0.0.0.0", Port: "8080"}, handler)
		assert.Equal(t, defaultIdleTimeout, srv.IdleTimeout)
	})
}
