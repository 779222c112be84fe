package security

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		cfg      HeadersConfig
		wantHSTS bool
	}{
		{"production", HeadersConfig{AllowedOrigins: []string{"https://civic.example.in"}}, true},
		{"development", HeadersConfig{AllowedOrigins: []string{"http://localhost:3000"}, IsDevelopment: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(HeadersMiddleware(tt.cfg))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)

			assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			assert.Equal(t, tt.wantHSTS, resp.Header.Get("Strict-Transport-Security") != "")
			assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "frame-ancestors 'none'")
		})
	}
}

func TestConnectSrc(t *testing.T) {
	assert.Equal(t, "'self'", connectSrc(nil))
	assert.Equal(t, "'self'", connectSrc([]string{"*"}))
	assert.Equal(t,
		"'self' https://civic.example.in wss://civic.example.in http://localhost:3000 ws://localhost:3000",
		connectSrc([]string{"https://civic.example.in", "http://localhost:3000"}))
}
