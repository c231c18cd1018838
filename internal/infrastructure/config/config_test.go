package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validSecret    = "0123456789abcdef0123456789abcdef"
	validResetBase = "https://shop.example/api/v1/password/reset"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":     validSecret,
		"RESET_URL_BASE": validResetBase,
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, validResetBase, cfg.ResetURLBase)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.ResetWindow)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "log", cfg.Mail.Driver)
	assert.Equal(t, time.Minute, cfg.Redis.RoleTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         validSecret,
		"RESET_URL_BASE":     validResetBase,
		"ENV":                "production",
		"TOKEN_TTL":          "2h",
		"RESET_TOKEN_WINDOW": "5m",
		"CORS_ORIGINS":       "https://shop.example,https://admin.shop.example",
		"MAIL_DRIVER":        "smtp",
		"SMTP_HOST":          "smtp.shop.example",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.ResetWindow)
	assert.Equal(t, []string{"https://shop.example", "https://admin.shop.example"}, cfg.CORSOrigins)
	assert.Equal(t, "587", cfg.Mail.SMTPPort)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"RESET_URL_BASE": validResetBase}, "JWT_SECRET"},
		{"short secret", map[string]string{"JWT_SECRET": "short", "RESET_URL_BASE": validResetBase}, "JWT_SECRET"},
		{"bcrypt cost", map[string]string{"JWT_SECRET": validSecret, "RESET_URL_BASE": validResetBase, "BCRYPT_COST": "40"}, "BCRYPT_COST"},
		{"zero ttl", map[string]string{"JWT_SECRET": validSecret, "RESET_URL_BASE": validResetBase, "TOKEN_TTL": "0s"}, "TOKEN_TTL"},
		{"smtp without host", map[string]string{"JWT_SECRET": validSecret, "RESET_URL_BASE": validResetBase, "MAIL_DRIVER": "smtp"}, "SMTP_HOST"},
		{"unknown driver", map[string]string{"JWT_SECRET": validSecret, "RESET_URL_BASE": validResetBase, "MAIL_DRIVER": "pigeon"}, "MAIL_DRIVER"},
		{"missing reset base", map[string]string{"JWT_SECRET": validSecret}, "RESET_URL_BASE is required"},
		{"relative reset base", map[string]string{"JWT_SECRET": validSecret, "RESET_URL_BASE": "/api/v1/password/reset"}, "absolute http(s) URL"},
		{"reset base scheme", map[string]string{"JWT_SECRET": validSecret, "RESET_URL_BASE": "javascript://shop.example/x"}, "absolute http(s) URL"},
		{"plain http in production", map[string]string{"JWT_SECRET": validSecret, "ENV": "production", "RESET_URL_BASE": "http://shop.example/reset"}, "https in production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "error %q should mention %s", err, tt.want)
		})
	}
}
