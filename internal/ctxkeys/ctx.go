package ctxkeys

import (
	"context"

	"github.com/atelierhq/atelier/internal/config"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserIDKey contextKey = "user_id"
	ConfigKey contextKey = "config"
)

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}
