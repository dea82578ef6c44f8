package config

import "context"

type ctxKey struct{}

// WithContext attaches the resolved configuration to a context, following
// the teacher's config.FromContext pattern used throughout engine/*.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the configuration attached to ctx, or the built-in
// defaults when none was attached (e.g. in unit tests).
func FromContext(ctx context.Context) *Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok && cfg != nil {
			return cfg
		}
	}
	return Default()
}
