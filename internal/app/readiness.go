package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/lead-agent/internal/adapter/httpserver"
	"github.com/fairyhunter13/lead-agent/internal/domain"
)

// Pinger is the minimal interface for a database pool capable of Ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger is the minimal Redis client surface needed for readiness.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// BuildReadinessChecks returns a check per configured dependency. Nil
// dependencies are optional and produce no check. The provider check fails
// when neither credential is present, since every model-backed reply would
// then answer with a setup message.
func BuildReadinessChecks(pool Pinger, rdb RedisPinger, providers ...domain.Provider) []httpserver.ReadinessCheck {
	var checks []httpserver.ReadinessCheck
	if pool != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "db", Check: pool.Ping})
	}
	if rdb != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if len(providers) > 0 {
		checks = append(checks, httpserver.ReadinessCheck{Name: "providers", Check: func(context.Context) error {
			for _, p := range providers {
				if p != nil && p.Configured() {
					return nil
				}
			}
			return fmt.Errorf("%w: no provider credential set", domain.ErrProviderNotConfigured)
		}})
	}
	return checks
}
