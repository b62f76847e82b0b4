package services

import "context"

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

var _ Pinger = (*RedisService)(nil)
