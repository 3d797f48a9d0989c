package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"agriadvisor/entities"
	"agriadvisor/pkg/logger"
)

type RedisPublisher struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisPublisher connects to addr and publishes every event as JSON on
// channel.
func NewRedisPublisher(ctx context.Context, addr, channel string, log *logger.Logger) (*RedisPublisher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, eris.New("notify: redis addr required")
	}
	if strings.TrimSpace(channel) == "" {
		channel = "advisor-events"
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrap(err, "notify: redis ping")
	}
	return &RedisPublisher{
		log:     logger.OrNop(log).With("service", "RedisEventPublisher"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, ev entities.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "notify: marshal event")
	}
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		return eris.Wrapf(err, "notify: publish %s", ev.Kind)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return p.rdb.Close() }
