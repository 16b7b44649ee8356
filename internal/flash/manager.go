package flash

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/timeoff/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const CookieName = "_flash"

// Manager ties a browser to its flash messages through a cookie.
type Manager struct {
	store  Store
	secure bool
	log    *zap.Logger
}

func NewManager(store Store, cfg config.Config, log *zap.Logger) *Manager {
	return &Manager{store: store, secure: cfg.AuthCookieSecure, log: log.Named("flash")}
}

// Add keeps msgs for the next request of the same browser.
func (m *Manager) Add(c *gin.Context, msgs Messages) {
	if msgs.Empty() {
		return
	}
	if err := m.store.Put(c.Request.Context(), m.key(c), msgs); err != nil {
		m.log.Warn("failed to store flash messages", zap.Error(err))
	}
}

// Pop returns the messages left by the previous request.
func (m *Manager) Pop(c *gin.Context) Messages {
	key, err := c.Cookie(CookieName)
	if err != nil || strings.TrimSpace(key) == "" {
		return Messages{}
	}
	msgs, err := m.store.Take(c.Request.Context(), key)
	if err != nil {
		m.log.Warn("failed to read flash messages", zap.Error(err))
		return Messages{}
	}
	return msgs
}

func (m *Manager) key(c *gin.Context) string {
	if key, err := c.Cookie(CookieName); err == nil && strings.TrimSpace(key) != "" {
		return key
	}
	key := ulid.Make().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, key, 0, "/", "", m.secure, true)
	return key
}

// NewStore uses redis when REDIS_ADDR is configured, else an in-process LRU.
func NewStore(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Store {
	if cfg.RedisAddr == "" {
		return NewMemoryStore(defaultCapacity, defaultTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis flash store unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisStore(client, defaultTTL)
}
