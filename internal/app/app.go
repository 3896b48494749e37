package app

import (
	"context"
	"fmt"
	"hugoquiz/internal/cache"
	"hugoquiz/internal/config"
	"hugoquiz/internal/quiz"
	"hugoquiz/internal/service"
	"hugoquiz/internal/transport/rest"
	"hugoquiz/internal/transport/ws"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired services of the quiz server
type App struct {
	Config         *config.Config
	SessionCache   cache.SessionCache
	AuthService    *service.AuthService
	SessionService *service.SessionService
	WSHub          *ws.Hub
	Handler        http.Handler

	rdb *redis.Client
	log *zap.Logger
}

// New connects the session store and builds the services and the router
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	if cfg.UsesRedis() {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.rdb.Ping(pingCtx).Err(); err != nil {
			a.rdb.Close()
			return nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
		}
		a.SessionCache = cache.NewSessionCache(a.rdb, cfg.SessionTTL())
		log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	} else {
		a.SessionCache = cache.NewMemorySessionCache(cfg.SessionTTL())
		log.Warn("REDIS_ADDR not set, keeping sessions in memory")
	}

	api := service.NewQuestionnaireClient(cfg.APIConfig, log)
	a.AuthService = service.NewAuthService(cfg.OperatorUsername, cfg.OperatorPassword, cfg.JWTSecret, cfg.SessionTTL())
	a.WSHub = ws.NewHub(log)
	a.SessionService = service.NewSessionService(a.SessionCache, quiz.NewController(api), a.AuthService, log)
	a.SessionService.SetBroadcaster(a.WSHub)

	a.Handler = rest.NewRouter(&rest.Container{
		AuthService:        a.AuthService,
		SessionService:     a.SessionService,
		WSHub:              a.WSHub,
		Logger:             log,
		SecureCookies:      cfg.IsProduction(),
		MaxRequestsPerMin:  cfg.MaxRequestsPerMin,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	return a, nil
}

// Close stops the hub and releases the redis connection
func (a *App) Close() error {
	a.WSHub.Close()
	if a.rdb != nil {
		return a.rdb.Close()
	}
	return nil
}
