package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/analytics"
	"github.com/eleven-am/agent-widget/internal/apikey"
	"github.com/eleven-am/agent-widget/internal/auth"
	"github.com/eleven-am/agent-widget/internal/chat"
	"github.com/eleven-am/agent-widget/internal/session"
	"github.com/eleven-am/agent-widget/internal/user"
	"github.com/eleven-am/agent-widget/internal/verification"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type HandlerParams struct {
	fx.In

	Lifecycle           fx.Lifecycle
	UserHandler         *user.Handler
	AgentHandler        *agent.Handler
	APIKeyHandler       *apikey.Handler
	AnalyticsHandler    *analytics.Handler
	SessionHandler      *session.Handler
	ChatHandler         *chat.Handler
	WSHandler           *chat.WSHandler
	VerificationHandler *verification.Handler
	JWTMiddleware       *auth.Middleware
	Config              *Config
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")

	authGroup := api.Group("/auth", params.JWTMiddleware.Authenticate)
	params.UserHandler.RegisterRoutes(authGroup)
	if params.VerificationHandler != nil {
		params.VerificationHandler.RegisterRoutes(authGroup)
	}

	params.AgentHandler.RegisterRoutes(api.Group("/agents", params.JWTMiddleware.Authenticate))
	params.APIKeyHandler.RegisterRoutes(api.Group("/agents/:id/keys", params.JWTMiddleware.Authenticate))
	params.AnalyticsHandler.RegisterRoutes(api.Group("", params.JWTMiddleware.Authenticate))
	params.SessionHandler.RegisterRoutes(api.Group("/metrics", params.JWTMiddleware.Authenticate))

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopLimiter()
			return nil
		},
	})
	widget := api.Group("/widget", chat.RateLimiter(limiterCtx, chat.RateLimiterConfig{
		RequestsPerSecond: params.Config.WidgetRateLimitRPS,
		Burst:             params.Config.WidgetRateLimitBurst,
		CleanupInterval:   chat.DefaultRateLimiterConfig().CleanupInterval,
	}))
	params.ChatHandler.RegisterRoutes(widget, params.WSHandler)

	if params.Config.StaticDir != "" {
		e.Static("/static", params.Config.StaticDir)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideJWTValidator(cfg *Config) *auth.JWTValidator {
	return auth.NewJWTValidator([]byte(cfg.HMACKey))
}

func ProvideJWTMiddleware(validator *auth.JWTValidator, userStore *user.Store) *auth.Middleware {
	return auth.NewMiddleware(validator, userStore)
}

func ProvideUserHandler(store *user.Store, logger *slog.Logger) *user.Handler {
	return user.NewHandler(store, logger)
}

func ProvideAgentHandler(store *agent.Store, userStore *user.Store, logger *slog.Logger) *agent.Handler {
	return agent.NewHandler(store, userStore, logger)
}

func ProvideAPIKeyHandler(store *apikey.Store, agents *agent.Store, logger *slog.Logger) *apikey.Handler {
	return apikey.NewHandler(store, agents, logger)
}

func ProvideAnalyticsHandler(agents *agent.Store, logger *slog.Logger) *analytics.Handler {
	return analytics.NewHandler(agents, logger)
}

func ProvideSessionHandler(store *session.Store, agents *agent.Store, logger *slog.Logger) *session.Handler {
	return session.NewHandler(store, agents, logger)
}

func ProvideChatHandler(manager *chat.Manager, logger *slog.Logger) *chat.Handler {
	return chat.NewHandler(manager, logger)
}

func ProvideWSHandler(manager *chat.Manager, cfg chat.WSConfig, logger *slog.Logger) *chat.WSHandler {
	return chat.NewWSHandler(manager, cfg, logger)
}

func ProvideVerificationHandler(service *verification.Service, logger *slog.Logger) *verification.Handler {
	if service == nil {
		return nil
	}
	return verification.NewHandler(service, logger)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideJWTValidator,
		ProvideJWTMiddleware,
		ProvideUserHandler,
		ProvideAgentHandler,
		ProvideAPIKeyHandler,
		ProvideAnalyticsHandler,
		ProvideSessionHandler,
		ProvideChatHandler,
		ProvideWSHandler,
		ProvideVerificationHandler,
	),
	fx.Invoke(RegisterRoutes),
)
