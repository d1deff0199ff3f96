package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/lumina-interior/backend/internal/config"
	sessionHandler "github.com/zhouzirui/lumina-interior/backend/internal/handler/session"
	"github.com/zhouzirui/lumina-interior/backend/internal/handler/stream"
	styleHandler "github.com/zhouzirui/lumina-interior/backend/internal/handler/style"
	middlewarePkg "github.com/zhouzirui/lumina-interior/backend/internal/middleware"
	styleModel "github.com/zhouzirui/lumina-interior/backend/internal/model/style"
	"github.com/zhouzirui/lumina-interior/backend/internal/service/events"
	sessionService "github.com/zhouzirui/lumina-interior/backend/internal/service/session"
	"github.com/zhouzirui/lumina-interior/backend/pkg/utils"
)

// Dependencies 路由所需的核心服务
type Dependencies struct {
	Config   config.Config
	Styles   styleModel.Store
	Sessions *sessionService.Service
	Broker   *events.Broker
	Logger   *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.Config.Server.AllowedOrigins))

	chatLimiter := middlewarePkg.NewRateLimiter(
		deps.Config.Session.ChatRatePerMinute,
		deps.Config.Session.ChatRateBurst,
		deps.Config.Session.IdleTTL,
		func(r *http.Request) string { return chi.URLParam(r, "sessionID") },
	)

	styles := styleHandler.New(deps.Styles)
	sessions := sessionHandler.New(deps.Sessions, sessionHandler.Options{
		MaxUploadBytes: deps.Config.Server.MaxUploadBytes,
		ChatLimiter:    chatLimiter.Handler,
		Logger:         logger,
	})
	streams := stream.New(deps.Sessions, deps.Broker, logger)

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{
				"status": "ok",
				"time":   time.Now().UTC().Format(time.RFC3339),
			})
		})

		styles.RegisterRoutes(api)
		sessions.RegisterRoutes(api)
		streams.RegisterRoutes(api)
	})

	streams.RegisterWebSocketRoutes(r)

	return r
}
