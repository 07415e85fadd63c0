package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/oncolens/assistant/internal/handler/chat"
	"github.com/oncolens/assistant/internal/handler/role"
	"github.com/oncolens/assistant/internal/handler/stream"
	"github.com/oncolens/assistant/internal/handler/ws"
	middlewarePkg "github.com/oncolens/assistant/internal/middleware"
	roleModel "github.com/oncolens/assistant/internal/model/role"
	chatService "github.com/oncolens/assistant/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(roles roleModel.Store, chatSvc *chatService.Service, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		role.New(roles).RegisterRoutes(api)
		chat.New(chatSvc).RegisterRoutes(api)
		stream.New(chatSvc, logger).RegisterRoutes(api)
		ws.New(chatSvc, logger).RegisterRoutes(api)
	})

	return r
}
