package role

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oncolens/assistant/internal/model/role"
	"github.com/oncolens/assistant/pkg/utils"
)

// Handler serves the role profiles the widget is configured from.
type Handler struct {
	roles role.Store
}

// New creates a role handler.
func New(roles role.Store) *Handler {
	return &Handler{roles: roles}
}

// RegisterRoutes registers the role routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/roles", h.handleListRoles)
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.roles.List())
}
