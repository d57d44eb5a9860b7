package corehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"punchclock/internal/domain/auth"
	"punchclock/internal/domain/core"
	"punchclock/internal/requestctx"
	"punchclock/internal/transport/http/api"
	"punchclock/internal/transport/http/middleware"
)

type Handler struct {
	Store *core.Store
}

func NewHandler(store *core.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.HandleMe)
	r.With(middleware.RequireRole(auth.RoleManager)).Get("/employees", h.HandleListEmployees)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, core.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load profile", requestID)
		return
	}

	api.Success(w, emp, requestID)
}

func (h *Handler) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list employees", requestID)
		return
	}
	if employees == nil {
		employees = []core.Employee{}
	}

	api.Success(w, employees, requestID)
}
