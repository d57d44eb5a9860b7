package reportshandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"punchclock/internal/domain/attendance"
	"punchclock/internal/domain/audit"
	"punchclock/internal/domain/auth"
	"punchclock/internal/domain/reports"
	"punchclock/internal/transport/http/api"
	"punchclock/internal/transport/http/middleware"
	"punchclock/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Audit   *audit.Service
}

func NewHandler(service *reports.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleManager))
		r.Get("/export", h.handleExport)
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	query := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if format == "" {
		format = "csv"
	}

	v := shared.NewValidator()
	v.Required("startDate", query.Get("startDate"), "startDate is required")
	v.Required("endDate", query.Get("endDate"), "endDate is required")
	v.Enum("format", format, []string{"csv", "pdf"}, "must be csv or pdf")
	if v.HasIssues() {
		v.Reject(w, requestID)
		return
	}
	start, startOK := v.Date("startDate", query.Get("startDate"))
	end, endOK := v.Date("endDate", query.Get("endDate"))
	if startOK && endOK {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if v.Reject(w, requestID) {
		return
	}

	start = attendance.DateOf(start)
	end = attendance.DateOf(end)
	employeeID := strings.TrimSpace(query.Get("employeeId"))

	rows, err := h.Service.Export(r.Context(), start, end, employeeID)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrInvalidDateRange):
			api.Fail(w, http.StatusBadRequest, "invalid_date_range", "start date must be on or before end date", requestID)
		case errors.Is(err, attendance.ErrEmployeeNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to build report", requestID)
		}
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "reports.export", "report", format, requestID); err != nil {
		slog.Warn("audit record failed", "action", "reports.export", "err", err)
	}

	switch format {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance_report.pdf"`)
		if err := reports.WritePDF(w, rows, start, end); err != nil {
			slog.Warn("pdf export write failed", "err", err)
		}
	default:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance_report.csv"`)
		if err := reports.WriteCSV(w, rows); err != nil {
			slog.Warn("csv export write failed", "err", err)
		}
	}
}
