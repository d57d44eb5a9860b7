package attendancehandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"punchclock/internal/domain/attendance"
	"punchclock/internal/domain/audit"
	"punchclock/internal/domain/auth"
	"punchclock/internal/platform/config"
	"punchclock/internal/platform/jobs"
	"punchclock/internal/transport/http/api"
	"punchclock/internal/transport/http/middleware"
	"punchclock/internal/transport/http/shared"
)

type Handler struct {
	Service *attendance.Service
	Audit   *audit.Service
	Jobs    *jobs.Service
	Cfg     config.Config
}

func NewHandler(service *attendance.Service, auditSvc *audit.Service, jobsSvc *jobs.Service, cfg config.Config) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Jobs: jobsSvc, Cfg: cfg}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Post("/check-in", h.handleCheckIn)
		r.Post("/check-out", h.handleCheckOut)
		r.Get("/history", h.handleHistory)
		r.Get("/summary", h.handleMonthlySummary)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleManager))
			r.Get("/records", h.handleAllRecords)
			r.Get("/records/{employeeID}", h.handleEmployeeRecords)
			r.Get("/today", h.handleToday)
			r.Get("/team-summary", h.handleTeamSummary)
			r.Get("/weekly-trend", h.handleWeeklyTrend)
			r.Get("/departments", h.handleDepartmentSummary)
			r.Post("/reconcile", h.handleReconcile)
		})
	})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	rec, err := h.Service.CheckIn(r.Context(), user.UserID, time.Now())
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			api.Fail(w, http.StatusConflict, "already_checked_in", "already checked in today", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "check_in_failed", "failed to check in", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "attendance.check_in", "attendance", rec.ID, requestID); err != nil {
		slog.Warn("audit record failed", "action", "attendance.check_in", "err", err)
	}
	api.Created(w, rec, requestID)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	rec, err := h.Service.CheckOut(r.Context(), user.UserID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrNoCheckInFound):
			api.Fail(w, http.StatusBadRequest, "no_check_in", "no check-in found for today", requestID)
		case errors.Is(err, attendance.ErrAlreadyCheckedOut):
			api.Fail(w, http.StatusConflict, "already_checked_out", "already checked out today", requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "check_out_failed", "failed to check out", requestID)
		}
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "attendance.check_out", "attendance", rec.ID, requestID); err != nil {
		slog.Warn("audit record failed", "action", "attendance.check_out", "err", err)
	}
	api.Success(w, rec, requestID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	records, err := h.Service.History(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load history", requestID)
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	api.Success(w, shared.Slice(records, page), requestID)
}

func (h *Handler) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	now := time.Now()
	month := now.Month()
	year := now.Year()
	v := shared.NewValidator()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			v.Add("month", "must be a number between 1 and 12")
		} else {
			month = time.Month(parsed)
		}
	}
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2200 {
			v.Add("year", "must be a four digit year")
		} else {
			year = parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	summary, err := h.Service.MonthlySummary(r.Context(), user.UserID, month, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to build summary", requestID)
		return
	}

	api.Success(w, map[string]any{
		"month":   int(month),
		"year":    year,
		"summary": summary,
	}, requestID)
}

func (h *Handler) handleAllRecords(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	records, err := h.Service.AllRecords(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load records", requestID)
		return
	}

	page := shared.ParsePagination(r, 200, 1000)
	api.Success(w, shared.Slice(records, page), requestID)
}

func (h *Handler) handleEmployeeRecords(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	records, err := h.Service.EmployeeRecords(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, attendance.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load records", requestID)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}

	api.Success(w, records, requestID)
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	records, err := h.Service.TodayStatus(r.Context(), time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load today's records", requestID)
		return
	}
	if records == nil {
		records = []attendance.EmployeeRecord{}
	}

	api.Success(w, records, requestID)
}

func (h *Handler) handleTeamSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	start, end := attendance.MonthBounds(time.Now())
	v := shared.NewValidator()
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		if parsed, ok := v.Date("startDate", raw); ok {
			start = attendance.DateOf(parsed)
		}
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		if parsed, ok := v.Date("endDate", raw); ok {
			end = attendance.DateOf(parsed)
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	summary, err := h.Service.TeamSummary(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidDateRange) {
			api.Fail(w, http.StatusBadRequest, "invalid_date_range", "start date must be on or before end date", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to build summary", requestID)
		return
	}

	api.Success(w, map[string]any{
		"startDate": start.Format("2006-01-02"),
		"endDate":   end.Format("2006-01-02"),
		"summary":   summary,
	}, requestID)
}

func (h *Handler) handleWeeklyTrend(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	days := h.Cfg.TrendWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			api.Fail(w, http.StatusBadRequest, "validation_error", "days must be a number between 1 and 90", requestID)
			return
		}
		days = parsed
	}

	points, err := h.Service.WeeklyTrend(r.Context(), time.Now(), days)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to build trend", requestID)
		return
	}
	if points == nil {
		points = []attendance.TrendPoint{}
	}

	api.Success(w, points, requestID)
}

func (h *Handler) handleDepartmentSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	counts, err := h.Service.DepartmentSummary(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to build department summary", requestID)
		return
	}
	if counts == nil {
		counts = []attendance.DepartmentCount{}
	}

	api.Success(w, counts, requestID)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	day := time.Now().AddDate(0, 0, -1)
	v := shared.NewValidator()
	if raw := r.URL.Query().Get("date"); raw != "" {
		if parsed, ok := v.Date("date", raw); ok {
			day = parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	details, err := h.Jobs.ReconcileDay(r.Context(), day)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reconcile_failed", "failed to reconcile absences", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "attendance.reconcile", "attendance", attendance.DateOf(day).Format("2006-01-02"), requestID); err != nil {
		slog.Warn("audit record failed", "action", "attendance.reconcile", "err", err)
	}
	api.Success(w, details, requestID)
}
