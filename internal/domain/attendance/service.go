package attendance

import (
	"context"
	"errors"
	"time"
)

type Service struct {
	Store  StoreAPI
	Policy ShiftPolicy
}

func NewService(store StoreAPI, policy ShiftPolicy) *Service {
	return &Service{Store: store, Policy: policy}
}

// CheckIn creates today's record for the employee. The store's unique key on
// (employee, day) is the only duplicate guard, so two concurrent check-ins
// resolve to one success and one ErrAlreadyCheckedIn.
func (s *Service) CheckIn(ctx context.Context, employeeID string, now time.Time) (Record, error) {
	checkIn := now
	rec := Record{
		EmployeeID: employeeID,
		Day:        DateOf(now),
		CheckIn:    &checkIn,
		Status:     StatusForCheckIn(now, s.Policy),
	}
	return s.Store.Insert(ctx, rec)
}

// CheckOut closes today's record and computes the worked hours. A second
// checkout is rejected rather than silently overwriting the first.
func (s *Service) CheckOut(ctx context.Context, employeeID string, now time.Time) (Record, error) {
	rec, err := s.Store.FindByDay(ctx, employeeID, DateOf(now))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Record{}, ErrNoCheckInFound
		}
		return Record{}, err
	}
	if rec.CheckIn == nil {
		return Record{}, ErrNoCheckInFound
	}
	if rec.CheckOut != nil {
		return Record{}, ErrAlreadyCheckedOut
	}

	hours := RoundHours(now.Sub(*rec.CheckIn))
	status := StatusForCheckOut(rec.Status, hours, s.Policy)
	return s.Store.SetCheckOut(ctx, rec.ID, now, status, hours)
}

func (s *Service) History(ctx context.Context, employeeID string) ([]Record, error) {
	return s.Store.ListByEmployee(ctx, employeeID)
}

func (s *Service) MonthlySummary(ctx context.Context, employeeID string, month time.Month, year int) (Summary, error) {
	records, err := s.Store.ListByEmployee(ctx, employeeID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(FilterMonth(records, month, year)), nil
}

func (s *Service) TeamSummary(ctx context.Context, start, end time.Time) (Summary, error) {
	if start.After(end) {
		return Summary{}, ErrInvalidDateRange
	}
	records, err := s.Store.ListBetween(ctx, start, end)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records), nil
}

func (s *Service) TodayStatus(ctx context.Context, now time.Time) ([]EmployeeRecord, error) {
	return s.Store.ListDayJoined(ctx, DateOf(now))
}

// WeeklyTrend returns per-day summed hours for the trailing window ending
// today. The window is applied here, not by the consumer.
func (s *Service) WeeklyTrend(ctx context.Context, now time.Time, days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = 7
	}
	end := DateOf(now)
	start := end.AddDate(0, 0, -(days - 1))
	records, err := s.Store.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return Trend(records), nil
}

func (s *Service) DepartmentSummary(ctx context.Context) ([]DepartmentCount, error) {
	rows, err := s.Store.ListAllJoined(ctx)
	if err != nil {
		return nil, err
	}
	return DepartmentCounts(rows), nil
}

func (s *Service) AllRecords(ctx context.Context) ([]EmployeeRecord, error) {
	return s.Store.ListAllJoined(ctx)
}

func (s *Service) EmployeeRecords(ctx context.Context, employeeID string) ([]Record, error) {
	exists, err := s.Store.EmployeeExists(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrEmployeeNotFound
	}
	return s.Store.ListByEmployee(ctx, employeeID)
}

// ReconcileAbsences writes absent records for every active employee without a
// record on day. Weekends are skipped; the insert is idempotent, so re-running
// a day is safe. Returns the number of records written.
func (s *Service) ReconcileAbsences(ctx context.Context, day time.Time) (int, error) {
	day = DateOf(day)
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		return 0, nil
	}

	missing, err := s.Store.MissingEmployeeIDs(ctx, day)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, employeeID := range missing {
		inserted, err := s.Store.InsertAbsent(ctx, employeeID, day)
		if err != nil {
			return marked, err
		}
		if inserted {
			marked++
		}
	}
	return marked, nil
}
