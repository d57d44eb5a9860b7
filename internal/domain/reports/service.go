package reports

import (
	"context"
	"time"

	"punchclock/internal/domain/attendance"
)

// EmployeeAll is the sentinel meaning "no employee filter".
const EmployeeAll = "all"

type Service struct {
	Store attendance.StoreAPI
}

func NewService(store attendance.StoreAPI) *Service {
	return &Service{Store: store}
}

// Export returns the flattened rows for records in [start, end] inclusive,
// optionally filtered to one employee. The range is validated before any
// store access.
func (s *Service) Export(ctx context.Context, start, end time.Time, employeeID string) ([]Row, error) {
	if start.After(end) {
		return nil, attendance.ErrInvalidDateRange
	}

	if employeeID == EmployeeAll {
		employeeID = ""
	}
	if employeeID != "" {
		exists, err := s.Store.EmployeeExists(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, attendance.ErrEmployeeNotFound
		}
	}

	records, err := s.Store.ListRangeJoined(ctx, start, end, employeeID)
	if err != nil {
		return nil, err
	}
	return BuildRows(records), nil
}
