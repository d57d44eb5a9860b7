package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	FindByDay(ctx context.Context, employeeID string, day time.Time) (Record, error)
	SetCheckOut(ctx context.Context, recordID string, checkOut time.Time, status string, totalHours float64) (Record, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Record, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]Record, error)
	ListAllJoined(ctx context.Context) ([]EmployeeRecord, error)
	ListDayJoined(ctx context.Context, day time.Time) ([]EmployeeRecord, error)
	ListRangeJoined(ctx context.Context, start, end time.Time, employeeID string) ([]EmployeeRecord, error)
	MissingEmployeeIDs(ctx context.Context, day time.Time) ([]string, error)
	InsertAbsent(ctx context.Context, employeeID string, day time.Time) (bool, error)
	EmployeeExists(ctx context.Context, employeeID string) (bool, error)
}
