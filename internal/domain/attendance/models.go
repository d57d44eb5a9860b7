package attendance

import "time"

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusHalfDay = "half-day"
)

// Record is one attendance entry for one employee on one calendar day.
// (EmployeeID, Day) is the natural key; the store enforces its uniqueness.
type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Day        time.Time  `json:"date"`
	CheckIn    *time.Time `json:"checkInTime,omitempty"`
	CheckOut   *time.Time `json:"checkOutTime,omitempty"`
	Status     string     `json:"status"`
	TotalHours *float64   `json:"totalHours,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// EmployeeRecord is a Record joined with the display attributes of its owner.
type EmployeeRecord struct {
	Record
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmployeeNumber string `json:"employeeNumber"`
	Department     string `json:"department"`
}

type Summary struct {
	Present    int            `json:"present"`
	Absent     int            `json:"absent"`
	Late       int            `json:"late"`
	HalfDay    int            `json:"halfday"`
	Other      map[string]int `json:"other,omitempty"`
	TotalHours float64        `json:"totalHours"`
}

type TrendPoint struct {
	Date  string  `json:"date"`
	Day   string  `json:"day"`
	Hours float64 `json:"hours"`
}

type DepartmentCount struct {
	Department  string `json:"department"`
	PresentDays int    `json:"presentDays"`
}

// ShiftPolicy drives status assignment: arrivals after LateAfter (HH:MM) are
// late, checkouts below HalfDayBelow worked hours are half-day.
type ShiftPolicy struct {
	LateAfter    string
	HalfDayBelow float64
}

// DateOf truncates a timestamp to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last day of t's month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	year, month, _ := t.Date()
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}
