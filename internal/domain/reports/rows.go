package reports

import (
	"sort"
	"strconv"

	"punchclock/internal/domain/attendance"
)

// Header is the fixed export column order. Consumers rely on it, not on the
// byte-exact serialization.
var Header = []string{
	"name", "email", "employeeId", "department",
	"date", "checkInTime", "checkOutTime", "status", "totalHours",
}

type Row struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmployeeNumber string `json:"employeeId"`
	Department     string `json:"department"`
	Date           string `json:"date"`
	CheckIn        string `json:"checkInTime"`
	CheckOut       string `json:"checkOutTime"`
	Status         string `json:"status"`
	TotalHours     string `json:"totalHours"`
}

// BuildRows flattens joined records into export rows sorted by (date, name)
// so repeated exports of the same data are byte-identical.
func BuildRows(records []attendance.EmployeeRecord) []Row {
	sorted := make([]attendance.EmployeeRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Day.Equal(sorted[j].Day) {
			return sorted[i].Day.Before(sorted[j].Day)
		}
		return sorted[i].Name < sorted[j].Name
	})

	rows := make([]Row, 0, len(sorted))
	for _, rec := range sorted {
		row := Row{
			Name:           rec.Name,
			Email:          rec.Email,
			EmployeeNumber: rec.EmployeeNumber,
			Department:     rec.Department,
			Date:           rec.Day.Format("2006-01-02"),
			Status:         rec.Status,
		}
		if rec.CheckIn != nil {
			row.CheckIn = rec.CheckIn.Format("15:04:05")
		}
		if rec.CheckOut != nil {
			row.CheckOut = rec.CheckOut.Format("15:04:05")
		}
		if rec.TotalHours != nil {
			row.TotalHours = strconv.FormatFloat(*rec.TotalHours, 'f', 2, 64)
		}
		rows = append(rows, row)
	}
	return rows
}

func (r Row) values() []string {
	return []string{
		r.Name, r.Email, r.EmployeeNumber, r.Department,
		r.Date, r.CheckIn, r.CheckOut, r.Status, r.TotalHours,
	}
}
