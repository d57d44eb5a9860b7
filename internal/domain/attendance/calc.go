package attendance

import (
	"math"
	"sort"
	"time"
)

// RoundHours converts a worked duration to hours rounded to 2 decimal places.
func RoundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

// StatusForCheckIn classifies an arrival against the policy's late threshold.
// The threshold is a clock time compared on the arrival's own day.
func StatusForCheckIn(now time.Time, policy ShiftPolicy) string {
	threshold, err := time.Parse("15:04", policy.LateAfter)
	if err != nil {
		return StatusPresent
	}
	year, month, day := now.Date()
	cutoff := time.Date(year, month, day, threshold.Hour(), threshold.Minute(), 0, 0, now.Location())
	if now.After(cutoff) {
		return StatusLate
	}
	return StatusPresent
}

// StatusForCheckOut demotes an attended day to half-day when the worked hours
// fall below the policy minimum. Absent rows are never promoted.
func StatusForCheckOut(current string, hours float64, policy ShiftPolicy) string {
	if current == StatusAbsent {
		return current
	}
	if hours < policy.HalfDayBelow {
		return StatusHalfDay
	}
	return current
}

// Summarize buckets records by status and sums their worked hours. Records
// without hours contribute 0; statuses outside the known set land in Other.
// A fresh accumulator is built per call.
func Summarize(records []Record) Summary {
	summary := Summary{}
	for _, rec := range records {
		switch rec.Status {
		case StatusPresent:
			summary.Present++
		case StatusAbsent:
			summary.Absent++
		case StatusLate:
			summary.Late++
		case StatusHalfDay:
			summary.HalfDay++
		default:
			if summary.Other == nil {
				summary.Other = make(map[string]int)
			}
			summary.Other[rec.Status]++
		}
		if rec.TotalHours != nil {
			summary.TotalHours += *rec.TotalHours
		}
	}
	summary.TotalHours = math.Round(summary.TotalHours*100) / 100
	return summary
}

// FilterMonth keeps only records whose day falls in (month, year).
func FilterMonth(records []Record, month time.Month, year int) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Day.Month() == month && rec.Day.Year() == year {
			out = append(out, rec)
		}
	}
	return out
}

// Trend groups records by day, sums worked hours per day and returns one
// point per distinct date in ascending order, tagged with the weekday name.
func Trend(records []Record) []TrendPoint {
	totals := make(map[string]float64)
	days := make(map[string]time.Time)
	for _, rec := range records {
		key := rec.Day.Format("2006-01-02")
		days[key] = rec.Day
		if rec.TotalHours != nil {
			totals[key] += *rec.TotalHours
		} else {
			totals[key] += 0
		}
	}

	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	points := make([]TrendPoint, 0, len(keys))
	for _, key := range keys {
		points = append(points, TrendPoint{
			Date:  key,
			Day:   days[key].Format("Mon"),
			Hours: math.Round(totals[key]*100) / 100,
		})
	}
	return points
}

// DepartmentCounts tallies attended records (anything but absent) per
// department, sorted by department name.
func DepartmentCounts(rows []EmployeeRecord) []DepartmentCount {
	counts := make(map[string]int)
	for _, row := range rows {
		if row.Status == StatusAbsent {
			continue
		}
		counts[row.Department]++
	}

	departments := make([]string, 0, len(counts))
	for dep := range counts {
		departments = append(departments, dep)
	}
	sort.Strings(departments)

	out := make([]DepartmentCount, 0, len(departments))
	for _, dep := range departments {
		out = append(out, DepartmentCount{Department: dep, PresentDays: counts[dep]})
	}
	return out
}
