package attendance

import "errors"

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNoCheckInFound    = errors.New("no check-in found for today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrInvalidDateRange  = errors.New("start date must be on or before end date")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrRecordNotFound    = errors.New("attendance record not found")
)
