package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses an "HH:MM" wall-clock value.
func ParseClock(value string) (int, int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock value %q", value)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// WorkingMinutesPerDay returns the span between workStart and workEnd.
func WorkingMinutesPerDay(workStart, workEnd string) (int, error) {
	startHour, startMin, err := ParseClock(workStart)
	if err != nil {
		return 0, err
	}
	endHour, endMin, err := ParseClock(workEnd)
	if err != nil {
		return 0, err
	}
	minutes := (endHour*60 + endMin) - (startHour*60 + startMin)
	if minutes <= 0 {
		return 0, fmt.Errorf("work end %q not after work start %q", workEnd, workStart)
	}
	return minutes, nil
}

// ParseWorkingDays converts the stored comma list of weekday numbers
// (0=Sunday) into a lookup set.
func ParseWorkingDays(raw string) map[time.Weekday]bool {
	days := map[time.Weekday]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		number, err := strconv.Atoi(part)
		if err != nil || number < 0 || number > 6 {
			continue
		}
		days[time.Weekday(number)] = true
	}
	return days
}

// WorkingDaysInMonth counts days of the month that fall on a configured
// working weekday and are not listed as holidays.
func WorkingDaysInMonth(year int, month time.Month, workingDays map[time.Weekday]bool, holidays map[string]bool) int {
	count := 0
	day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == month {
		if workingDays[day.Weekday()] && !holidays[day.Format("2006-01-02")] {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// PerMinuteRate derives the salary accrual rate for the given month from a
// monthly salary and the company's working-time settings.
func PerMinuteRate(salary float64, workStart, workEnd string, workingDaysInMonth int) (float64, error) {
	if salary <= 0 || workingDaysInMonth <= 0 {
		return 0, nil
	}
	minutesPerDay, err := WorkingMinutesPerDay(workStart, workEnd)
	if err != nil {
		return 0, err
	}
	return salary / float64(workingDaysInMonth*minutesPerDay), nil
}
