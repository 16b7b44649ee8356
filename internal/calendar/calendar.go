// Package calendar resolves leave requests into per-day absences using the
// owner's working schedule and the company's bank holidays.
package calendar

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
)

var half = decimal.NewFromFloat(0.5)

// Day is one absence day of one user.
type Day struct {
	Date        time.Time
	UserID      snowflake.ID
	LeaveTypeID snowflake.ID
	Status      userdomain.LeaveStatus
	Morning     bool
	Afternoon   bool
}

func (d Day) IsFullDay() bool { return d.Morning && d.Afternoon }

func (d Day) IsMorningOnly() bool { return d.Morning && !d.Afternoon }

func (d Day) IsAfternoonOnly() bool { return d.Afternoon && !d.Morning }

// Deduction is the allowance the day consumes.
func (d Day) Deduction() decimal.Decimal {
	switch {
	case d.IsFullDay():
		return decimal.NewFromInt(1)
	case d.Morning || d.Afternoon:
		return half
	default:
		return decimal.Zero
	}
}

// Holidays is a set of ISO dates.
type Holidays map[string]struct{}

func HolidaySet(holidays []*companydomain.BankHoliday) Holidays {
	set := make(Holidays, len(holidays))
	for _, h := range holidays {
		set[h.DateKey()] = struct{}{}
	}
	return set
}

func (h Holidays) Contains(day time.Time) bool {
	_, ok := h[day.Format(companydomain.ISODateLayout)]
	return ok
}

// IsWorkingDay is true when the schedule works that weekday and it is not a
// bank holiday.
func IsWorkingDay(schedule *companydomain.Schedule, holidays Holidays, day time.Time) bool {
	return schedule.Works(day.Weekday()) && !holidays.Contains(day)
}

// Resolve expands leaves into days within [from, to]. Only working days are
// returned. Overlapping leaves on the same day merge their halves.
func Resolve(schedule *companydomain.Schedule, holidays Holidays, leaves []*userdomain.Leave, from, to time.Time) []Day {
	from, to = dateOnly(from), dateOnly(to)
	byDate := make(map[string]*Day)

	for _, leave := range leaves {
		start, end := leave.Start(), leave.End()
		if end.Before(start) {
			continue
		}
		for day := maxTime(start, from); !day.After(minTime(end, to)); day = day.AddDate(0, 0, 1) {
			if !IsWorkingDay(schedule, holidays, day) {
				continue
			}
			morning, afternoon := dayParts(leave, day)
			key := day.Format(companydomain.ISODateLayout)
			existing, ok := byDate[key]
			if !ok {
				existing = &Day{
					Date:        day,
					UserID:      leave.UserID,
					LeaveTypeID: leave.LeaveTypeID,
					Status:      leave.Status,
				}
				byDate[key] = existing
			}
			existing.Morning = existing.Morning || morning
			existing.Afternoon = existing.Afternoon || afternoon
		}
	}

	days := make([]Day, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// dayParts returns the halves of day covered by leave.
func dayParts(leave *userdomain.Leave, day time.Time) (bool, bool) {
	start, end := leave.Start(), leave.End()
	switch {
	case start.Equal(end):
		return fromPart(leave.DayPartStart)
	case day.Equal(start):
		if leave.DayPartStart == userdomain.DayPartAfternoon {
			return false, true
		}
		return true, true
	case day.Equal(end):
		if leave.DayPartEnd == userdomain.DayPartMorning {
			return true, false
		}
		return true, true
	default:
		return true, true
	}
}

func fromPart(part userdomain.DayPart) (bool, bool) {
	switch part {
	case userdomain.DayPartMorning:
		return true, false
	case userdomain.DayPartAfternoon:
		return false, true
	default:
		return true, true
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// YearRange is Jan 1 to Dec 31 of year.
func YearRange(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}
