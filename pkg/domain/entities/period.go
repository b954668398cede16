package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/vsinha/capplan/pkg/domain/errs"
)

// PeriodType represents the granularity of a planning period
type PeriodType int

const (
	Week PeriodType = iota
	Month
	Quarter
)

// String method for PeriodType enum
func (t PeriodType) String() string {
	switch t {
	case Week:
		return "WEEK"
	case Month:
		return "MONTH"
	case Quarter:
		return "QUARTER"
	default:
		return "UNKNOWN"
	}
}

// ParsePeriodType converts a textual granularity into a PeriodType
func ParsePeriodType(s string) (PeriodType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WEEK":
		return Week, nil
	case "MONTH":
		return Month, nil
	case "QUARTER":
		return Quarter, nil
	default:
		return 0, errs.Validation("period type", "unknown granularity %q", s)
	}
}

func (t PeriodType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PeriodType) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriodType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Period is a discrete calendar bucket. EndDate is inclusive.
type Period struct {
	ID        string     `json:"id"`
	Type      PeriodType `json:"type"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Label     string     `json:"label"`
}

// NewPeriod creates a validated Period with day-truncated dates
func NewPeriod(id string, periodType PeriodType, start, end time.Time, label string) (*Period, error) {
	p := &Period{
		ID:        id,
		Type:      periodType,
		StartDate: Day(start),
		EndDate:   Day(end),
		Label:     label,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the period invariants
func (p Period) Validate() error {
	if p.ID == "" {
		return errs.Validation("period id", "cannot be empty")
	}
	if p.EndDate.Before(p.StartDate) {
		return errs.Validation("period dates", "end %s is before start %s",
			p.EndDate.Format(DateLayout), p.StartDate.Format(DateLayout))
	}
	return nil
}

// Days returns the inclusive number of days in the period
func (p Period) Days() int {
	return DaysInclusive(p.StartDate, p.EndDate)
}

// Contains reports whether the given day falls inside the period
func (p Period) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// Day truncates a timestamp to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errs.Validation("date", "invalid date %q", s)
	}
	return t, nil
}

// DaysInclusive counts calendar days from start to end, both included.
// Returns 0 when end precedes start.
func DaysInclusive(start, end time.Time) int {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// QuarterPeriods generates the four calendar quarters of a year
func QuarterPeriods(year int) []Period {
	periods := make([]Period, 0, 4)
	for q := 0; q < 4; q++ {
		start := time.Date(year, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 3, -1)
		periods = append(periods, Period{
			ID:        fmt.Sprintf("%d-Q%d", year, q+1),
			Type:      Quarter,
			StartDate: start,
			EndDate:   end,
			Label:     fmt.Sprintf("Q%d %d", q+1, year),
		})
	}
	return periods
}

// WeekPeriods generates Monday-to-Sunday ISO weeks covering [from, to]
func WeekPeriods(from, to time.Time) []Period {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return nil
	}
	offset := (int(from.Weekday()) + 6) % 7
	start := from.AddDate(0, 0, -offset)

	var periods []Period
	for !start.After(to) {
		year, week := start.ISOWeek()
		periods = append(periods, Period{
			ID:        fmt.Sprintf("%d-W%02d", year, week),
			Type:      Week,
			StartDate: start,
			EndDate:   start.AddDate(0, 0, 6),
			Label:     fmt.Sprintf("Week %d %d", week, year),
		})
		start = start.AddDate(0, 0, 7)
	}
	return periods
}
