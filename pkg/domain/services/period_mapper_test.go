package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMapDateRange(t *testing.T) {
	quarters := entities.QuarterPeriods(2025)

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected map[string]string
	}{
		{
			name:     "full_quarter",
			start:    date(2025, 1, 1),
			end:      date(2025, 3, 31),
			expected: map[string]string{"2025-Q1": "1"},
		},
		{
			name:     "half_of_april_quarter",
			start:    date(2025, 4, 1),
			end:      date(2025, 5, 15),
			expected: map[string]string{"2025-Q2": ""}, // 45 of 91 days
		},
		{
			name:     "spans_two_quarters",
			start:    date(2025, 3, 1),
			end:      date(2025, 6, 30),
			expected: map[string]string{"2025-Q1": "", "2025-Q2": "1"},
		},
		{
			name:     "outside_all_periods",
			start:    date(2030, 1, 1),
			end:      date(2030, 2, 1),
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overlaps, err := MapDateRange(tt.start, tt.end, quarters, entities.Quarter)
			if err != nil {
				t.Fatalf("MapDateRange failed: %v", err)
			}
			if len(overlaps) != len(tt.expected) {
				t.Fatalf("Expected %d overlaps, got %d", len(tt.expected), len(overlaps))
			}
			for _, o := range overlaps {
				want, ok := tt.expected[o.PeriodID]
				if !ok {
					t.Errorf("Unexpected period %s", o.PeriodID)
					continue
				}
				if o.OverlapRatio.GreaterThan(decimal.NewFromInt(1)) || o.OverlapRatio.IsNegative() {
					t.Errorf("Ratio %s for %s outside [0,1]", o.OverlapRatio, o.PeriodID)
				}
				if want == "1" && !o.OverlapRatio.Equal(decimal.NewFromInt(1)) {
					t.Errorf("Expected full overlap for %s, got %s", o.PeriodID, o.OverlapRatio)
				}
			}
		})
	}
}

func TestMapDateRange_PartialRatio(t *testing.T) {
	q2 := entities.QuarterPeriods(2025)[1] // 91 days
	overlaps, err := MapDateRange(date(2025, 4, 1), date(2025, 5, 15), []entities.Period{q2}, entities.Quarter)
	if err != nil {
		t.Fatalf("MapDateRange failed: %v", err)
	}
	want := decimal.NewFromInt(45).Div(decimal.NewFromInt(91))
	if !overlaps[0].OverlapRatio.Equal(want) {
		t.Errorf("Expected ratio %s, got %s", want, overlaps[0].OverlapRatio)
	}
	if overlaps[0].OverlapDays != 45 {
		t.Errorf("Expected 45 overlap days, got %d", overlaps[0].OverlapDays)
	}
}

func TestMapDateRange_IgnoresOtherGranularities(t *testing.T) {
	periods := append(entities.QuarterPeriods(2025), entities.WeekPeriods(date(2025, 1, 1), date(2025, 1, 31))...)
	overlaps, err := MapDateRange(date(2025, 1, 1), date(2025, 1, 31), periods, entities.Quarter)
	if err != nil {
		t.Fatalf("MapDateRange failed: %v", err)
	}
	if len(overlaps) != 1 || overlaps[0].PeriodID != "2025-Q1" {
		t.Errorf("Expected only 2025-Q1, got %+v", overlaps)
	}
}

func TestMapDateRange_InvertedRange(t *testing.T) {
	_, err := MapDateRange(date(2025, 2, 1), date(2025, 1, 1), entities.QuarterPeriods(2025), entities.Quarter)
	if errs.KindOf(err) != errs.KindValidation {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestMaterializePeriods(t *testing.T) {
	quarters := entities.QuarterPeriods(2025)
	employee := entities.Employee{ID: "E1", WeeklyHours: decimal.NewFromInt(35)} // Q1: 90/7*35 = 450h

	alloc := &entities.Allocation{
		ID:         "A1",
		EmployeeID: "E1",
		StartDate:  date(2025, 1, 1),
		EndDate:    date(2025, 3, 31),
		Percentage: decimal.NewFromInt(50),
	}
	alloc.Periods = []entities.AllocationPeriod{{PeriodID: "stale"}}

	if err := MaterializePeriods(alloc, employee, quarters, entities.Quarter); err != nil {
		t.Fatalf("MaterializePeriods failed: %v", err)
	}
	if len(alloc.Periods) != 1 || alloc.Periods[0].PeriodID != "2025-Q1" {
		t.Fatalf("Expected a single fully recomputed Q1 row, got %+v", alloc.Periods)
	}
	if !alloc.Periods[0].HoursInPeriod.Equal(decimal.NewFromInt(225)) {
		t.Errorf("Expected 225 hours, got %s", alloc.Periods[0].HoursInPeriod)
	}

	alloc.RampModifier = decimal.NewFromFloat(0.8)
	if err := MaterializePeriods(alloc, employee, quarters, entities.Quarter); err != nil {
		t.Fatalf("MaterializePeriods failed: %v", err)
	}
	if !alloc.Periods[0].HoursInPeriod.Equal(decimal.NewFromInt(180)) {
		t.Errorf("Expected ramped 180 hours, got %s", alloc.Periods[0].HoursInPeriod)
	}

	base := employee.BaseHoursFor(quarters[0]).Mul(alloc.Fraction())
	if alloc.Periods[0].HoursInPeriod.GreaterThan(base) {
		t.Errorf("Hours %s exceed base hours scaled by percentage %s", alloc.Periods[0].HoursInPeriod, base)
	}
}

func TestWeeklyCalendar(t *testing.T) {
	employee := entities.Employee{ID: "E1", WeeklyHours: decimal.NewFromInt(40)}
	allocations := []*entities.Allocation{
		{ID: "A1", EmployeeID: "E1", StartDate: date(2025, 1, 6), EndDate: date(2025, 1, 12), Percentage: decimal.NewFromInt(50)},
		{ID: "A2", EmployeeID: "E2", StartDate: date(2025, 1, 6), EndDate: date(2025, 1, 12), Percentage: decimal.NewFromInt(100)},
	}

	calendar, err := WeeklyCalendar(employee, allocations, date(2025, 1, 6), date(2025, 1, 19))
	if err != nil {
		t.Fatalf("WeeklyCalendar failed: %v", err)
	}
	if len(calendar) != 2 {
		t.Fatalf("Expected 2 weeks, got %d", len(calendar))
	}
	if !calendar[0].AllocatedHours.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected 20 allocated hours in week 1, got %s", calendar[0].AllocatedHours)
	}
	if !calendar[0].AvailableHours.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected 20 available hours in week 1, got %s", calendar[0].AvailableHours)
	}
	if !calendar[1].AvailableHours.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected 40 available hours in week 2, got %s", calendar[1].AvailableHours)
	}
}
