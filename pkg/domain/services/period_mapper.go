package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

var one = decimal.NewFromInt(1)

// PeriodOverlap is the share of one period covered by a date range
type PeriodOverlap struct {
	PeriodID     string          `json:"period_id"`
	OverlapRatio decimal.Decimal `json:"overlap_ratio"`
	OverlapDays  int             `json:"overlap_days"`
}

// MapDateRange returns, for every period of the given granularity that
// overlaps [start, end], the overlap ratio (overlap days / period days)
// clamped to [0, 1]. Periods are reported in input order. A range outside
// every known period yields an empty result.
func MapDateRange(
	start, end time.Time,
	periods []entities.Period,
	granularity entities.PeriodType,
) ([]PeriodOverlap, error) {
	start, end = entities.Day(start), entities.Day(end)
	if end.Before(start) {
		return nil, errs.Validation("date range", "end %s is before start %s",
			end.Format(entities.DateLayout), start.Format(entities.DateLayout))
	}

	overlaps := make([]PeriodOverlap, 0, len(periods))
	for _, p := range periods {
		if p.Type != granularity {
			continue
		}
		days := overlapDays(start, end, p.StartDate, p.EndDate)
		if days == 0 {
			continue
		}
		overlaps = append(overlaps, PeriodOverlap{
			PeriodID:     p.ID,
			OverlapRatio: ratio(days, p.Days()),
			OverlapDays:  days,
		})
	}
	return overlaps, nil
}

func overlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	from := aStart
	if bStart.After(from) {
		from = bStart
	}
	to := aEnd
	if bEnd.Before(to) {
		to = bEnd
	}
	return entities.DaysInclusive(from, to)
}

func ratio(days, periodDays int) decimal.Decimal {
	if periodDays <= 0 {
		return decimal.Zero
	}
	r := decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(periodDays)))
	if r.GreaterThan(one) {
		return one
	}
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// MaterializePeriods recomputes every AllocationPeriod row of an allocation.
// hours = base hours of the period × overlap ratio × percentage × ramp, so
// a row never exceeds the employee's base hours scaled by the percentage.
func MaterializePeriods(
	allocation *entities.Allocation,
	employee entities.Employee,
	periods []entities.Period,
	granularity entities.PeriodType,
) error {
	overlaps, err := MapDateRange(allocation.StartDate, allocation.EndDate, periods, granularity)
	if err != nil {
		return fmt.Errorf("mapping allocation %s: %w", allocation.ID, err)
	}

	byID := make(map[string]entities.Period, len(periods))
	for _, p := range periods {
		byID[p.ID] = p
	}

	ramp := allocation.EffectiveRamp()
	rows := make([]entities.AllocationPeriod, 0, len(overlaps))
	for _, o := range overlaps {
		base := employee.BaseHoursFor(byID[o.PeriodID])
		rows = append(rows, entities.AllocationPeriod{
			PeriodID:      o.PeriodID,
			HoursInPeriod: base.Mul(o.OverlapRatio).Mul(allocation.Fraction()).Mul(ramp),
			OverlapRatio:  o.OverlapRatio,
			RampModifier:  ramp,
		})
	}
	allocation.Periods = rows
	return nil
}

// WeeklyAvailability is one row of an employee's weekly availability calendar
type WeeklyAvailability struct {
	WeekID         string          `json:"week_id"`
	StartDate      time.Time       `json:"start_date"`
	BaseHours      decimal.Decimal `json:"base_hours"`
	AllocatedHours decimal.Decimal `json:"allocated_hours"`
	AvailableHours decimal.Decimal `json:"available_hours"`
}

// WeeklyCalendar computes an employee's weekly availability across [start, end].
// Partial weeks at the edges are prorated; available hours go negative when
// the employee is over-allocated.
func WeeklyCalendar(
	employee entities.Employee,
	allocations []*entities.Allocation,
	start, end time.Time,
) ([]WeeklyAvailability, error) {
	weeks := entities.WeekPeriods(start, end)
	window, err := MapDateRange(start, end, weeks, entities.Week)
	if err != nil {
		return nil, err
	}

	calendar := make([]WeeklyAvailability, 0, len(window))
	for i, w := range window {
		week := weeks[i]
		base := employee.BaseHoursFor(week).Mul(w.OverlapRatio)

		windowStart, windowEnd := entities.Day(start), entities.Day(end)
		if week.StartDate.After(windowStart) {
			windowStart = week.StartDate
		}
		if week.EndDate.Before(windowEnd) {
			windowEnd = week.EndDate
		}

		allocated := decimal.Zero
		for _, a := range allocations {
			if a.EmployeeID != employee.ID {
				continue
			}
			days := overlapDays(a.StartDate, a.EndDate, windowStart, windowEnd)
			if days == 0 {
				continue
			}
			share := employee.BaseHoursFor(week).Mul(ratio(days, week.Days()))
			allocated = allocated.Add(share.Mul(a.Fraction()).Mul(a.EffectiveRamp()))
		}

		calendar = append(calendar, WeeklyAvailability{
			WeekID:         week.ID,
			StartDate:      week.StartDate,
			BaseHours:      base,
			AllocatedHours: allocated,
			AvailableHours: base.Sub(allocated),
		})
	}
	return calendar, nil
}

// PeriodService is the period collaborator consumed by the engine
type PeriodService interface {
	MapDateRangeToPeriods(ctx context.Context, start, end time.Time, granularity entities.PeriodType) ([]PeriodOverlap, error)
	Materialize(ctx context.Context, allocation *entities.Allocation, employee entities.Employee) error
}

// RepositoryPeriodService resolves periods from the entity store
type RepositoryPeriodService struct {
	periods     repositories.PeriodRepository
	granularity entities.PeriodType
}

// NewPeriodService creates a period service materializing at the given granularity
func NewPeriodService(periods repositories.PeriodRepository, granularity entities.PeriodType) *RepositoryPeriodService {
	return &RepositoryPeriodService{periods: periods, granularity: granularity}
}

// Verify interface compliance
var _ PeriodService = (*RepositoryPeriodService)(nil)

// MapDateRangeToPeriods maps a date range against the stored periods
func (s *RepositoryPeriodService) MapDateRangeToPeriods(
	ctx context.Context,
	start, end time.Time,
	granularity entities.PeriodType,
) ([]PeriodOverlap, error) {
	periods, err := s.load(ctx, granularity)
	if err != nil {
		return nil, err
	}
	return MapDateRange(start, end, periods, granularity)
}

// Materialize recomputes an allocation's period rows at the service granularity
func (s *RepositoryPeriodService) Materialize(
	ctx context.Context,
	allocation *entities.Allocation,
	employee entities.Employee,
) error {
	periods, err := s.load(ctx, s.granularity)
	if err != nil {
		return err
	}
	return MaterializePeriods(allocation, employee, periods, s.granularity)
}

func (s *RepositoryPeriodService) load(ctx context.Context, granularity entities.PeriodType) ([]entities.Period, error) {
	stored, err := s.periods.ListPeriods(ctx, &granularity)
	if err != nil {
		return nil, fmt.Errorf("listing %s periods: %w", granularity, err)
	}
	periods := make([]entities.Period, len(stored))
	for i, p := range stored {
		periods[i] = *p
	}
	return periods, nil
}
