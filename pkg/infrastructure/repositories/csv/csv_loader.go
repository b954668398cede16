package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// Loader handles loading planning data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

var (
	periodsHeader     = []string{"id", "type", "start_date", "end_date", "label"}
	employeesHeader   = []string{"id", "name", "org_unit_id", "weekly_hours", "skills", "max_allocation_percent", "active"}
	calendarHeader    = []string{"employee_id", "period_id", "available_hours", "reason"}
	allocationsHeader = []string{"id", "scenario_id", "employee_id", "initiative_id", "start_date", "end_date", "percentage", "ramp_modifier"}
)

// CalendarRow is one capacity override keyed by employee
type CalendarRow struct {
	EmployeeID string
	Entry      entities.CapacityCalendarEntry
}

// LoadPeriods loads periods from a CSV file
func (l *Loader) LoadPeriods(filename string) ([]*entities.Period, error) {
	records, err := readRecords(filename, "periods", periodsHeader)
	if err != nil {
		return nil, err
	}

	var periods []*entities.Period
	for i, record := range records {
		period, err := parsePeriod(record)
		if err != nil {
			return nil, fmt.Errorf("periods CSV row %d: %w", i+2, err)
		}
		periods = append(periods, period)
	}
	return periods, nil
}

// LoadEmployees loads employees from a CSV file. Skills are encoded as
// "name:proficiency" pairs separated by "|".
func (l *Loader) LoadEmployees(filename string) ([]*entities.Employee, error) {
	records, err := readRecords(filename, "employees", employeesHeader)
	if err != nil {
		return nil, err
	}

	var employees []*entities.Employee
	for i, record := range records {
		employee, err := parseEmployee(record)
		if err != nil {
			return nil, fmt.Errorf("employees CSV row %d: %w", i+2, err)
		}
		employees = append(employees, employee)
	}
	return employees, nil
}

// LoadCalendar loads capacity calendar overrides from a CSV file
func (l *Loader) LoadCalendar(filename string) ([]CalendarRow, error) {
	records, err := readRecords(filename, "capacity calendar", calendarHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]CalendarRow, 0, len(records))
	for i, record := range records {
		hours, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("capacity calendar CSV row %d: invalid available_hours: %s", i+2, record[2])
		}
		reason, err := parseReason(record[3])
		if err != nil {
			return nil, fmt.Errorf("capacity calendar CSV row %d: %w", i+2, err)
		}
		rows = append(rows, CalendarRow{
			EmployeeID: record[0],
			Entry: entities.CapacityCalendarEntry{
				PeriodID:       record[1],
				AvailableHours: hours,
				Reason:         reason,
			},
		})
	}
	return rows, nil
}

// LoadAllocations loads allocations from a CSV file. Derived period rows
// are not part of the file; callers materialize them.
func (l *Loader) LoadAllocations(filename string) ([]*entities.Allocation, error) {
	records, err := readRecords(filename, "allocations", allocationsHeader)
	if err != nil {
		return nil, err
	}

	var allocations []*entities.Allocation
	for i, record := range records {
		allocation, err := parseAllocation(record)
		if err != nil {
			return nil, fmt.Errorf("allocations CSV row %d: %w", i+2, err)
		}
		allocations = append(allocations, allocation)
	}
	return allocations, nil
}

// Helper functions for parsing CSV records

func readRecords(filename, name string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parsePeriod(record []string) (*entities.Period, error) {
	periodType, err := entities.ParsePeriodType(record[1])
	if err != nil {
		return nil, err
	}
	start, err := entities.ParseDay(record[2])
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format: %s (expected YYYY-MM-DD)", record[2])
	}
	end, err := entities.ParseDay(record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format: %s (expected YYYY-MM-DD)", record[3])
	}
	return entities.NewPeriod(record[0], periodType, start, end, record[4])
}

func parseEmployee(record []string) (*entities.Employee, error) {
	weeklyHours, err := decimal.NewFromString(record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid weekly_hours: %s", record[3])
	}

	skills, err := parseSkills(record[4])
	if err != nil {
		return nil, err
	}

	employee, err := entities.NewEmployee(record[0], record[1], weeklyHours, skills)
	if err != nil {
		return nil, err
	}
	employee.OrgUnitID = record[2]

	if record[5] != "" {
		ceiling, err := decimal.NewFromString(record[5])
		if err != nil {
			return nil, fmt.Errorf("invalid max_allocation_percent: %s", record[5])
		}
		employee.MaxAllocationPercent = ceiling
	}

	if record[6] != "" {
		active, err := strconv.ParseBool(record[6])
		if err != nil {
			return nil, fmt.Errorf("invalid active flag: %s", record[6])
		}
		employee.Active = active
	}

	return employee, employee.Validate()
}

// parseSkills reads "backend:5|frontend:3", keeping the listed order
func parseSkills(s string) ([]entities.Skill, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var skills []entities.Skill
	for _, part := range strings.Split(s, "|") {
		name, prof, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("invalid skill %q (expected name:proficiency)", part)
		}
		proficiency, err := strconv.Atoi(strings.TrimSpace(prof))
		if err != nil {
			return nil, fmt.Errorf("invalid proficiency for skill %s: %s", name, prof)
		}
		skills = append(skills, entities.Skill{Name: strings.TrimSpace(name), Proficiency: proficiency})
	}
	return skills, nil
}

func parseReason(s string) (entities.CalendarReason, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PTO":
		return entities.ReasonPTO, nil
	case "REDUCED_HOURS":
		return entities.ReasonReducedHours, nil
	case "OTHER", "":
		return entities.ReasonOther, nil
	default:
		return entities.ReasonOther, fmt.Errorf("invalid reason: %s (expected: PTO, REDUCED_HOURS, or OTHER)", s)
	}
}

func parseAllocation(record []string) (*entities.Allocation, error) {
	start, err := entities.ParseDay(record[4])
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format: %s (expected YYYY-MM-DD)", record[4])
	}
	end, err := entities.ParseDay(record[5])
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format: %s (expected YYYY-MM-DD)", record[5])
	}
	percentage, err := decimal.NewFromString(record[6])
	if err != nil {
		return nil, fmt.Errorf("invalid percentage: %s", record[6])
	}

	allocation, err := entities.NewAllocation(record[0], record[1], record[2], record[3], start, end, percentage)
	if err != nil {
		return nil, err
	}

	if record[7] != "" {
		ramp, err := decimal.NewFromString(record[7])
		if err != nil {
			return nil, fmt.Errorf("invalid ramp_modifier: %s", record[7])
		}
		allocation.RampModifier = ramp
	}
	return allocation, allocation.Validate()
}
