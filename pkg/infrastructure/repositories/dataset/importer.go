// Package dataset imports a planning dataset directory into an entity store.
//
// A dataset directory holds:
//
//	periods.csv            required
//	employees.csv          required
//	capacity_calendar.csv  optional, per-period availability overrides
//	initiatives.yaml       required
//	scenarios.yaml         required
//	allocations.csv        optional, period rows are materialized on import
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/domain/services"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/yaml"
)

const (
	PeriodsFile     = "periods.csv"
	EmployeesFile   = "employees.csv"
	CalendarFile    = "capacity_calendar.csv"
	AllocationsFile = "allocations.csv"
	InitiativesFile = "initiatives.yaml"
	ScenariosFile   = "scenarios.yaml"
)

// Summary counts the imported rows
type Summary struct {
	Periods         int `json:"periods"`
	Employees       int `json:"employees"`
	CalendarEntries int `json:"calendar_entries"`
	Initiatives     int `json:"initiatives"`
	Scenarios       int `json:"scenarios"`
	Allocations     int `json:"allocations"`
}

// Importer loads dataset files and writes them in one transaction
type Importer struct {
	granularity entities.PeriodType
	csv         *csv.Loader
	yaml        *yaml.Loader
	logger      *zap.Logger
}

// NewImporter creates an importer materializing allocations at the given granularity
func NewImporter(granularity entities.PeriodType, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		granularity: granularity,
		csv:         csv.NewLoader(),
		yaml:        yaml.NewLoader(),
		logger:      logger.Named("import"),
	}
}

type contents struct {
	periods     []*entities.Period
	employees   []*entities.Employee
	calendar    []csv.CalendarRow
	initiatives []*entities.Initiative
	scenarios   []*entities.Scenario
	allocations []*entities.Allocation
}

// Import reads every file of dir before writing anything; a bad row
// leaves the store untouched.
func (im *Importer) Import(ctx context.Context, store repositories.Store, dir string) (*Summary, error) {
	files, err := resolveFiles(dir)
	if err != nil {
		return nil, err
	}

	c, err := im.load(files)
	if err != nil {
		return nil, err
	}

	if err := attachCalendar(c.employees, c.calendar); err != nil {
		return nil, err
	}
	if err := im.materialize(c); err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repositories.Store) error {
		for _, p := range c.periods {
			if err := tx.Periods().SavePeriod(ctx, p); err != nil {
				return fmt.Errorf("saving period %s: %w", p.ID, err)
			}
		}
		for _, e := range c.employees {
			if err := tx.Employees().SaveEmployee(ctx, e); err != nil {
				return fmt.Errorf("saving employee %s: %w", e.ID, err)
			}
		}
		for _, i := range c.initiatives {
			if err := tx.Initiatives().SaveInitiative(ctx, i); err != nil {
				return fmt.Errorf("saving initiative %s: %w", i.ID, err)
			}
		}
		for _, s := range c.scenarios {
			if err := tx.Scenarios().SaveScenario(ctx, s); err != nil {
				return fmt.Errorf("saving scenario %s: %w", s.ID, err)
			}
		}
		for _, a := range c.allocations {
			if err := tx.Allocations().SaveAllocation(ctx, a); err != nil {
				return fmt.Errorf("saving allocation %s: %w", a.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", dir, err)
	}

	summary := &Summary{
		Periods:         len(c.periods),
		Employees:       len(c.employees),
		CalendarEntries: len(c.calendar),
		Initiatives:     len(c.initiatives),
		Scenarios:       len(c.scenarios),
		Allocations:     len(c.allocations),
	}
	im.logger.Info("dataset imported",
		zap.String("dir", dir),
		zap.Int("periods", summary.Periods),
		zap.Int("employees", summary.Employees),
		zap.Int("initiatives", summary.Initiatives),
		zap.Int("scenarios", summary.Scenarios),
		zap.Int("allocations", summary.Allocations))
	return summary, nil
}

func resolveFiles(dir string) (map[string]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("dataset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset directory: %s is not a directory", dir)
	}

	files := map[string]string{}
	for _, name := range []string{PeriodsFile, EmployeesFile, InitiativesFile, ScenariosFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s file not found: %s", name, path)
		}
		files[name] = path
	}
	for _, name := range []string{CalendarFile, AllocationsFile} {
		path := filepath.Join(dir, name)
		_, err := os.Stat(path)
		switch {
		case err == nil:
			files[name] = path
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return files, nil
}

func (im *Importer) load(files map[string]string) (*contents, error) {
	var (
		c   contents
		err error
	)
	if c.periods, err = im.csv.LoadPeriods(files[PeriodsFile]); err != nil {
		return nil, fmt.Errorf("error loading periods: %w", err)
	}
	if c.employees, err = im.csv.LoadEmployees(files[EmployeesFile]); err != nil {
		return nil, fmt.Errorf("error loading employees: %w", err)
	}
	if path, ok := files[CalendarFile]; ok {
		if c.calendar, err = im.csv.LoadCalendar(path); err != nil {
			return nil, fmt.Errorf("error loading capacity calendar: %w", err)
		}
	}
	if c.initiatives, err = im.yaml.LoadInitiatives(files[InitiativesFile]); err != nil {
		return nil, fmt.Errorf("error loading initiatives: %w", err)
	}
	if c.scenarios, err = im.yaml.LoadScenarios(files[ScenariosFile]); err != nil {
		return nil, fmt.Errorf("error loading scenarios: %w", err)
	}
	if path, ok := files[AllocationsFile]; ok {
		if c.allocations, err = im.csv.LoadAllocations(path); err != nil {
			return nil, fmt.Errorf("error loading allocations: %w", err)
		}
	}
	return &c, nil
}

func attachCalendar(employees []*entities.Employee, rows []csv.CalendarRow) error {
	byID := make(map[string]*entities.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}
	for _, row := range rows {
		e, ok := byID[row.EmployeeID]
		if !ok {
			return fmt.Errorf("capacity calendar: %w", errs.NotFound("employee", row.EmployeeID))
		}
		e.Calendar = append(e.Calendar, row.Entry)
	}
	for _, e := range employees {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("capacity calendar: %w", err)
		}
	}
	return nil
}

// materialize computes allocation period rows against the dataset's own
// periods, so the calendar overrides loaded alongside apply.
func (im *Importer) materialize(c *contents) error {
	var periods []entities.Period
	for _, p := range c.periods {
		if p.Type == im.granularity {
			periods = append(periods, *p)
		}
	}

	employees := make(map[string]*entities.Employee, len(c.employees))
	for _, e := range c.employees {
		employees[e.ID] = e
	}
	scenarios := make(map[string]bool, len(c.scenarios))
	for _, s := range c.scenarios {
		scenarios[s.ID] = true
	}

	for _, a := range c.allocations {
		if !scenarios[a.ScenarioID] {
			return fmt.Errorf("allocation %s: %w", a.ID, errs.NotFound("scenario", a.ScenarioID))
		}
		e, ok := employees[a.EmployeeID]
		if !ok {
			return fmt.Errorf("allocation %s: %w", a.ID, errs.NotFound("employee", a.EmployeeID))
		}
		if err := services.MaterializePeriods(a, *e, periods, im.granularity); err != nil {
			return err
		}
	}
	return nil
}
