// Package output renders planning results as text, JSON, CSV or SVG.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services/orchestration"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/dataset"
)

// Format selects a renderer
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatSVG  Format = "svg"
)

// ParseFormat accepts text, json, csv or svg
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV, FormatSVG:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Printer writes results in one format
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

type table func() (header []string, rows [][]string)

func (p *Printer) render(name string, v any, text func(w io.Writer), tabular table) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return nil
	case FormatCSV:
		if tabular == nil {
			break
		}
		header, rows := tabular()
		cw := csv.NewWriter(p.w)
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		return nil
	case FormatText:
		text(p.w)
		return nil
	}
	return fmt.Errorf("unsupported output format %s for %s", p.format, name)
}

func hours(d decimal.Decimal) string { return d.StringFixed(1) }
func pct(d decimal.Decimal) string   { return d.StringFixed(2) }

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + hours(d)
	}
	return hours(d)
}

// Calculation renders a demand, capacity and gap report
func (p *Printer) Calculation(r *dto.CalculationResult) error {
	if p.format == FormatSVG {
		_, err := io.WriteString(p.w, NewGapChart(r).GenerateSVG(r))
		return err
	}
	return p.render("calculation", r, func(w io.Writer) {
		fmt.Fprintf(w, "📊 Capacity Plan %s", r.ScenarioID)
		if r.OrgScope != "" {
			fmt.Fprintf(w, " (org scope %s)", r.OrgScope)
		}
		if r.CacheHit {
			fmt.Fprint(w, " [cached]")
		}
		fmt.Fprint(w, "\n\n")

		fmt.Fprintf(w, "%-10s %-16s %10s %10s %10s\n", "Period", "Skill", "Demand", "Capacity", "Gap")
		fmt.Fprintf(w, "%-10s %-16s %10s %10s %10s\n", "----------", "----------------", "----------", "----------", "----------")
		for _, row := range r.Rows {
			fmt.Fprintf(w, "%-10s %-16s %10s %10s %10s\n",
				row.PeriodID, row.Skill, hours(row.Demand), hours(row.Capacity), hours(row.Gap))
		}
		fmt.Fprintf(w, "\nTotal demand: %s  Total capacity: %s  Net gap: %s\n",
			hours(r.TotalDemand), hours(r.TotalCapacity), hours(r.NetGap))

		if len(r.BindingConstraints) > 0 {
			fmt.Fprint(w, "\n⚠️  Binding constraints:\n")
			for _, row := range r.BindingConstraints {
				fmt.Fprintf(w, "  %s %s short %s hours\n", row.PeriodID, row.Skill, hours(row.Gap.Neg()))
			}
		}
	}, func() ([]string, [][]string) {
		rows := make([][]string, 0, len(r.Rows))
		for _, row := range r.Rows {
			rows = append(rows, []string{row.PeriodID, row.Skill, row.Demand.String(), row.Capacity.String(), row.Gap.String()})
		}
		return []string{"period_id", "skill", "demand", "capacity", "gap"}, rows
	})
}

// AutoAllocate renders an allocation proposal
func (p *Printer) AutoAllocate(r *dto.AutoAllocateResult) error {
	return p.render("auto-allocate", r, func(w io.Writer) {
		fmt.Fprintf(w, "📋 Proposed allocations for %s (not saved)\n\n", r.ScenarioID)
		fmt.Fprintf(w, "%-10s %-12s %-12s %-24s %8s %10s\n", "Employee", "Name", "Initiative", "Skills", "Pct", "Hours")
		fmt.Fprintf(w, "%-10s %-12s %-12s %-24s %8s %10s\n", "----------", "------------", "------------", "------------------------", "--------", "----------")
		for _, a := range r.Proposals {
			fmt.Fprintf(w, "%-10s %-12s %-12s %-24s %8s %10s\n",
				a.EmployeeID, a.EmployeeName, a.InitiativeID, a.SkillLabel, pct(a.Percentage), hours(a.Hours))
		}

		fmt.Fprint(w, "\nCoverage:\n")
		for _, c := range r.Coverage {
			fmt.Fprintf(w, "  #%d %-12s %-20s %6s%% of %s hours\n",
				c.Rank, c.InitiativeID, c.Title, pct(c.CoveragePct), hours(c.DemandHours))
		}

		if len(r.Shortages) > 0 {
			fmt.Fprint(w, "\n⚠️  Shortages:\n")
			for _, s := range r.Shortages {
				fmt.Fprintf(w, "  %-12s %-16s %-22s %s hours\n", s.InitiativeID, s.Skill, s.Kind, hours(s.ShortageHours))
			}
		}
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
		fmt.Fprintf(w, "\nBudget utilization: %s%%\n", pct(r.UtilizationPct))
	}, func() ([]string, [][]string) {
		rows := make([][]string, 0, len(r.Proposals))
		for _, a := range r.Proposals {
			rows = append(rows, []string{a.EmployeeID, a.InitiativeID, a.SkillLabel, a.Percentage.String(), a.Hours.String()})
		}
		return []string{"employee_id", "initiative_id", "skills", "percentage", "hours"}, rows
	})
}

// Apply renders the outcome of saving a proposal
func (p *Printer) Apply(r *dto.ApplyResult) error {
	return p.render("apply", r, func(w io.Writer) {
		fmt.Fprintf(w, "✅ Applied to %s: removed %d, created %d allocations\n", r.ScenarioID, r.Removed, r.Created)
	}, func() ([]string, [][]string) {
		rows := make([][]string, 0, len(r.AllocationIDs))
		for _, id := range r.AllocationIDs {
			rows = append(rows, []string{r.ScenarioID, id})
		}
		return []string{"scenario_id", "allocation_id"}, rows
	})
}

// Transition renders a scenario status change
func (p *Printer) Transition(r *orchestration.TransitionResult) error {
	return p.render("transition", r, func(w io.Writer) {
		fmt.Fprintf(w, "Scenario %s is now %s\n", r.Scenario.ID, r.Scenario.Status)
		if r.Snapshot != nil {
			fmt.Fprintf(w, "📸 Baseline snapshot %s captured at %s\n", r.Snapshot.ID, r.Snapshot.CapturedAt.Format("2006-01-02 15:04:05"))
		}
	}, func() ([]string, [][]string) {
		snapshotID := ""
		if r.Snapshot != nil {
			snapshotID = r.Snapshot.ID
		}
		return []string{"scenario_id", "status", "snapshot_id"}, [][]string{{r.Scenario.ID, string(r.Scenario.Status), snapshotID}}
	})
}

// Snapshot renders a baseline snapshot
func (p *Printer) Snapshot(s *entities.BaselineSnapshot) error {
	return p.render("snapshot", s, func(w io.Writer) {
		fmt.Fprintf(w, "📸 Snapshot %s of %s, captured %s\n\n", s.ID, s.ScenarioID, s.CapturedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Capacity: %s  Demand: %s  Net gap: %s\n",
			hours(s.Summary.TotalCapacity), hours(s.Summary.TotalDemand), hours(s.Summary.NetGap))
		for _, pt := range s.Summary.Periods {
			fmt.Fprintf(w, "  %-10s capacity %10s demand %10s gap %10s\n",
				pt.PeriodID, hours(pt.Capacity), hours(pt.Demand), hours(pt.Gap))
		}
		fmt.Fprintf(w, "\n%d capacity entries, %d demand entries, %d allocations\n",
			len(s.Capacity), len(s.Demand), len(s.Allocations))
	}, func() ([]string, [][]string) {
		var rows [][]string
		for _, c := range s.Capacity {
			rows = append(rows, []string{"capacity", c.EmployeeID, c.Skill, c.Hours.String()})
		}
		for _, d := range s.Demand {
			rows = append(rows, []string{"demand", d.InitiativeID, d.Skill, d.Hours.String()})
		}
		for _, a := range s.Allocations {
			rows = append(rows, []string{"allocation", a.EmployeeID + "/" + a.InitiativeID, "", a.Hours.String()})
		}
		return []string{"section", "id", "skill", "hours"}, rows
	})
}

// Delta renders a snapshot-versus-live comparison
func (p *Printer) Delta(r *dto.DeltaResult) error {
	return p.render("delta", r, func(w io.Writer) {
		s := r.Summary
		fmt.Fprintf(w, "🔍 Drift of %s against snapshot %s\n\n", r.ScenarioID, r.SnapshotID)
		fmt.Fprintf(w, "Capacity: %s → %s (%s%%)\n", hours(s.SnapshotCapacity), hours(s.LiveCapacity), pct(s.CapacityDriftPct))
		fmt.Fprintf(w, "Demand:   %s → %s (%s%%)\n", hours(s.SnapshotDemand), hours(s.LiveDemand), pct(s.DemandDriftPct))
		fmt.Fprintf(w, "Net gap:  %s → %s (%s)\n", hours(s.SnapshotNetGap), hours(s.LiveNetGap), hours(s.NetGapDrift))

		writeSkillDeltas(w, "Capacity by skill", r.CapacityBySkill)
		writeSkillDeltas(w, "Demand by skill", r.DemandBySkill)

		var departed []string
		for _, c := range r.Capacity {
			if c.Departed {
				departed = append(departed, c.EmployeeID)
			}
		}
		if len(departed) > 0 {
			sort.Strings(departed)
			fmt.Fprintf(w, "\nDeparted: %s\n", strings.Join(unique(departed), ", "))
		}

		if len(r.Allocations) > 0 {
			fmt.Fprint(w, "\nAllocation changes:\n")
			for _, a := range r.Allocations {
				fmt.Fprintf(w, "  %-9s %-10s %-12s %8s%% → %s%%\n",
					a.Change, a.EmployeeID, a.InitiativeID, pct(a.SnapshotPercentage), pct(a.LivePercentage))
			}
		}
	}, func() ([]string, [][]string) {
		var rows [][]string
		for _, d := range r.CapacityBySkill {
			rows = append(rows, []string{"capacity", d.Skill, d.SnapshotHours.String(), d.LiveHours.String(), d.Delta.String()})
		}
		for _, d := range r.DemandBySkill {
			rows = append(rows, []string{"demand", d.Skill, d.SnapshotHours.String(), d.LiveHours.String(), d.Delta.String()})
		}
		return []string{"dimension", "skill", "snapshot_hours", "live_hours", "delta"}, rows
	})
}

func writeSkillDeltas(w io.Writer, title string, deltas []dto.SkillDelta) {
	if len(deltas) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, d := range deltas {
		fmt.Fprintf(w, "  %-16s %10s → %10s  %10s\n", d.Skill, hours(d.SnapshotHours), hours(d.LiveHours), signed(d.Delta))
	}
}

func unique(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// DriftCheck renders a threshold evaluation
func (p *Printer) DriftCheck(r *dto.DriftCheckResult) error {
	return p.render("drift check", r, func(w io.Writer) {
		fmt.Fprintf(w, "Drift check of %s\n\n", r.ScenarioID)
		fmt.Fprintf(w, "%-10s %12s %12s %12s  %s\n", "Period", "Capacity %", "Demand %", "Net gap", "Status")
		for _, c := range r.Periods {
			status := "ok"
			if c.Exceeded {
				status = "EXCEEDED " + c.AlertID
			}
			fmt.Fprintf(w, "%-10s %12s %12s %12s  %s\n",
				c.PeriodID, pct(c.CapacityDriftPct), pct(c.DemandDriftPct), hours(c.NetGapDrift), status)
		}
		if len(r.Resolved) > 0 {
			fmt.Fprintf(w, "\nResolved alerts: %s\n", strings.Join(r.Resolved, ", "))
		}
	}, func() ([]string, [][]string) {
		rows := make([][]string, 0, len(r.Periods))
		for _, c := range r.Periods {
			rows = append(rows, []string{
				c.PeriodID, c.CapacityDriftPct.String(), c.DemandDriftPct.String(),
				c.NetGapDrift.String(), fmt.Sprint(c.Exceeded), c.AlertID,
			})
		}
		return []string{"period_id", "capacity_drift_pct", "demand_drift_pct", "net_gap_drift", "exceeded", "alert_id"}, rows
	})
}

// Alerts renders drift alerts
func (p *Printer) Alerts(alerts []*entities.DriftAlert) error {
	return p.render("alerts", alerts, func(w io.Writer) {
		if len(alerts) == 0 {
			fmt.Fprintln(w, "No drift alerts")
			return
		}
		fmt.Fprintf(w, "%-36s %-10s %-13s %12s %12s\n", "Alert", "Period", "Status", "Capacity %", "Demand %")
		for _, a := range alerts {
			fmt.Fprintf(w, "%-36s %-10s %-13s %12s %12s\n",
				a.ID, a.PeriodID, a.Status, pct(a.CapacityDriftPct), pct(a.DemandDriftPct))
		}
	}, func() ([]string, [][]string) {
		rows := make([][]string, 0, len(alerts))
		for _, a := range alerts {
			rows = append(rows, []string{
				a.ID, a.ScenarioID, a.PeriodID, string(a.Status),
				a.CapacityDriftPct.String(), a.DemandDriftPct.String(), a.NetGapDrift.String(),
			})
		}
		return []string{"id", "scenario_id", "period_id", "status", "capacity_drift_pct", "demand_drift_pct", "net_gap_drift"}, rows
	})
}

// Thresholds renders drift thresholds, overrides sorted by period
func (p *Printer) Thresholds(t entities.DriftThresholds) error {
	periods := make([]string, 0, len(t.PeriodOverrides))
	for id := range t.PeriodOverrides {
		periods = append(periods, id)
	}
	sort.Strings(periods)

	return p.render("thresholds", t, func(w io.Writer) {
		fmt.Fprintf(w, "Global: capacity %s%%, demand %s%%\n", t.CapacityPct, t.DemandPct)
		for _, id := range periods {
			o := t.PeriodOverrides[id]
			fmt.Fprintf(w, "%s: capacity %s%%, demand %s%%\n", id, o.CapacityPct, o.DemandPct)
		}
	}, func() ([]string, [][]string) {
		rows := [][]string{{"global", t.CapacityPct.String(), t.DemandPct.String()}}
		for _, id := range periods {
			o := t.PeriodOverrides[id]
			rows = append(rows, []string{id, o.CapacityPct.String(), o.DemandPct.String()})
		}
		return []string{"scope", "capacity_pct", "demand_pct"}, rows
	})
}

// Import renders a dataset import summary
func (p *Printer) Import(s *dataset.Summary) error {
	return p.render("import", s, func(w io.Writer) {
		fmt.Fprintf(w, "✅ Data loaded successfully:\n")
		fmt.Fprintf(w, "  Periods: %d\n", s.Periods)
		fmt.Fprintf(w, "  Employees: %d\n", s.Employees)
		fmt.Fprintf(w, "  Calendar entries: %d\n", s.CalendarEntries)
		fmt.Fprintf(w, "  Initiatives: %d\n", s.Initiatives)
		fmt.Fprintf(w, "  Scenarios: %d\n", s.Scenarios)
		fmt.Fprintf(w, "  Allocations: %d\n", s.Allocations)
	}, nil)
}

// Scenarios renders a scenario list
func (p *Printer) Scenarios(scenarios []*entities.Scenario) error {
	return p.render("scenarios", scenarios, func(w io.Writer) {
		fmt.Fprintf(w, "%-14s %-24s %-10s %-10s %-9s\n", "ID", "Name", "Period", "Type", "Status")
		for _, s := range scenarios {
			fmt.Fprintf(w, "%-14s %-24s %-10s %-10s %-9s\n", s.ID, s.Name, s.PeriodID, s.Type, s.Status)
		}
	}, func() ([]string, [][]string) {
		rows := make([][]string, 0, len(scenarios))
		for _, s := range scenarios {
			rows = append(rows, []string{s.ID, s.Name, s.PeriodID, string(s.Type), string(s.Status)})
		}
		return []string{"id", "name", "period_id", "type", "status"}, rows
	})
}

// Availability renders an employee's weekly calendar; negative available
// hours mark over-allocated weeks.
func (p *Printer) Availability(employeeID, scenarioID string, calendar []services.WeeklyAvailability) error {
	return p.render("availability", calendar, func(w io.Writer) {
		fmt.Fprintf(w, "Availability of %s in %s\n", employeeID, scenarioID)
		fmt.Fprintf(w, "%-9s %-10s %10s %10s %10s\n", "Week", "Starts", "Base", "Allocated", "Available")
		for _, week := range calendar {
			marker := ""
			if week.AvailableHours.IsNegative() {
				marker = "  over-allocated"
			}
			fmt.Fprintf(w, "%-9s %-10s %10s %10s %10s%s\n",
				week.WeekID, week.StartDate.Format(entities.DateLayout),
				hours(week.BaseHours), hours(week.AllocatedHours), hours(week.AvailableHours), marker)
		}
	}, func() ([]string, [][]string) {
		rows := make([][]string, 0, len(calendar))
		for _, week := range calendar {
			rows = append(rows, []string{
				week.WeekID, week.StartDate.Format(entities.DateLayout),
				week.BaseHours.String(), week.AllocatedHours.String(), week.AvailableHours.String(),
			})
		}
		return []string{"week_id", "start_date", "base_hours", "allocated_hours", "available_hours"}, rows
	})
}
