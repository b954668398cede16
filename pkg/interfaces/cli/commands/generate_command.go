package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/dataset"
)

var (
	generatedSkills   = []string{"backend", "frontend", "design", "data", "mobile", "qa", "devops", "ml"}
	generatedOrgUnits = []string{"platform", "web", "data", "mobile"}
	generatedStatuses = []entities.InitiativeStatus{
		entities.InitiativeProposed,
		entities.InitiativeScoping,
		entities.InitiativeResourcing,
		entities.InitiativeInExecution,
	}
)

// GenerateConfig holds configuration for dataset generation
type GenerateConfig struct {
	Employees   int    // Number of employees
	Initiatives int    // Number of initiatives ranked by the baseline
	Year        int    // Planning year, one quarter period each
	OutputDir   string // Output directory for generated files
	Seed        int64  // Random seed for reproducible generation
	Verbose     bool
}

// GenerateCommand writes a synthetic planning dataset
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	out    io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig, out io.Writer) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		out:    out,
	}
}

func newGenerateCommand() *cobra.Command {
	config := GenerateConfig{}
	cmd := &cobra.Command{
		Use:   "generate <dir>",
		Short: "Write a synthetic planning dataset for load testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.OutputDir = args[0]
			return NewGenerateCommand(config, cmd.OutOrStdout()).Execute(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&config.Employees, "employees", 50, "Number of employees")
	cmd.Flags().IntVar(&config.Initiatives, "initiatives", 20, "Number of initiatives")
	cmd.Flags().IntVar(&config.Year, "year", time.Now().Year(), "Planning year")
	cmd.Flags().Int64Var(&config.Seed, "seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Report what was written")
	return cmd
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Employees < 1 || cmd.config.Initiatives < 1 {
		return fmt.Errorf("employees and initiatives must be positive, got %d and %d",
			cmd.config.Employees, cmd.config.Initiatives)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	periods := entities.QuarterPeriods(cmd.config.Year)

	steps := []struct {
		file  string
		write func(string) (int, error)
	}{
		{dataset.PeriodsFile, func(path string) (int, error) { return cmd.writePeriods(path, periods) }},
		{dataset.EmployeesFile, cmd.writeEmployees},
		{dataset.CalendarFile, func(path string) (int, error) { return cmd.writeCalendar(path, periods) }},
		{dataset.InitiativesFile, func(path string) (int, error) { return cmd.writeInitiatives(path, periods) }},
		{dataset.ScenariosFile, func(path string) (int, error) { return cmd.writeScenarios(path, periods[0]) }},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(cmd.config.OutputDir, step.file)
		n, err := step.write(path)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", step.file, err)
		}
		if cmd.config.Verbose {
			fmt.Fprintf(cmd.out, "wrote %d rows to %s\n", n, path)
		}
	}

	fmt.Fprintf(cmd.out, "Generated dataset in %s: %d employees, %d initiatives\n",
		cmd.config.OutputDir, cmd.config.Employees, cmd.config.Initiatives)
	return nil
}

func (cmd *GenerateCommand) writePeriods(path string, periods []entities.Period) (int, error) {
	rows := [][]string{{"id", "type", "start_date", "end_date", "label"}}
	for _, p := range periods {
		rows = append(rows, []string{
			p.ID,
			p.Type.String(),
			p.StartDate.Format(entities.DateLayout),
			p.EndDate.Format(entities.DateLayout),
			p.Label,
		})
	}
	return len(periods), writeCSV(path, rows)
}

func (cmd *GenerateCommand) writeEmployees(path string) (int, error) {
	rows := [][]string{{"id", "name", "org_unit_id", "weekly_hours", "skills", "max_allocation_percent", "active"}}
	for i := 1; i <= cmd.config.Employees; i++ {
		ceiling := ""
		if cmd.rand.Intn(10) == 0 {
			ceiling = "80"
		}
		rows = append(rows, []string{
			employeeID(i),
			fmt.Sprintf("Employee %d", i),
			generatedOrgUnits[cmd.rand.Intn(len(generatedOrgUnits))],
			strconv.Itoa(32 + 4*cmd.rand.Intn(3)),
			cmd.randomSkills(),
			ceiling,
			strconv.FormatBool(cmd.rand.Intn(20) != 0),
		})
	}
	return cmd.config.Employees, writeCSV(path, rows)
}

func (cmd *GenerateCommand) randomSkills() string {
	picked := cmd.rand.Perm(len(generatedSkills))[:1+cmd.rand.Intn(3)]
	parts := make([]string, len(picked))
	for i, idx := range picked {
		parts[i] = fmt.Sprintf("%s:%d", generatedSkills[idx], 1+cmd.rand.Intn(5))
	}
	return strings.Join(parts, "|")
}

// writeCalendar gives roughly one employee in ten a PTO quarter
func (cmd *GenerateCommand) writeCalendar(path string, periods []entities.Period) (int, error) {
	rows := [][]string{{"employee_id", "period_id", "available_hours", "reason"}}
	for i := 1; i <= cmd.config.Employees; i++ {
		if cmd.rand.Intn(10) != 0 {
			continue
		}
		period := periods[cmd.rand.Intn(len(periods))]
		rows = append(rows, []string{
			employeeID(i),
			period.ID,
			strconv.Itoa(200 + 20*cmd.rand.Intn(10)),
			string(entities.ReasonPTO),
		})
	}
	return len(rows) - 1, writeCSV(path, rows)
}

type generatedInitiatives struct {
	Initiatives []generatedInitiative `yaml:"initiatives"`
}

type generatedInitiative struct {
	ID         string               `yaml:"id"`
	Title      string               `yaml:"title"`
	Status     string               `yaml:"status"`
	ScopeItems []generatedScopeItem `yaml:"scope_items"`
}

type generatedScopeItem struct {
	ID                 string            `yaml:"id"`
	Name               string            `yaml:"name"`
	SkillDemand        map[string]int    `yaml:"skill_demand"`
	PeriodDistribution map[string]string `yaml:"period_distribution"`
}

func (cmd *GenerateCommand) writeInitiatives(path string, periods []entities.Period) (int, error) {
	doc := generatedInitiatives{}
	for i := 1; i <= cmd.config.Initiatives; i++ {
		initiative := generatedInitiative{
			ID:     initiativeID(i),
			Title:  fmt.Sprintf("Initiative %d", i),
			Status: string(generatedStatuses[cmd.rand.Intn(len(generatedStatuses))]),
		}
		items := 1 + cmd.rand.Intn(3)
		for s := 1; s <= items; s++ {
			item := generatedScopeItem{
				ID:                 fmt.Sprintf("%s-S%d", initiative.ID, s),
				Name:               fmt.Sprintf("Workstream %d", s),
				SkillDemand:        make(map[string]int),
				PeriodDistribution: make(map[string]string),
			}
			for _, idx := range cmd.rand.Perm(len(generatedSkills))[:1+cmd.rand.Intn(3)] {
				item.SkillDemand[generatedSkills[idx]] = 40 + 10*cmd.rand.Intn(37)
			}

			start := cmd.rand.Intn(len(periods))
			if start+1 < len(periods) && cmd.rand.Intn(2) == 0 {
				item.PeriodDistribution[periods[start].ID] = "0.5"
				item.PeriodDistribution[periods[start+1].ID] = "0.5"
			} else {
				item.PeriodDistribution[periods[start].ID] = "1"
			}
			initiative.ScopeItems = append(initiative.ScopeItems, item)
		}
		doc.Initiatives = append(doc.Initiatives, initiative)
	}
	return cmd.config.Initiatives, writeYAML(path, doc)
}

type generatedScenarios struct {
	Scenarios []generatedScenario `yaml:"scenarios"`
}

type generatedScenario struct {
	ID               string                     `yaml:"id"`
	Name             string                     `yaml:"name"`
	PeriodID         string                     `yaml:"period_id"`
	Type             string                     `yaml:"type"`
	ParentScenarioID string                     `yaml:"parent_scenario_id,omitempty"`
	PriorityRankings []entities.PriorityRanking `yaml:"priority_rankings"`
}

// writeScenarios ranks every initiative in a baseline and a reversed what-if
func (cmd *GenerateCommand) writeScenarios(path string, period entities.Period) (int, error) {
	n := cmd.config.Initiatives
	order := cmd.rand.Perm(n)

	baseline := generatedScenario{
		ID:       "S-GEN",
		Name:     fmt.Sprintf("%s generated baseline", period.ID),
		PeriodID: period.ID,
		Type:     string(entities.ScenarioBaseline),
	}
	whatIf := generatedScenario{
		ID:               "S-GEN-REVERSED",
		Name:             "Reversed priorities",
		PeriodID:         period.ID,
		Type:             string(entities.ScenarioWhatIf),
		ParentScenarioID: baseline.ID,
	}
	for rank, idx := range order {
		baseline.PriorityRankings = append(baseline.PriorityRankings,
			entities.PriorityRanking{InitiativeID: initiativeID(idx + 1), Rank: rank + 1})
		whatIf.PriorityRankings = append(whatIf.PriorityRankings,
			entities.PriorityRanking{InitiativeID: initiativeID(idx + 1), Rank: n - rank})
	}

	return 2, writeYAML(path, generatedScenarios{Scenarios: []generatedScenario{baseline, whatIf}})
}

func employeeID(i int) string   { return fmt.Sprintf("E%04d", i) }
func initiativeID(i int) string { return fmt.Sprintf("I%03d", i) }

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
