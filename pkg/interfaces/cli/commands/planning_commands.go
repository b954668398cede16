package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsinha/capplan/pkg/application/services/allocation"
	"github.com/vsinha/capplan/pkg/application/services/calculator"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/dataset"
)

func (a *App) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Load a planning dataset directory into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
			granularity, err := rt.cfg.Granularity()
			if err != nil {
				return err
			}
			summary, err := dataset.NewImporter(granularity, rt.logger).Import(ctx, rt.store, args[0])
			if err != nil {
				return err
			}
			return rt.printer.Import(summary)
		}),
	}
}

func (a *App) scenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List scenarios",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, rt *runtime, _ []string) error {
			scenarios, err := rt.planner.ListScenarios(ctx)
			if err != nil {
				return err
			}
			return rt.printer.Scenarios(scenarios)
		}),
	}
}

func (a *App) calculateCommand() *cobra.Command {
	var opts calculator.Options
	cmd := &cobra.Command{
		Use:   "calculate <scenario>",
		Short: "Compute per-skill demand, capacity and gaps for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
			result, err := rt.planner.Calculate(ctx, args[0], opts)
			if err != nil {
				return err
			}
			return rt.printer.Calculation(result)
		}),
	}
	cmd.Flags().StringVar(&opts.OrgScope, "org-scope", "", "Restrict the calculation to an org unit scope")
	cmd.Flags().BoolVar(&opts.SkipCache, "no-cache", false, "Bypass the result cache")
	return cmd
}

func (a *App) autoAllocateCommand() *cobra.Command {
	var (
		opts  allocation.AutoAllocateOptions
		apply bool
	)
	cmd := &cobra.Command{
		Use:   "auto-allocate <scenario>",
		Short: "Propose allocations in priority order, optionally applying them",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
			result, err := rt.planner.AutoAllocate(ctx, args[0], opts)
			if err != nil {
				return err
			}
			if err := rt.printer.AutoAllocate(result); err != nil {
				return err
			}
			if !apply {
				return nil
			}
			applied, err := rt.planner.ApplyAutoAllocate(ctx, args[0], result.Proposals)
			if err != nil {
				return err
			}
			return rt.printer.Apply(applied)
		}),
	}
	cmd.Flags().StringVar(&opts.OrgScope, "org-scope", "", "Restrict allocation to an org unit scope")
	cmd.Flags().BoolVar(&apply, "apply", false, "Replace the scenario's allocations with the proposal")
	return cmd
}

func (a *App) availabilityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "availability <employee> <scenario>",
		Short: "Show an employee's weekly hours over the scenario period",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
			calendar, err := rt.planner.EmployeeAvailability(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return rt.printer.Availability(args[0], args[1], calendar)
		}),
	}
}

func (a *App) transitionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transition <scenario> <status>",
		Short: "Move a scenario through DRAFT, REVIEW, APPROVED and LOCKED",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
			target := entities.ScenarioStatus(strings.ToUpper(strings.TrimSpace(args[1])))
			result, err := rt.planner.TransitionScenario(ctx, args[0], target)
			if err != nil {
				return err
			}
			return rt.printer.Transition(result)
		}),
	}
}
