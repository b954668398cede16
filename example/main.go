package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/services/allocation"
	"github.com/vsinha/capplan/pkg/application/services/calculator"
	"github.com/vsinha/capplan/pkg/application/services/orchestration"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/dataset"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/capplan/pkg/interfaces/cli/output"
)

// Walks the sample quarterly plan from import to a locked baseline.
// Run from the repository root: go run ./example
func main() {
	if err := run(context.Background(), "examples/quarterly_plan"); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dir string) error {
	logger := zap.NewNop()
	store := memory.NewStore()
	printer := output.NewPrinter(os.Stdout, output.FormatText)

	summary, err := dataset.NewImporter(entities.Quarter, logger).Import(ctx, store, dir)
	if err != nil {
		return err
	}
	if err := printer.Import(summary); err != nil {
		return err
	}

	planner, err := orchestration.NewPlanner(store, logger, orchestration.Options{})
	if err != nil {
		return err
	}

	fmt.Println("\n🔍 Current plan")
	calc, err := planner.Calculate(ctx, "S-BASE", calculator.Options{})
	if err != nil {
		return err
	}
	if err := printer.Calculation(calc); err != nil {
		return err
	}

	fmt.Println()
	proposal, err := planner.AutoAllocate(ctx, "S-BASE", allocation.AutoAllocateOptions{})
	if err != nil {
		return err
	}
	if err := printer.AutoAllocate(proposal); err != nil {
		return err
	}
	applied, err := planner.ApplyAutoAllocate(ctx, "S-BASE", proposal.Proposals)
	if err != nil {
		return err
	}
	if err := printer.Apply(applied); err != nil {
		return err
	}

	fmt.Println()
	for _, status := range []entities.ScenarioStatus{entities.ScenarioReview, entities.ScenarioApproved, entities.ScenarioLocked} {
		result, err := planner.TransitionScenario(ctx, "S-BASE", status)
		if err != nil {
			return err
		}
		if err := printer.Transition(result); err != nil {
			return err
		}
	}

	fmt.Println()
	delta, err := planner.ComputeDelta(ctx, "S-BASE")
	if err != nil {
		return err
	}
	if err := printer.Delta(delta); err != nil {
		return err
	}

	fmt.Println()
	drift, err := planner.CheckDrift(ctx, "S-BASE")
	if err != nil {
		return err
	}
	return printer.DriftCheck(drift)
}
