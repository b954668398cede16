package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

func (a *App) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture or show the baseline snapshot of a scenario",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "capture <scenario>",
			Short: "Capture the snapshot of a locked baseline (idempotent)",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
				snapshot, err := rt.planner.CaptureSnapshot(ctx, args[0])
				if err != nil {
					return err
				}
				return rt.printer.Snapshot(snapshot)
			}),
		},
		&cobra.Command{
			Use:   "show <scenario>",
			Short: "Show the stored snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
				snapshot, err := rt.planner.GetSnapshot(ctx, args[0])
				if err != nil {
					return err
				}
				return rt.printer.Snapshot(snapshot)
			}),
		},
	)
	return cmd
}

func (a *App) deltaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delta <scenario>",
		Short: "Compare live state against the baseline snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
			delta, err := rt.planner.ComputeDelta(ctx, args[0])
			if err != nil {
				return err
			}
			return rt.printer.Delta(delta)
		}),
	}
}

func (a *App) driftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Check drift and manage drift alerts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "check <scenario>",
			Short: "Evaluate drift per period and reconcile alerts",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
				result, err := rt.planner.CheckDrift(ctx, args[0])
				if err != nil {
					return err
				}
				return rt.printer.DriftCheck(result)
			}),
		},
		&cobra.Command{
			Use:   "alerts <scenario>",
			Short: "List active and acknowledged alerts",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
				alerts, err := rt.planner.ListAlerts(ctx, args[0])
				if err != nil {
					return err
				}
				return rt.printer.Alerts(alerts)
			}),
		},
		&cobra.Command{
			Use:   "ack <alert>",
			Short: "Acknowledge an active alert",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, rt *runtime, args []string) error {
				alert, err := rt.planner.AcknowledgeAlert(ctx, args[0])
				if err != nil {
					return err
				}
				return rt.printer.Alerts([]*entities.DriftAlert{alert})
			}),
		},
	)
	return cmd
}

func (a *App) thresholdsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Show or update drift thresholds",
	}

	var capacity, demand, period string
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the global thresholds or one period override",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, rt *runtime, _ []string) error {
			current, err := rt.planner.GetThresholds(ctx)
			if err != nil {
				return err
			}
			updated := current.Clone()

			pair := updated.ThresholdPair
			if period != "" {
				pair = updated.For(period)
			}
			if pair.CapacityPct, err = parseOptionalPct("capacity", capacity, pair.CapacityPct); err != nil {
				return err
			}
			if pair.DemandPct, err = parseOptionalPct("demand", demand, pair.DemandPct); err != nil {
				return err
			}

			if period == "" {
				updated.ThresholdPair = pair
			} else {
				if updated.PeriodOverrides == nil {
					updated.PeriodOverrides = make(map[string]entities.ThresholdPair)
				}
				updated.PeriodOverrides[period] = pair
			}

			saved, err := rt.planner.UpdateThresholds(ctx, updated)
			if err != nil {
				return err
			}
			return rt.printer.Thresholds(saved)
		}),
	}
	set.Flags().StringVar(&capacity, "capacity", "", "Capacity drift limit in percent")
	set.Flags().StringVar(&demand, "demand", "", "Demand drift limit in percent")
	set.Flags().StringVar(&period, "period", "", "Period to override instead of the global limits")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show the thresholds in effect",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, rt *runtime, _ []string) error {
				t, err := rt.planner.GetThresholds(ctx)
				if err != nil {
					return err
				}
				return rt.printer.Thresholds(t)
			}),
		},
		set,
	)
	return cmd
}

func parseOptionalPct(name, raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s threshold %q: %w", name, raw, err)
	}
	return d, nil
}
