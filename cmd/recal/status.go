package main

import (
	"encoding/json"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/charlie0129/recal/pkg/recalibration"
)

func NewStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current or last recalibration run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := apiClient.GetStatus()
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(run, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(b))
				return nil
			}

			if run.ID == "" {
				cmd.Println("No recalibration has run since the daemon started.")
				return nil
			}
			printRun(cmd, run)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")

	return cmd
}

func printRun(cmd *cobra.Command, run *recalibration.Run) {
	cmd.Println(bold("Recalibration run %s:", run.ID))
	cmd.Printf("  Phase: %s\n", phaseText(run.Phase))
	name := run.Thermostat
	if run.Name != "" {
		name = run.Name + " (" + run.Thermostat + ")"
	}
	cmd.Printf("  Thermostat: %s\n", name)
	cmd.Printf("  Thermometer: %s\n", run.Thermometer)
	if !run.StartedAt.IsZero() {
		cmd.Printf("  Started: %s\n", run.StartedAt.Format(time.DateTime))
	}
	if !run.FinishedAt.IsZero() {
		cmd.Printf("  Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}

	if run.Reference != 0 {
		cmd.Println()
		cmd.Println(bold("Temperatures:"))
		cmd.Printf("  Reference: %s\n", bold("%.1f °C (%.2f °C)", run.Normalized, run.Reference))
		cmd.Printf("  Sensor: %s\n", bold("%.1f °C -> %.1f °C", run.SensorBefore, run.SensorAfter))
		cmd.Printf("  Target: %s\n", bold("%.1f °C", run.Target))
		cmd.Printf("  Recalibrated: %s\n", bool2Text(run.Recalibrated))
		cmd.Printf("  Offset clicks: %d\n", run.OffsetClicks)
		if run.OffsetLimitReached {
			cmd.Printf("  %s\n", color.YellowString("Offset limit of +/- 5 °C reached"))
		}
		if run.TargetClicks > 0 {
			cmd.Printf("  Target restored with %d clicks\n", run.TargetClicks)
		}
	}

	if run.Error != "" {
		cmd.Println()
		cmd.Printf("  Error: %s\n", color.RedString(run.Error))
	}
}

func phaseText(p recalibration.Phase) string {
	switch p {
	case recalibration.PhaseDone:
		return color.New(color.Bold, color.FgGreen).Sprint(p)
	case recalibration.PhaseError:
		return color.New(color.Bold, color.FgRed).Sprint(p)
	case recalibration.PhaseIdle:
		return string(p)
	default:
		return color.New(color.Bold, color.FgYellow).Sprint(p)
	}
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
