package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/recal/pkg/events"
	"github.com/charlie0129/recal/pkg/recalibration"
	"github.com/charlie0129/recal/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func warnVersionMismatch(daemonVersion string) {
	if daemonVersion != version.Version {
		logrus.WithFields(logrus.Fields{
			"clientVersion": version.Version,
			"daemonVersion": daemonVersion,
		}).Warn("Version mismatch between client and daemon. recal may not work as expected.")
	}
}

func NewRecalibrateCommand() *cobra.Command {
	var (
		req  recalibration.Request
		wait bool
	)

	cmd := &cobra.Command{
		Use:     "recalibrate",
		Aliases: []string{"recal"},
		Short:   "Recalibrate a thermostat against a reference thermometer",
		GroupID: gBasic,
		Long: `Ask the daemon to recalibrate a thermostat.

The thermostat's sensor offset is adjusted until it shows the reference
thermometer's temperature, rounded down to half a degree.`,
		Example: `  recal recalibrate --thermostat climate.living_room --thermometer sensor.living_room_temperature --wait`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := req.Validate(); err != nil {
				return err
			}

			if !wait {
				id, err := apiClient.Recalibrate(req)
				if err != nil {
					return err
				}
				cmd.Printf("Recalibration %s queued.\n", id)
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return recalibrateAndWait(ctx, cmd, req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Thermostat, "thermostat", "", "thermostat entity, e.g. climate.living_room")
	f.StringVar(&req.Thermometer, "thermometer", "", "reference thermometer entity, e.g. sensor.living_room_temperature")
	f.BoolVarP(&wait, "wait", "w", false, "wait for the run to finish and print its progress")
	_ = cmd.MarkFlagRequired("thermostat")
	_ = cmd.MarkFlagRequired("thermometer")

	return cmd
}

// recalibrateAndWait subscribes to the daemon's events before queueing the
// run, so no phase change is missed.
func recalibrateAndWait(ctx context.Context, cmd *cobra.Command, req recalibration.Request) error {
	ch, err := apiClient.Events(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	id, err := apiClient.Recalibrate(req)
	if err != nil {
		return err
	}
	cmd.Printf("Recalibration %s queued.\n", id)

	for ev := range ch {
		if ev.Name != events.RecalibrationPhase {
			continue
		}
		p, err := events.DecodeAs[events.RecalibrationPhaseEvent](ev)
		if err != nil {
			logrus.WithError(err).Debug("failed to decode event")
			continue
		}
		if p.RunID != id {
			continue
		}
		cmd.Printf("  %s\n", phaseText(recalibration.Phase(p.To)))

		if !recalibration.Phase(p.To).Finished() {
			continue
		}
		run, err := apiClient.GetStatus()
		if err != nil {
			return err
		}
		if run.ID == id {
			printRun(cmd, run)
		}
		if p.To == string(recalibration.PhaseError) {
			return errors.New("recalibration failed: " + p.Message)
		}
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New("event stream closed before the run finished")
}
